package pkg

import (
	"strings"
	"time"
)

// ShiftMorning is the only shift the clinic currently books online.
const ShiftMorning = "MAÑANA"

// Patient is the identity and demographic snapshot fetched when the user
// identifies with their DNI.  It is immutable for the session's lifetime.
type Patient struct {
	DNI              string `json:"dni"`
	FirstName        string `json:"first_name"`
	PaternalSurname  string `json:"paternal_surname"`
	MaternalSurname  string `json:"maternal_surname"`
	Age              int    `json:"age"`
	ClinicalRecordID string `json:"clinical_record_id"`
}

// FullName joins the name components, skipping empty surnames.
func (p *Patient) FullName() string {
	parts := []string{p.FirstName, p.PaternalSurname, p.MaternalSurname}
	nonEmpty := parts[:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// Specialty is a canonical catalog entry.  The matcher never invents
// identifiers; every Specialty handed to the user comes from storage.
type Specialty struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// AppointmentSlot aggregates the availability of one doctor on one date:
// how many times remain free that morning and the earliest of them.  It
// represents availability, not a reservation.
type AppointmentSlot struct {
	ScheduleID    int       `json:"schedule_id"`
	Date          time.Time `json:"date"`
	DoctorID      string    `json:"doctor_id"`
	DoctorName    string    `json:"doctor_name"`
	FreeCount     int       `json:"free_count"`
	FirstFreeTime string    `json:"first_free_time"`
}

// BookingRequest carries every field required to persist a reservation.
// All fields are mandatory; a missing one is a validation error, never a
// database error.
type BookingRequest struct {
	ScheduleID  int    `json:"schedule_id"`
	SpecialtyID int    `json:"specialty_id"`
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM
	DNI         string `json:"dni"`
	Shift       string `json:"shift"`
}

// Validate reports the missing fields, if any, as an IncompleteBookingError.
func (r *BookingRequest) Validate() error {
	var missing []string
	if r.ScheduleID == 0 {
		missing = append(missing, "schedule_id")
	}
	if r.SpecialtyID == 0 {
		missing = append(missing, "specialty_id")
	}
	if r.DoctorID == "" {
		missing = append(missing, "doctor_id")
	}
	if r.Date == "" {
		missing = append(missing, "date")
	}
	if r.Time == "" {
		missing = append(missing, "time")
	}
	if r.DNI == "" {
		missing = append(missing, "dni")
	}
	if r.Shift == "" {
		missing = append(missing, "shift")
	}
	if len(missing) > 0 {
		return &IncompleteBookingError{Missing: missing}
	}
	return nil
}

// Booking acknowledges a persisted reservation.
type Booking struct {
	ID           int64     `json:"id"`
	ScheduleID   int       `json:"schedule_id"`
	SpecialtyID  int       `json:"specialty_id"`
	DoctorID     string    `json:"doctor_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	DNI          string    `json:"dni"`
	RegisteredAt time.Time `json:"registered_at"`
}
