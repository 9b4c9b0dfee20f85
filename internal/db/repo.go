package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"citabot/pkg"
)

// morningRoster enumerates the bookable times of the morning shift in
// quarter-hour steps.
const morningRoster = `VALUES
        ('08:00'), ('08:15'), ('08:30'), ('08:45'), ('09:00'),
        ('09:15'), ('09:30'), ('09:45'), ('10:00'), ('10:15'),
        ('10:30'), ('10:45'), ('11:00'), ('11:15'), ('11:30'),
        ('11:45'), ('12:00')`

// Repository wraps the database operations behind the collaborator
// contracts the core engine consumes: patient lookup, specialty catalog,
// appointment availability, and booking registration.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB.  The
// caller manages the connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// FindByDNI returns the patient identified by the national ID, with the
// age computed at query time.  Returns pkg.ErrPatientNotFound when no
// record exists.
func (r *Repository) FindByDNI(ctx context.Context, dni string) (*pkg.Patient, error) {
	var p pkg.Patient
	err := r.DB.QueryRowContext(ctx,
		`SELECT dni, first_name, paternal_surname, maternal_surname,
                EXTRACT(YEAR FROM AGE(birth_date))::int AS age,
                clinical_record_id
         FROM patients
         WHERE dni = $1`,
		dni,
	).Scan(&p.DNI, &p.FirstName, &p.PaternalSurname, &p.MaternalSurname, &p.Age, &p.ClinicalRecordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return &p, nil
}

// ListActive returns the active specialty catalog ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]pkg.Specialty, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name FROM specialties WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()
	var catalog []pkg.Specialty
	for rows.Next() {
		var s pkg.Specialty
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		catalog = append(catalog, s)
	}
	return catalog, rows.Err()
}

// ListAvailable computes appointment availability for a specialty.  The
// morning roster is cross-joined against every open schedule on or after
// today, times already booked are excluded, and what remains is grouped
// per (schedule, date, doctor) into a free-time count plus the earliest
// free time.  Only the three nearest dates are returned, ascending.
func (r *Repository) ListAvailable(ctx context.Context, specialtyID int) ([]pkg.AppointmentSlot, error) {
	query := `WITH roster(slot_time) AS (
        ` + morningRoster + `
    ),
    scheduled AS (
        SELECT s.id AS schedule_id, s.visit_date, s.doctor_id, s.specialty_id, r.slot_time
        FROM schedules s
        CROSS JOIN roster r
        WHERE s.shift = $2
          AND s.visit_date >= CURRENT_DATE
          AND s.specialty_id = $1
    ),
    free AS (
        SELECT sc.schedule_id, sc.visit_date, sc.doctor_id, sc.slot_time
        FROM scheduled sc
        LEFT JOIN bookings b
               ON b.visit_date = sc.visit_date
              AND b.doctor_id = sc.doctor_id
              AND b.specialty_id = sc.specialty_id
              AND b.shift = $2
              AND b.visit_time = sc.slot_time
        WHERE b.id IS NULL
    ),
    nearest AS (
        SELECT DISTINCT visit_date FROM free ORDER BY visit_date LIMIT 3
    )
    SELECT f.schedule_id, f.visit_date, d.id, d.name,
           COUNT(f.slot_time) AS free_count,
           MIN(f.slot_time) AS first_free_time
    FROM free f
    JOIN nearest n ON n.visit_date = f.visit_date
    JOIN doctors d ON d.id = f.doctor_id
    GROUP BY f.schedule_id, f.visit_date, d.id, d.name
    ORDER BY f.visit_date`

	rows, err := r.DB.QueryContext(ctx, query, specialtyID, pkg.ShiftMorning)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	defer rows.Close()
	var slots []pkg.AppointmentSlot
	for rows.Next() {
		var s pkg.AppointmentSlot
		if err := rows.Scan(&s.ScheduleID, &s.Date, &s.DoctorID, &s.DoctorName, &s.FreeCount, &s.FirstFreeTime); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Book validates and persists a reservation.  The patient's age at
// booking time is derived from the stored birth date; the registration
// timestamp is set by the database.  A unique-constraint rejection on the
// (date, doctor, shift, specialty, time) combination is surfaced as
// pkg.ErrSlotTaken.
func (r *Repository) Book(ctx context.Context, req pkg.BookingRequest) (*pkg.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback()

	var birthDate time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT birth_date FROM patients WHERE dni = $1`, req.DNI,
	).Scan(&birthDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkg.ErrPatientUnresolved
		}
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	var b pkg.Booking
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bookings
             (schedule_id, specialty_id, doctor_id, visit_date, visit_time, shift, patient_dni, patient_age)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, registered_at`,
		req.ScheduleID, req.SpecialtyID, req.DoctorID, req.Date, req.Time, req.Shift,
		req.DNI, ageAt(birthDate, time.Now()),
	).Scan(&b.ID, &b.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, pkg.ErrSlotTaken
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking: %w", err)
	}

	b.ScheduleID = req.ScheduleID
	b.SpecialtyID = req.SpecialtyID
	b.DoctorID = req.DoctorID
	b.Date = req.Date
	b.Time = req.Time
	b.DNI = req.DNI
	return &b, nil
}

// ageAt returns full years elapsed between birth and now, subtracting one
// when the birthday has not yet occurred this calendar year.
func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	beforeBirthday := now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day())
	if beforeBirthday {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}
