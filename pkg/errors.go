package pkg

import (
	"errors"
	"fmt"
	"strings"
)

// Collaborator-boundary errors.  The core engine branches on these to pick
// the right user-facing message and reset point; anything else is treated
// as an infrastructure failure.
var (
	// ErrPatientNotFound: no patient record exists for the given DNI.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrPatientUnresolved: the booking's patient could not be resolved to
	// exactly one record.  Fatal to the current booking attempt only.
	ErrPatientUnresolved = errors.New("patient could not be resolved")
	// ErrSlotTaken: the (date, doctor, shift, specialty, time) combination
	// was booked by someone else first.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrSessionNotFound: the conversation id is unknown or expired.
	ErrSessionNotFound = errors.New("session not found")
)

// IncompleteBookingError reports which BookingRequest fields were absent.
type IncompleteBookingError struct {
	Missing []string
}

func (e *IncompleteBookingError) Error() string {
	return fmt.Sprintf("incomplete booking request: missing %s", strings.Join(e.Missing, ", "))
}
