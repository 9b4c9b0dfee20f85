package core

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"citabot/pkg"
)

// PatientDirectory looks patients up by national ID.
type PatientDirectory interface {
	FindByDNI(ctx context.Context, dni string) (*pkg.Patient, error)
}

// AppointmentSource lists open slots for a specialty.
type AppointmentSource interface {
	ListAvailable(ctx context.Context, specialtyID int) ([]pkg.AppointmentSlot, error)
}

// AppointmentRegister persists a fully specified booking.
type AppointmentRegister interface {
	Book(ctx context.Context, req pkg.BookingRequest) (*pkg.Booking, error)
}

// Engine drives the conversation: it owns the phase transitions, invokes
// the collaborators, and formats every reply.  A collaborator failure
// never leaves the session half-updated; the fields touched during the
// failing turn keep their pre-turn values, except when the failure is the
// terminal outcome of a booking attempt, in which case the search resets.
type Engine struct {
	patients PatientDirectory
	matcher  *Matcher
	slots    AppointmentSource
	register AppointmentRegister
	logger   *zap.Logger
	timeout  time.Duration
}

// NewEngine constructs an Engine.  timeout bounds each collaborator call;
// zero disables the per-call deadline.
func NewEngine(patients PatientDirectory, matcher *Matcher, slots AppointmentSource, register AppointmentRegister, logger *zap.Logger, timeout time.Duration) *Engine {
	return &Engine{
		patients: patients,
		matcher:  matcher,
		slots:    slots,
		register: register,
		logger:   logger,
		timeout:  timeout,
	}
}

// Greeting is the bot's opening line for a fresh session.
func (e *Engine) Greeting() string { return MsgAskDNI }

// HandleTurn processes one inbound message and returns the reply.  A
// returned error means a collaborator failed; the caller renders it as the
// generic apologetic message.  Malformed user input is never an error, it
// is answered with a re-prompt and the phase stays put.
func (e *Engine) HandleTurn(ctx context.Context, s *pkg.Session, text string) (string, error) {
	text = strings.TrimSpace(text)
	switch s.Phase {
	case pkg.PhaseAwaitingID:
		return e.handleDNI(ctx, s, text)
	case pkg.PhaseAwaitingSymptoms:
		return e.handleSymptoms(ctx, s, text)
	case pkg.PhaseAwaitingSpecialtyChoice:
		return e.handleSpecialtyChoice(ctx, s, text)
	case pkg.PhaseAwaitingSlotChoice:
		return e.handleSlotChoice(s, text)
	case pkg.PhaseAwaitingConfirmation:
		return e.handleConfirmation(ctx, s, text)
	default:
		return e.handleSymptoms(ctx, s, text)
	}
}

var dniPattern = regexp.MustCompile(`^\d{8}$`)

func (e *Engine) handleDNI(ctx context.Context, s *pkg.Session, dni string) (string, error) {
	if !dniPattern.MatchString(dni) {
		return MsgInvalidDNI, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	patient, err := e.patients.FindByDNI(callCtx, dni)
	if err != nil {
		if errors.Is(err, pkg.ErrPatientNotFound) {
			return MsgDNINotFound, nil
		}
		return "", err
	}

	s.Patient = patient
	s.Phase = pkg.PhaseAwaitingSymptoms
	return greeting(patient.FullName()), nil
}

func (e *Engine) handleSymptoms(ctx context.Context, s *pkg.Session, symptoms string) (string, error) {
	if s.Patient == nil {
		s.Phase = pkg.PhaseAwaitingID
		return MsgAskDNI, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	suggestions, err := e.matcher.Analyze(callCtx, s.Patient.FullName(), symptoms)
	if err != nil {
		return "", err
	}
	matched, err := e.matcher.Match(callCtx, suggestions)
	if err != nil {
		return "", err
	}
	if len(matched) == 0 {
		return MsgNoSpecialtyMatch, nil
	}

	s.Specialties = matched
	s.Phase = pkg.PhaseAwaitingSpecialtyChoice
	return specialtyMenu(matched), nil
}

func (e *Engine) handleSpecialtyChoice(ctx context.Context, s *pkg.Session, choice string) (string, error) {
	idx, ok := parseChoice(choice, len(s.Specialties))
	if !ok {
		return invalidChoice(len(s.Specialties)), nil
	}
	selected := s.Specialties[idx-1]

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	slots, err := e.slots.ListAvailable(callCtx, selected.ID)
	if err != nil {
		// selection not yet bound, nothing to roll back
		return "", err
	}
	if len(slots) == 0 {
		s.ResetSearch()
		return MsgNoSlots, nil
	}

	s.SelectedSpecialty = &selected
	s.Slots = slots
	s.Phase = pkg.PhaseAwaitingSlotChoice
	return slotMenu(slots), nil
}

func (e *Engine) handleSlotChoice(s *pkg.Session, choice string) (string, error) {
	idx, ok := parseChoice(choice, len(s.Slots))
	if !ok {
		return invalidChoice(len(s.Slots)), nil
	}
	selected := s.Slots[idx-1]
	s.SelectedSlot = &selected
	s.Phase = pkg.PhaseAwaitingConfirmation
	return confirmPrompt(&selected), nil
}

func (e *Engine) handleConfirmation(ctx context.Context, s *pkg.Session, answer string) (string, error) {
	switch strings.ToLower(answer) {
	case "si", "sí":
		return e.completeBooking(ctx, s)
	case "no":
		s.ResetSearch()
		return MsgDeclined, nil
	default:
		return MsgConfirmYesNo, nil
	}
}

func (e *Engine) completeBooking(ctx context.Context, s *pkg.Session) (string, error) {
	if s.Patient == nil || s.SelectedSpecialty == nil || s.SelectedSlot == nil {
		e.logger.Error("confirmation reached with incomplete session",
			zap.String("session_id", s.ID),
			zap.Bool("has_patient", s.Patient != nil),
			zap.Bool("has_specialty", s.SelectedSpecialty != nil),
			zap.Bool("has_slot", s.SelectedSlot != nil))
		s.ResetSearch()
		return MsgBookingFailed, nil
	}

	slot := s.SelectedSlot
	req := pkg.BookingRequest{
		ScheduleID:  slot.ScheduleID,
		SpecialtyID: s.SelectedSpecialty.ID,
		DoctorID:    slot.DoctorID,
		Date:        slot.Date.Format("2006-01-02"),
		Time:        slot.FirstFreeTime,
		DNI:         s.Patient.DNI,
		Shift:       pkg.ShiftMorning,
	}
	if err := req.Validate(); err != nil {
		e.logger.Error("booking request incomplete", zap.String("session_id", s.ID), zap.Error(err))
		s.ResetSearch()
		return MsgBookingFailed, nil
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	booking, err := e.register.Book(callCtx, req)
	if err != nil {
		s.ResetSearch()
		var incomplete *pkg.IncompleteBookingError
		switch {
		case errors.Is(err, pkg.ErrSlotTaken):
			return MsgSlotTaken, nil
		case errors.Is(err, pkg.ErrPatientUnresolved), errors.As(err, &incomplete):
			e.logger.Error("booking rejected", zap.String("session_id", s.ID), zap.Error(err))
			return MsgBookingFailed, nil
		default:
			return "", err
		}
	}

	e.logger.Info("booking registered",
		zap.String("session_id", s.ID),
		zap.Int64("booking_id", booking.ID),
		zap.String("date", req.Date),
		zap.String("time", req.Time),
		zap.String("doctor_id", req.DoctorID))

	summary := bookingSummary(slot)
	s.ResetSearch()
	return summary, nil
}

// parseChoice trims and parses a 1-based menu choice, accepting only
// integers within [1, n].
func parseChoice(text string, n int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v, true
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.timeout)
}
