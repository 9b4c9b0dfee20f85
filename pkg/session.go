package pkg

// Phase is the current step of a conversation.  Transitions are owned
// exclusively by the core engine; nothing else mutates a Session.
type Phase int

const (
	// PhaseAwaitingID: the bot has asked for the patient's DNI.
	PhaseAwaitingID Phase = iota
	// PhaseAwaitingSymptoms: patient identified, waiting for a symptom
	// description.
	PhaseAwaitingSymptoms
	// PhaseAwaitingSpecialtyChoice: specialty candidates presented, waiting
	// for a numeric choice.
	PhaseAwaitingSpecialtyChoice
	// PhaseAwaitingSlotChoice: appointment slots presented, waiting for a
	// numeric choice.
	PhaseAwaitingSlotChoice
	// PhaseAwaitingConfirmation: a slot is selected, waiting for si/no.
	PhaseAwaitingConfirmation
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingID:
		return "awaiting_id"
	case PhaseAwaitingSymptoms:
		return "awaiting_symptoms"
	case PhaseAwaitingSpecialtyChoice:
		return "awaiting_specialty_choice"
	case PhaseAwaitingSlotChoice:
		return "awaiting_slot_choice"
	case PhaseAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// Session is the state of one conversation.  Invariants: SelectedSlot is
// only set while SelectedSpecialty is set, which is only set while Patient
// is set; candidate lists are replaced wholesale on each lookup.
type Session struct {
	ID                string
	Phase             Phase
	Patient           *Patient
	Specialties       []Specialty
	SelectedSpecialty *Specialty
	Slots             []AppointmentSlot
	SelectedSlot      *AppointmentSlot
}

// ResetSearch returns the session to symptom entry, retaining the
// identified patient.  Used after a completed booking, a decline, or a
// failed booking attempt.
func (s *Session) ResetSearch() {
	s.Phase = PhaseAwaitingSymptoms
	s.Specialties = nil
	s.SelectedSpecialty = nil
	s.Slots = nil
	s.SelectedSlot = nil
}
