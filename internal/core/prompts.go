package core

import (
	"fmt"
	"strings"
	"time"

	"citabot/pkg"
)

// prompts.go holds every Spanish string the bot says and the LLM prompt
// template.  Keeping them in one file makes them easy to tweak without
// touching the state machine.

const (
	// MsgAskDNI opens every conversation.
	MsgAskDNI = "Por favor, ingresa tu número de DNI:"

	// MsgInvalidDNI rejects input that is not an 8-digit number before any
	// lookup is attempted.
	MsgInvalidDNI = "El DNI debe tener 8 dígitos numéricos. Por favor, verifica el número e intenta nuevamente."

	// MsgDNINotFound is sent when no patient record matches the DNI.
	MsgDNINotFound = "DNI no encontrado. Por favor, verifica el número e intenta nuevamente."

	// MsgNoSpecialtyMatch asks the patient to rephrase when no suggestion
	// matched the catalog.
	MsgNoSpecialtyMatch = "Lo siento, no pude encontrar especialidades que coincidan con tus síntomas. Por favor, intenta describir tus síntomas de otra manera."

	// MsgNoSlots resets the search when the chosen specialty has no
	// availability.
	MsgNoSlots = "Lo siento, no hay citas disponibles para esta especialidad en este momento. Por favor, describe tus síntomas para buscar otra opción."

	// MsgConfirmYesNo re-prompts on an unrecognised confirmation reply.
	MsgConfirmYesNo = `Por favor, responde "si" o "no" para confirmar la cita.`

	// MsgDeclined acknowledges a "no" and restarts the search.
	MsgDeclined = "Entiendo. ¿Deseas buscar otra cita? Por favor, describe tus síntomas."

	// MsgSlotTaken is sent when someone else booked the slot first.
	MsgSlotTaken = "Lo siento, esa cita acaba de ser tomada por otro paciente. Por favor, describe tus síntomas para buscar otra opción."

	// MsgBookingFailed is sent when the booking attempt failed for a reason
	// other than the slot being taken.  The search restarts.
	MsgBookingFailed = "Lo siento, no se pudo registrar la cita. Por favor, describe tus síntomas para intentarlo nuevamente."

	// MsgSystemError is the only thing a user ever sees of an internal
	// failure; detail goes to the log.
	MsgSystemError = "Lo siento, ha ocurrido un error. Por favor, intenta nuevamente."
)

// FallbackSpecialty pads the LLM's suggestions when it returns fewer than
// three usable names.
const FallbackSpecialty = "Medicina General"

// analyzePromptTemplate interpolates the patient name and symptom text.
// The model must answer with exactly three comma-separated specialty
// names, nothing else.
const analyzePromptTemplate = `Actúa como un asistente médico especializado.
El paciente %s describe los siguientes síntomas: %s

Basado en estos síntomas, sugiere exactamente 3 especialidades médicas.

Reglas:
1. Responde SOLO con las especialidades, separadas por comas
2. Usa nombres completos de especialidades (ejemplo: "Medicina Interna" en lugar de "MI")
3. No incluyas números ni explicaciones adicionales
4. Si no estás seguro, incluye "Medicina General" como una de las opciones

Formato de respuesta ejemplo:
Medicina Interna, Cardiología, Medicina General`

func greeting(fullName string) string {
	return fmt.Sprintf("Hola %s, ¿en qué puedo ayudarte hoy? Por favor, describe tus síntomas.", fullName)
}

func invalidChoice(n int) string {
	return fmt.Sprintf("Por favor, elige un número válido del 1 al %d.", n)
}

func specialtyMenu(specialties []pkg.Specialty) string {
	var b strings.Builder
	b.WriteString("Basado en tus síntomas, te recomiendo las siguientes especialidades:\n\n")
	for i, s := range specialties {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Name)
	}
	fmt.Fprintf(&b, "\nPor favor, elige un número del 1 al %d para la especialidad deseada.", len(specialties))
	return b.String()
}

func slotMenu(slots []pkg.AppointmentSlot) string {
	var b strings.Builder
	b.WriteString("Citas disponibles:\n\n")
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s - %s - Dr. %s (%d cupos)\n",
			i+1, spanishDate(s.Date), s.FirstFreeTime, s.DoctorName, s.FreeCount)
	}
	b.WriteString("\nPor favor, elige un número para agendar tu cita.")
	return b.String()
}

func confirmPrompt(slot *pkg.AppointmentSlot) string {
	return fmt.Sprintf("Has seleccionado la cita para el %s a las %s con el Dr. %s.\n\n¿Deseas confirmar esta cita? (Responde SI o NO)",
		spanishDate(slot.Date), slot.FirstFreeTime, slot.DoctorName)
}

func bookingSummary(slot *pkg.AppointmentSlot) string {
	return fmt.Sprintf("¡Cita registrada exitosamente!\n\nDetalles de tu cita:\nFecha: %s\nHora: %s\nMédico: %s\n\n¿Necesitas algo más? Si deseas otra cita, describe tus síntomas.",
		spanishDate(slot.Date), slot.FirstFreeTime, slot.DoctorName)
}

var spanishWeekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var spanishMonths = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

// spanishDate renders a date the way the rest of the conversation speaks:
// "lunes, 2 de marzo de 2026".
func spanishDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		spanishWeekdays[t.Weekday()], t.Day(), spanishMonths[t.Month()-1], t.Year())
}
