package models

import "strings"

// Yes/No answers used on log entries
const (
	Yes = "Yes"
	No  = "No"
)

// Survival status constants
const (
	Alive   = "alive"
	Dead    = "dead"
	Unknown = "unknown"
)

// Contact type constants
const (
	ContactDirect   = "direct"
	ContactIndirect = "indirect"
	ContactNone     = "no_contact"
)

// Call reason constants
const (
	CallReasonScheduleAppt = "schedule_appt"
	CallReasonReminder     = "reminder"
	CallReasonMissedAppt   = "missed_appt"
)

// Appointment grading constants
const (
	ApptGradingFirm  = "firm"
	ApptGradingWeak  = "weak"
	ApptGradingGuess = "guess"
)

// Appointment location constants
const (
	ApptLocationHome   = "home"
	ApptLocationWork   = "work"
	ApptLocationClinic = "clinic"
	ApptLocationOther  = "OTHER"
)

// Reasons a participant gives for not making an appointment
const (
	UnwillingNotInterested = "not_interested"
	UnwillingTravel        = "cannot_travel"
	UnwillingWorking       = "working"
	UnwillingSick          = "sick"
	UnwillingOther         = "OTHER"
	UnwillingDoNotKnow     = "dont_know"
)

// Availability windows
const (
	TimeOfWeekWeekdays = "weekdays"
	TimeOfWeekWeekends = "weekends"
	TimeOfWeekAnytime  = "anytime"

	TimeOfDayMorning   = "morning"
	TimeOfDayAfternoon = "afternoon"
	TimeOfDayEvening   = "evening"
	TimeOfDayAnytime   = "anytime"
)

// Choice is a stored value paired with its display text
type Choice struct {
	Value string
	Label string
}

// ContactTypeChoices lists contact types in display order
var ContactTypeChoices = []Choice{
	{ContactDirect, "Direct contact with participant"},
	{ContactIndirect, "Contact with person other than participant"},
	{ContactNone, "No contact made"},
}

// SurvivalStatusChoices lists survival statuses
var SurvivalStatusChoices = []Choice{
	{Alive, "Alive"},
	{Dead, "Deceased"},
	{Unknown, "Unknown"},
}

// CallReasonChoices lists call reasons in display order
var CallReasonChoices = []Choice{
	{CallReasonScheduleAppt, "Schedule an appointment"},
	{CallReasonReminder, "Remind participant of scheduled appointment"},
	{CallReasonMissedAppt, "Follow-up with participant on missed appointment"},
}

// MayCallChoices lists the answers to "may we continue to contact the participant"
var MayCallChoices = []Choice{
	{Yes, "Yes, we may continue to contact the participant."},
	{No, "No, participant has asked NOT to be contacted again."},
}

// ApptGradingChoices lists appointment gradings
var ApptGradingChoices = []Choice{
	{ApptGradingFirm, "Firm appointment"},
	{ApptGradingWeak, "Possible appointment"},
	{ApptGradingGuess, "Estimated by RA"},
}

// ApptLocationChoices lists appointment locations
var ApptLocationChoices = []Choice{
	{ApptLocationHome, "At home"},
	{ApptLocationWork, "At work"},
	{ApptLocationClinic, "At clinic"},
	{ApptLocationOther, "Other location"},
}

// IsValidChoice checks if value is one of the given choices
func IsValidChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}

// ChoiceLabel returns the display text for a value, or the value itself when unknown
func ChoiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// ChoiceValue resolves input given either as a stored value or as its display text.
// Matching ignores case and surrounding space.
func ChoiceValue(choices []Choice, input string) (string, bool) {
	input = strings.TrimSpace(input)
	for _, c := range choices {
		if strings.EqualFold(c.Value, input) || strings.EqualFold(c.Label, input) {
			return c.Value, true
		}
	}
	return "", false
}
