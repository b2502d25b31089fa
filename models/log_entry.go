package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Outcome phrases derived from a log entry
const (
	OutcomeApptScheduled = "Appt. scheduled"
	OutcomeAlive         = "Alive"
	OutcomeDeceased      = "Deceased"
	OutcomeDoNotCall     = "Do not call"
)

// LogEntry records one call attempt against a Log. Entries are append-only and ordered by
// CallDatetime; the most recent entry decides the status of the owning Call.
type LogEntry struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LogID string `gorm:"type:uuid;not null;uniqueIndex:idx_log_entry_call_datetime,priority:1" json:"-"`
	Log   *Log   `gorm:"foreignKey:LogID" json:"-"`

	CallReason   string    `gorm:"size:25;not null" json:"call_reason"`
	CallDatetime time.Time `gorm:"not null;uniqueIndex:idx_log_entry_call_datetime,priority:2" json:"call_datetime"`
	ContactType  string    `gorm:"size:15;not null" json:"contact_type"`

	SurvivalStatus string `gorm:"size:10;default:'alive'" json:"survival_status"`

	// When the participant is available
	TimeOfWeek *string `gorm:"size:25" json:"time_of_week,omitempty"`
	TimeOfDay  *string `gorm:"size:25" json:"time_of_day,omitempty"`

	// Appointment
	Appt                     *string    `gorm:"size:7" json:"appt,omitempty"`
	ApptReasonUnwilling      *string    `gorm:"size:25" json:"appt_reason_unwilling,omitempty"`
	ApptReasonUnwillingOther *string    `gorm:"size:50" json:"appt_reason_unwilling_other,omitempty"`
	ApptDate                 *time.Time `gorm:"type:date" json:"appt_date,omitempty"`
	ApptGrading              *string    `gorm:"size:25" json:"appt_grading,omitempty"`
	ApptLocation             *string    `gorm:"size:50" json:"appt_location,omitempty"`
	ApptLocationOther        *string    `gorm:"size:50" json:"appt_location_other,omitempty"`

	Delivered bool   `gorm:"not null;default:false" json:"delivered"`
	MayCall   string `gorm:"size:10;default:'Yes'" json:"may_call"`
}

// LogEntryKey is the natural key of a LogEntry
type LogEntryKey struct {
	CallDatetime time.Time `json:"call_datetime"`
	LogKey
}

// Validation errors returned by LogEntry.Validate
var (
	ErrApptLocationOtherRequired = errors.New("appointment location is OTHER, please specify the location")
	ErrApptDateRequired          = errors.New("participant is willing to make an appointment, please specify the appointment date")
	ErrApptGradingRequired       = errors.New("participant is willing to make an appointment, please specify if this is a firm appointment date or not")
	ErrApptLocationRequired      = errors.New("participant is willing to make an appointment, please specify the appointment location")
	ErrInvalidChoice             = errors.New("invalid choice")
)

// BeforeCreate hook to generate UUID
func (e *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave applies the field rules of a call attempt.
// A deceased participant may never be called again.
func (e *LogEntry) BeforeSave(tx *gorm.DB) error {
	e.CallDatetime = NormalizeDatetime(e.CallDatetime)
	if e.ApptDate != nil {
		d := DateOf(*e.ApptDate)
		e.ApptDate = &d
	}
	if e.SurvivalStatus == "" {
		e.SurvivalStatus = Alive
	}
	if e.MayCall == "" {
		e.MayCall = Yes
	}
	if e.SurvivalStatus == Dead {
		e.MayCall = No
	}
	return nil
}

// TableName specifies the table name for LogEntry model
func (LogEntry) TableName() string {
	return "call_log_entries"
}

// Validate checks the choice and appointment fields the way the capture form does
func (e *LogEntry) Validate() error {
	if !IsValidChoice(CallReasonChoices, e.CallReason) {
		return fmt.Errorf("%w: call reason %q", ErrInvalidChoice, e.CallReason)
	}
	if !IsValidChoice(ContactTypeChoices, e.ContactType) {
		return fmt.Errorf("%w: contact type %q", ErrInvalidChoice, e.ContactType)
	}
	if e.SurvivalStatus != "" && !IsValidChoice(SurvivalStatusChoices, e.SurvivalStatus) {
		return fmt.Errorf("%w: survival status %q", ErrInvalidChoice, e.SurvivalStatus)
	}
	if e.MayCall != "" && !IsValidChoice(MayCallChoices, e.MayCall) {
		return fmt.Errorf("%w: may call %q", ErrInvalidChoice, e.MayCall)
	}
	if value(e.ApptLocation) == ApptLocationOther && value(e.ApptLocationOther) == "" {
		return ErrApptLocationOtherRequired
	}
	if value(e.Appt) == Yes {
		if e.ApptDate == nil {
			return ErrApptDateRequired
		}
		if value(e.ApptGrading) == "" {
			return ErrApptGradingRequired
		}
		if value(e.ApptLocation) == "" {
			return ErrApptLocationRequired
		}
	}
	return nil
}

// Outcome returns the outcome phrases of this attempt
func (e *LogEntry) Outcome() []string {
	if e.SurvivalStatus == Dead {
		return []string{OutcomeDeceased}
	}

	var outcome []string
	if e.ApptDate != nil {
		outcome = append(outcome, OutcomeApptScheduled)
	}
	if e.SurvivalStatus == Alive {
		outcome = append(outcome, OutcomeAlive)
	}
	if e.MayCall == No {
		outcome = append(outcome, OutcomeDoNotCall)
	}
	return outcome
}

// OutcomeText joins the outcome phrases into a sentence list, e.g. "Appt. scheduled. Alive."
func (e *LogEntry) OutcomeText() string {
	phrases := e.Outcome()
	if len(phrases) == 0 {
		return ""
	}
	text := strings.Join(phrases, ". ")
	if !strings.HasSuffix(text, ".") {
		text += "."
	}
	return text
}

// IsDeceased reports whether the participant was reported dead
func (e *LogEntry) IsDeceased() bool {
	return e.SurvivalStatus == Dead
}

// DoNotCall reports whether further contact is forbidden
func (e *LogEntry) DoNotCall() bool {
	return e.MayCall == No || e.IsDeceased()
}

// SecuredAppointment reports whether the attempt produced an appointment after the given date
func (e *LogEntry) SecuredAppointment(after time.Time) bool {
	return e.ApptDate != nil && DateOf(*e.ApptDate).After(DateOf(after))
}

// NaturalKey returns the call datetime followed by the log's natural key.
// The Log and Log.Call relations must be loaded.
func (e *LogEntry) NaturalKey() LogEntryKey {
	key := LogEntryKey{CallDatetime: NormalizeDatetime(e.CallDatetime)}
	if e.Log != nil {
		key.LogKey = e.Log.NaturalKey()
	}
	return key
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
