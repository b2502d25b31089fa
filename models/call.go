package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Call status constants
const (
	CallStatusNew    = "NEW"
	CallStatusOpen   = "OPEN"
	CallStatusClosed = "CLOSED"
)

// Call tracks the follow-up of one subject for one model caller (label) on a scheduled date.
// At most one call exists per subject, label and scheduled date.
type Call struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Natural key
	SubjectIdentifier string    `gorm:"size:25;not null;uniqueIndex:idx_call_natural_key,priority:1;index:idx_call_subject_label,priority:1" json:"subject_identifier"`
	Label             string    `gorm:"size:25;not null;uniqueIndex:idx_call_natural_key,priority:2;index:idx_call_subject_label,priority:2" json:"label"`
	Scheduled         time.Time `gorm:"type:date;not null;uniqueIndex:idx_call_natural_key,priority:3" json:"scheduled"`

	Repeats bool `gorm:"not null;default:false" json:"repeats"`

	// Set from the authoritative log entry
	LastCalled *time.Time `json:"last_called,omitempty"`

	// Identity snapshot (from the consent source when configured)
	FirstName       *string    `gorm:"size:50" json:"first_name,omitempty"`
	Initials        *string    `gorm:"size:3" json:"initials,omitempty"`
	ConsentDatetime *time.Time `json:"consent_datetime,omitempty"`

	CallAttempts int    `gorm:"not null;default:0" json:"call_attempts"`
	CallOutcome  string `gorm:"type:text" json:"call_outcome"`
	CallStatus   string `gorm:"size:15;not null;default:'NEW';index" json:"call_status"`

	// True when the system, not a recorded outcome, closed the call
	AutoClosed bool `gorm:"not null;default:false" json:"auto_closed"`
}

// CallKey is the natural key of a Call
type CallKey struct {
	SubjectIdentifier string    `json:"subject_identifier"`
	Label             string    `json:"label"`
	Scheduled         time.Time `json:"scheduled"`
}

// BeforeCreate hook to generate UUID and normalize the scheduled date
func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CallStatus == "" {
		c.CallStatus = CallStatusNew
	}
	if c.Scheduled.IsZero() {
		c.Scheduled = DateOf(time.Now())
	} else {
		c.Scheduled = DateOf(c.Scheduled)
	}
	return nil
}

// TableName specifies the table name for Call model
func (Call) TableName() string {
	return "calls"
}

// NaturalKey returns (subject identifier, label, scheduled date)
func (c *Call) NaturalKey() CallKey {
	return CallKey{
		SubjectIdentifier: c.SubjectIdentifier,
		Label:             c.Label,
		Scheduled:         DateOf(c.Scheduled),
	}
}

// IsClosed reports whether the call reached its terminal status
func (c *Call) IsClosed() bool {
	return c.CallStatus == CallStatusClosed
}

// StatusDisplay returns the human readable call status
func (c *Call) StatusDisplay() string {
	switch c.CallStatus {
	case CallStatusNew:
		return "New"
	case CallStatusOpen:
		return "Open"
	case CallStatusClosed:
		return "Closed"
	default:
		return c.CallStatus
	}
}

func (c *Call) String() string {
	firstName, initials := "??", "??"
	if c.FirstName != nil && *c.FirstName != "" {
		firstName = *c.FirstName
	}
	if c.Initials != nil && *c.Initials != "" {
		initials = *c.Initials
	}
	suffix := ""
	if c.AutoClosed {
		suffix = " by system"
	}
	return fmt.Sprintf("%s %s (%s) %s%s", c.SubjectIdentifier, firstName, initials, c.StatusDisplay(), suffix)
}

// IsValidCallStatus checks if the status is valid
func IsValidCallStatus(status string) bool {
	switch status {
	case CallStatusNew, CallStatusOpen, CallStatusClosed:
		return true
	default:
		return false
	}
}

// DateOf truncates t to midnight UTC of its calendar day.
// Scheduled and appointment dates are always stored in this form so that equality
// lookups on the natural key match what was written.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc as a DateOf value
func Today(loc *time.Location) time.Time {
	return DateOf(time.Now().In(loc))
}

// All returns the call models for migration
func All() []interface{} {
	return []interface{}{&Call{}, &Log{}, &LogEntry{}}
}
