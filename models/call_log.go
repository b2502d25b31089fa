package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// LocatorNotFound is the snapshot stored when the locator source has no record for the subject
const LocatorNotFound = "locator not found."

// Log is the single contact log of a Call. It holds the locator snapshot taken when the call
// was created and free-text contact notes; attempts are recorded as LogEntry rows.
type Log struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CallID string `gorm:"type:uuid;not null;uniqueIndex:idx_log_call_datetime,priority:1" json:"-"`
	Call   *Call  `gorm:"foreignKey:CallID" json:"-"`

	LogDatetime time.Time `gorm:"not null;uniqueIndex:idx_log_call_datetime,priority:2" json:"log_datetime"`

	LocatorInformation string `gorm:"type:text" json:"locator_information"`
	ContactNotes       string `gorm:"type:text" json:"contact_notes"`
}

// LogKey is the natural key of a Log
type LogKey struct {
	LogDatetime time.Time `json:"log_datetime"`
	CallKey
}

// BeforeCreate hook to generate UUID and stamp the log datetime
func (l *Log) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.LogDatetime.IsZero() {
		l.LogDatetime = time.Now()
	}
	l.LogDatetime = NormalizeDatetime(l.LogDatetime)
	return nil
}

// BeforeSave strips markup from the free-text fields
func (l *Log) BeforeSave(tx *gorm.DB) error {
	l.LocatorInformation = SanitizeText(l.LocatorInformation)
	l.ContactNotes = SanitizeText(l.ContactNotes)
	return nil
}

// TableName specifies the table name for Log model
func (Log) TableName() string {
	return "call_logs"
}

// NaturalKey returns the log datetime followed by the call's natural key.
// The Call relation must be loaded.
func (l *Log) NaturalKey() LogKey {
	key := LogKey{LogDatetime: NormalizeDatetime(l.LogDatetime)}
	if l.Call != nil {
		key.CallKey = l.Call.NaturalKey()
	}
	return key
}

func (l *Log) String() string {
	if l.Call == nil {
		return l.ID
	}
	return l.Call.String()
}

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText removes any markup from user supplied free text. The result stays
// HTML-escaped so that sanitizing it again returns it unchanged.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// NormalizeDatetime converts t to UTC with microsecond precision so that stored
// datetimes compare equal to the values used for natural-key lookups
func NormalizeDatetime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
