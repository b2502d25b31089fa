package services

import (
	"errors"
	"fmt"
	"time"

	"call_manager_go/models"

	"gorm.io/gorm"
)

var (
	// ErrCallNotFound is returned when a call lookup has no match
	ErrCallNotFound = errors.New("call not found")
	// ErrCallClosed is returned when an outcome is recorded against a closed call
	ErrCallClosed = errors.New("call is closed, no further outcomes may be recorded")
	// ErrInvalidCallStatus is returned when a filter names an unknown status
	ErrInvalidCallStatus = errors.New("invalid call status")
)

// CallFilter narrows ListCalls
type CallFilter struct {
	Label               string
	SubjectIdentifier   string
	Statuses            []string
	ScheduledOnOrBefore *time.Time
}

// GetCallByID retrieves a call by its ID
func GetCallByID(db *gorm.DB, id string) (*models.Call, error) {
	var call models.Call
	if err := db.First(&call, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// GetCallByNaturalKey retrieves a call by subject, label and scheduled date
func GetCallByNaturalKey(db *gorm.DB, key models.CallKey) (*models.Call, error) {
	var call models.Call
	err := db.Where("subject_identifier = ? AND label = ? AND scheduled = ?",
		key.SubjectIdentifier, key.Label, models.DateOf(key.Scheduled)).
		First(&call).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// ListCalls returns calls matching filter ordered by scheduled date
func ListCalls(db *gorm.DB, filter CallFilter) ([]models.Call, error) {
	query := db.Model(&models.Call{})
	if filter.Label != "" {
		query = query.Where("label = ?", filter.Label)
	}
	if filter.SubjectIdentifier != "" {
		query = query.Where("subject_identifier = ?", filter.SubjectIdentifier)
	}
	for _, status := range filter.Statuses {
		if !models.IsValidCallStatus(status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCallStatus, status)
		}
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("call_status IN ?", filter.Statuses)
	}
	if filter.ScheduledOnOrBefore != nil {
		query = query.Where("scheduled <= ?", models.DateOf(*filter.ScheduledOnOrBefore))
	}

	var calls []models.Call
	if err := query.Order("scheduled, subject_identifier").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	return calls, nil
}

// ListDueCalls returns the calls that are not closed and scheduled on or before day
func ListDueCalls(db *gorm.DB, day time.Time) ([]models.Call, error) {
	return ListCalls(db, CallFilter{
		Statuses:            []string{models.CallStatusNew, models.CallStatusOpen},
		ScheduledOnOrBefore: &day,
	})
}

// GetCallLog retrieves the log of a call
func GetCallLog(db *gorm.DB, callID string) (*models.Log, error) {
	var callLog models.Log
	if err := db.Preload("Call").Where("call_id = ?", callID).First(&callLog).Error; err != nil {
		return nil, fmt.Errorf("failed to get call log: %w", err)
	}
	return &callLog, nil
}

// ListLogEntries returns the entries of a log in call order
func ListLogEntries(db *gorm.DB, logID string) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	if err := db.Where("log_id = ?", logID).Order("call_datetime").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	return entries, nil
}

// RecordLogEntry validates and saves a call attempt. Saving publishes the entry so the
// owning call is updated in the same transaction.
func RecordLogEntry(db *gorm.DB, entry *models.LogEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	callLog, err := getLogByID(db, entry.LogID)
	if err != nil {
		return err
	}
	if callLog.Call != nil && callLog.Call.IsClosed() {
		return ErrCallClosed
	}

	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record log entry: %w", err)
	}
	return nil
}

// UpdateContactNotes replaces the free-text notes of a log
func UpdateContactNotes(db *gorm.DB, logID string, notes string) error {
	callLog, err := getLogByID(db, logID)
	if err != nil {
		return err
	}
	callLog.ContactNotes = notes
	if err := db.Model(callLog).Select("contact_notes").Updates(callLog).Error; err != nil {
		return fmt.Errorf("failed to update contact notes: %w", err)
	}
	return nil
}

func getLogByID(db *gorm.DB, logID string) (*models.Log, error) {
	var callLog models.Log
	if err := db.Preload("Call").First(&callLog, "id = ?", logID).Error; err != nil {
		return nil, fmt.Errorf("failed to get call log: %w", err)
	}
	return &callLog, nil
}
