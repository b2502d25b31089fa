package services

import (
	"errors"
	"fmt"
	"log"

	"call_manager_go/callers"
	"call_manager_go/events"
	"call_manager_go/models"

	"gorm.io/gorm"
)

// RefreshLocatorSnapshot overwrites the locator snapshot on the logs of every call of a subject.
// Snapshots are otherwise frozen when the call is created.
func RefreshLocatorSnapshot(db *gorm.DB, subjectIdentifier string, locator string) (int64, error) {
	calls := db.Model(&models.Call{}).Select("id").Where("subject_identifier = ?", subjectIdentifier)

	result := db.Model(&models.Log{}).
		Where("call_id IN (?)", calls).
		Update("locator_information", models.SanitizeText(locator))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to refresh locator snapshot: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// subjectRecord is any saved record that belongs to a subject
type subjectRecord interface {
	GetSubjectIdentifier() string
}

// RefreshLocatorOnSave returns a bus handler that refreshes the snapshots of a subject
// whenever a record of model is created or updated
func RefreshLocatorOnSave(model string, source callers.LocatorSource) events.Handler {
	return func(ev events.RecordEvent) error {
		if ev.Model != model {
			return nil
		}
		record, ok := ev.Record.(subjectRecord)
		if !ok || record.GetSubjectIdentifier() == "" {
			return nil
		}

		subjectIdentifier := record.GetSubjectIdentifier()
		locator, err := source.Locator(ev.Tx, subjectIdentifier)
		if errors.Is(err, callers.ErrSubjectNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		updated, err := RefreshLocatorSnapshot(ev.Tx, subjectIdentifier, locator)
		if err != nil {
			return err
		}
		if updated > 0 {
			log.Printf("[CALLERS] Refreshed locator snapshot on %d logs of %s", updated, subjectIdentifier)
		}
		return nil
	}
}
