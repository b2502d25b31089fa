package services

import (
	"errors"
	"fmt"
	"log"
	"reflect"

	"call_manager_go/callers"
	"call_manager_go/models"

	"gorm.io/gorm"
)

// ScheduleResult summarises a schedule-missing-calls run
type ScheduleResult struct {
	Model          string
	Label          string
	TotalProcessed int
	ScheduledCount int
	SkippedCount   int
	Errors         []string
}

// ErrModelNotRegistered is returned when no model caller handles the requested model
var ErrModelNotRegistered = errors.New("no model caller registered for model")

// ScheduleMissingCalls schedules a call for every record of a start model whose subject has
// no call for the model caller's label yet. Subjects without consent are reported in the
// result and skipped; any other failure stops the run.
func ScheduleMissingCalls(db *gorm.DB, site *callers.CallerSite, model string) (*ScheduleResult, error) {
	mc := site.Get(model)
	if mc == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	result := &ScheduleResult{
		Model: mc.StartModel().TableName(),
		Label: mc.Label(),
	}

	records, err := loadTriggers(db, mc.StartModel())
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		result.TotalProcessed++

		subjectIdentifier, err := mc.SubjectIdentifier(record)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Record %d: %v", result.TotalProcessed, err))
			continue
		}

		var count int64
		err = db.Model(&models.Call{}).
			Where("subject_identifier = ? AND label = ?", subjectIdentifier, mc.Label()).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count calls: %w", err)
		}
		if count > 0 {
			result.SkippedCount++
			continue
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			_, err := mc.ScheduleCall(tx, record, nil)
			return err
		})
		if errors.Is(err, callers.ErrConsentRequired) {
			result.Errors = append(result.Errors, fmt.Sprintf("Subject %s: %v", subjectIdentifier, err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to schedule call for %s: %w", subjectIdentifier, err)
		}
		result.ScheduledCount++
	}

	log.Printf("[CALLERS] %s: %d records, %d calls scheduled, %d already scheduled, %d errors",
		result.Label, result.TotalProcessed, result.ScheduledCount, result.SkippedCount, len(result.Errors))
	return result, nil
}

// loadTriggers reads every row of the prototype's table as trigger records
func loadTriggers(db *gorm.DB, prototype callers.Trigger) ([]callers.Trigger, error) {
	typ := reflect.TypeOf(prototype)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	rows := reflect.New(reflect.SliceOf(typ))
	if err := db.Find(rows.Interface()).Error; err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", prototype.TableName(), err)
	}

	slice := rows.Elem()
	records := make([]callers.Trigger, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		record, ok := slice.Index(i).Addr().Interface().(callers.Trigger)
		if !ok {
			return nil, fmt.Errorf("%s records are not triggers", prototype.TableName())
		}
		records = append(records, record)
	}
	return records, nil
}
