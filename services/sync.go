package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"call_manager_go/events"
	"call_manager_go/models"

	"gorm.io/gorm"
)

// Bundle is a portable export of calls, logs and log entries keyed on natural keys.
// Surrogate IDs are never exported.
type Bundle struct {
	ExportedAt time.Time          `json:"exported_at"`
	Calls      []models.Call      `json:"calls"`
	Logs       []LogDocument      `json:"logs"`
	LogEntries []LogEntryDocument `json:"log_entries"`
}

// LogDocument is a log with the natural key of its call
type LogDocument struct {
	CallKey models.CallKey `json:"call"`
	models.Log
}

// LogEntryDocument is a log entry with the natural key of its log
type LogEntryDocument struct {
	LogKey models.LogKey `json:"log"`
	models.LogEntry
}

// ImportResult contains the summary of the import process
type ImportResult struct {
	TotalProcessed int
	CreatedCount   int
	UpdatedCount   int
	FailedCount    int
	Errors         []string
}

// ExportCalls exports the calls of label (every label when empty) with their logs and entries
func ExportCalls(db *gorm.DB, label string) (*Bundle, error) {
	bundle := &Bundle{ExportedAt: time.Now().UTC()}

	query := db.Order("label, subject_identifier, scheduled")
	if label != "" {
		query = query.Where("label = ?", label)
	}
	if err := query.Find(&bundle.Calls).Error; err != nil {
		return nil, fmt.Errorf("failed to export calls: %w", err)
	}
	if len(bundle.Calls) == 0 {
		return bundle, nil
	}

	callIDs := make([]string, len(bundle.Calls))
	for i, call := range bundle.Calls {
		callIDs[i] = call.ID
	}

	var logs []models.Log
	if err := db.Preload("Call").Where("call_id IN ?", callIDs).Order("log_datetime").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to export call logs: %w", err)
	}
	logIDs := make([]string, len(logs))
	for i, callLog := range logs {
		logIDs[i] = callLog.ID
		bundle.Logs = append(bundle.Logs, LogDocument{CallKey: callLog.Call.NaturalKey(), Log: callLog})
	}

	if len(logIDs) > 0 {
		var entries []models.LogEntry
		err := db.Preload("Log.Call").Where("log_id IN ?", logIDs).Order("call_datetime").Find(&entries).Error
		if err != nil {
			return nil, fmt.Errorf("failed to export log entries: %w", err)
		}
		for _, entry := range entries {
			bundle.LogEntries = append(bundle.LogEntries, LogEntryDocument{LogKey: entry.Log.NaturalKey(), LogEntry: entry})
		}
	}

	log.Printf("[SYNC] Exported %d calls, %d logs, %d log entries", len(bundle.Calls), len(bundle.Logs), len(bundle.LogEntries))
	return bundle, nil
}

// ImportCalls upserts a bundle by natural key in one transaction. Existing rows are updated,
// never duplicated. Imported rows are written without scheduling side effects.
func ImportCalls(db *gorm.DB, bundle *Bundle) (*ImportResult, error) {
	result := &ImportResult{}

	err := db.Transaction(func(tx *gorm.DB) error {
		raw := events.SkipDispatch(tx)

		for i := range bundle.Calls {
			result.TotalProcessed++
			created, err := importCall(raw, bundle.Calls[i])
			if err != nil {
				return err
			}
			result.count(created)
		}

		for i, doc := range bundle.Logs {
			result.TotalProcessed++
			created, err := importLog(raw, doc)
			if errors.Is(err, ErrCallNotFound) {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("Log %d: call %s/%s/%s not found", i+1,
					doc.CallKey.SubjectIdentifier, doc.CallKey.Label, doc.CallKey.Scheduled.Format("2006-01-02")))
				continue
			}
			if err != nil {
				return err
			}
			result.count(created)
		}

		for i, doc := range bundle.LogEntries {
			result.TotalProcessed++
			created, err := importLogEntry(raw, doc)
			if errors.Is(err, errLogNotFound) || errors.Is(err, ErrCallNotFound) {
				result.FailedCount++
				result.Errors = append(result.Errors, fmt.Sprintf("Log entry %d: log of %s/%s not found", i+1,
					doc.LogKey.SubjectIdentifier, doc.LogKey.Label))
				continue
			}
			if err != nil {
				return err
			}
			result.count(created)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import calls: %w", err)
	}

	log.Printf("[SYNC] Imported %d records: %d created, %d updated, %d failed",
		result.TotalProcessed, result.CreatedCount, result.UpdatedCount, result.FailedCount)
	return result, nil
}

func (r *ImportResult) count(created bool) {
	if created {
		r.CreatedCount++
	} else {
		r.UpdatedCount++
	}
}

var errLogNotFound = errors.New("call log not found")

func importCall(tx *gorm.DB, doc models.Call) (bool, error) {
	doc.Scheduled = models.DateOf(doc.Scheduled)
	existing, err := GetCallByNaturalKey(tx, doc.NaturalKey())
	if errors.Is(err, ErrCallNotFound) {
		doc.ID = ""
		if err := tx.Create(&doc).Error; err != nil {
			return false, fmt.Errorf("failed to create call: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	doc.ID = existing.ID
	doc.CreatedAt = existing.CreatedAt
	if err := tx.Save(&doc).Error; err != nil {
		return false, fmt.Errorf("failed to update call: %w", err)
	}
	return false, nil
}

// findLog returns the log of the call at key. A call has exactly one log, so a log with a
// different datetime is still the one to update.
func findLog(tx *gorm.DB, key models.LogKey) (*models.Log, *models.Call, error) {
	call, err := GetCallByNaturalKey(tx, key.CallKey)
	if err != nil {
		return nil, nil, err
	}

	var callLog models.Log
	err = tx.Where("call_id = ? AND log_datetime = ?", call.ID, models.NormalizeDatetime(key.LogDatetime)).First(&callLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = tx.Where("call_id = ?", call.ID).First(&callLog).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, call, errLogNotFound
	}
	if err != nil {
		return nil, call, fmt.Errorf("failed to get call log: %w", err)
	}
	return &callLog, call, nil
}

func importLog(tx *gorm.DB, doc LogDocument) (bool, error) {
	incoming := doc.Log
	incoming.Call = nil
	incoming.LogDatetime = models.NormalizeDatetime(incoming.LogDatetime)

	existing, call, err := findLog(tx, models.LogKey{LogDatetime: incoming.LogDatetime, CallKey: doc.CallKey})
	if errors.Is(err, errLogNotFound) {
		incoming.ID = ""
		incoming.CallID = call.ID
		if err := tx.Create(&incoming).Error; err != nil {
			return false, fmt.Errorf("failed to create call log: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, err
	}

	incoming.ID = existing.ID
	incoming.CallID = existing.CallID
	incoming.CreatedAt = existing.CreatedAt
	if err := tx.Save(&incoming).Error; err != nil {
		return false, fmt.Errorf("failed to update call log: %w", err)
	}
	return false, nil
}

func importLogEntry(tx *gorm.DB, doc LogEntryDocument) (bool, error) {
	incoming := doc.LogEntry
	incoming.Log = nil
	incoming.CallDatetime = models.NormalizeDatetime(incoming.CallDatetime)

	callLog, _, err := findLog(tx, doc.LogKey)
	if err != nil {
		return false, err
	}

	var existing models.LogEntry
	err = tx.Where("log_id = ? AND call_datetime = ?", callLog.ID, incoming.CallDatetime).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		incoming.ID = ""
		incoming.LogID = callLog.ID
		if err := tx.Create(&incoming).Error; err != nil {
			return false, fmt.Errorf("failed to create log entry: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get log entry: %w", err)
	}

	incoming.ID = existing.ID
	incoming.LogID = existing.LogID
	incoming.CreatedAt = existing.CreatedAt
	if err := tx.Save(&incoming).Error; err != nil {
		return false, fmt.Errorf("failed to update log entry: %w", err)
	}
	return false, nil
}

// WriteBundle encodes bundle as indented JSON
func WriteBundle(w io.Writer, bundle *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return nil
}

// ReadBundle decodes a JSON bundle
func ReadBundle(r io.Reader) (*Bundle, error) {
	var bundle Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &bundle, nil
}
