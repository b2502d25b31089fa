package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"call_manager_go/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Call sheet names
const (
	SheetInstructions = "Instructions"
	SheetAttempts     = "Attempts"
)

// Attempts sheet columns
const (
	colSubject = iota
	colLabel
	colScheduled
	colCallDatetime
	colCallReason
	colContactType
	colSurvivalStatus
	colAppt
	colApptDate
	colApptGrading
	colApptLocation
	colMayCall
)

var attemptHeaders = []string{
	"Subject Identifier*", "Label*", "Scheduled*", "Call Datetime*", "Call Reason*", "Contact Type*",
	"Survival Status", "Appointment", "Appointment Date", "Appointment Grading", "Appointment Location", "May Call",
}

// ErrInvalidCallSheet is returned when a workbook has no attempts sheet
var ErrInvalidCallSheet = errors.New("invalid call sheet: missing attempts sheet")

// GenerateCallSheet builds a workbook listing the calls due on day, one row per call, for
// agents to fill in offline. Natural key columns are prefilled.
func GenerateCallSheet(db *gorm.DB, day time.Time) (*bytes.Buffer, error) {
	calls, err := ListDueCalls(db, day)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetInstructions)
	writeInstructions(f)

	if _, err := f.NewSheet(SheetAttempts); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	rows := make([][]interface{}, 0, len(calls))
	for _, c := range calls {
		rows = append(rows, []interface{}{c.SubjectIdentifier, c.Label, c.Scheduled.Format(dateLayout)})
	}
	if err := writeSheet(f, SheetAttempts, headerStyle, attemptHeaders, rows); err != nil {
		return nil, err
	}
	f.SetColWidth(SheetAttempts, "A", "L", 20)
	f.SetActiveSheet(1)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	log.Printf("[SYNC] Generated call sheet with %d due calls for %s", len(calls), day.Format(dateLayout))
	return buf, nil
}

func writeInstructions(f *excelize.File) {
	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	sectionStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})

	f.SetCellValue(SheetInstructions, "A1", "Call sheet")
	f.SetCellStyle(SheetInstructions, "A1", "A1", titleStyle)
	f.SetCellValue(SheetInstructions, "A3", "- Fill in one row per call attempt on the Attempts sheet. Columns marked * are required.")
	f.SetCellValue(SheetInstructions, "A4", "- Rows without a call datetime are ignored.")
	f.SetCellValue(SheetInstructions, "A5", "- Dates are YYYY-MM-DD, call datetimes YYYY-MM-DD HH:MM.")
	f.SetCellValue(SheetInstructions, "A6", "- Choices may be given as the code or the text below.")

	row := 8
	sections := []struct {
		title   string
		choices []models.Choice
	}{
		{"Call Reason", models.CallReasonChoices},
		{"Contact Type", models.ContactTypeChoices},
		{"Survival Status", models.SurvivalStatusChoices},
		{"Appointment Grading", models.ApptGradingChoices},
		{"Appointment Location", models.ApptLocationChoices},
		{"May Call", models.MayCallChoices},
	}
	for _, s := range sections {
		cell := fmt.Sprintf("A%d", row)
		f.SetCellValue(SheetInstructions, cell, s.title)
		f.SetCellStyle(SheetInstructions, cell, cell, sectionStyle)
		row++
		for _, c := range s.choices {
			f.SetCellValue(SheetInstructions, fmt.Sprintf("A%d", row), c.Value)
			f.SetCellValue(SheetInstructions, fmt.Sprintf("B%d", row), c.Label)
			row++
		}
		row++
	}
	f.SetColWidth(SheetInstructions, "A", "A", 30)
	f.SetColWidth(SheetInstructions, "B", "B", 60)
}

// AnalyzeCallSheet returns the number of filled-in attempt rows
func AnalyzeCallSheet(file io.Reader) (int, error) {
	rows, err := readAttemptRows(file)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, row := range rows {
		if i == 0 {
			continue
		} // Header
		if cellAt(row, colSubject) != "" && cellAt(row, colCallDatetime) != "" {
			total++
		}
	}
	return total, nil
}

// ImportCallSheet records every filled-in attempt row as a log entry of its call. Rows are
// independent: a failing row is reported and the rest are still recorded.
func ImportCallSheet(db *gorm.DB, file io.Reader, loc *time.Location) (*ImportResult, error) {
	rows, err := readAttemptRows(file)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	fail := func(row int, err error) {
		result.FailedCount++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row, err))
	}

	for i, row := range rows {
		if i == 0 {
			continue
		} // Header
		if cellAt(row, colSubject) == "" || cellAt(row, colCallDatetime) == "" {
			continue
		}
		result.TotalProcessed++

		key, entry, err := parseAttemptRow(row, loc)
		if err != nil {
			fail(i+1, err)
			continue
		}

		call, err := GetCallByNaturalKey(db, key)
		if err != nil {
			fail(i+1, fmt.Errorf("call %s/%s/%s: %w", key.SubjectIdentifier, key.Label, key.Scheduled.Format(dateLayout), err))
			continue
		}
		callLog, err := GetCallLog(db, call.ID)
		if err != nil {
			fail(i+1, err)
			continue
		}
		entry.LogID = callLog.ID

		var existing int64
		db.Model(&models.LogEntry{}).
			Where("log_id = ? AND call_datetime = ?", callLog.ID, models.NormalizeDatetime(entry.CallDatetime)).
			Count(&existing)
		if existing > 0 {
			fail(i+1, fmt.Errorf("attempt at %s already recorded", cellAt(row, colCallDatetime)))
			continue
		}

		if err := RecordLogEntry(db, entry); err != nil {
			fail(i+1, err)
			continue
		}
		result.CreatedCount++
	}

	log.Printf("[SYNC] Call sheet: %d attempts, %d recorded, %d failed",
		result.TotalProcessed, result.CreatedCount, result.FailedCount)
	return result, nil
}

func readAttemptRows(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(SheetAttempts); err != nil || idx < 0 {
		return nil, ErrInvalidCallSheet
	}

	rows, err := f.GetRows(SheetAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts sheet: %w", err)
	}
	return rows, nil
}

func parseAttemptRow(row []string, loc *time.Location) (models.CallKey, *models.LogEntry, error) {
	key := models.CallKey{
		SubjectIdentifier: cellAt(row, colSubject),
		Label:             cellAt(row, colLabel),
	}
	if key.Label == "" {
		return key, nil, errors.New("label is required")
	}

	scheduled, err := ParseDate(cellAt(row, colScheduled))
	if err != nil {
		return key, nil, fmt.Errorf("scheduled: %w", err)
	}
	key.Scheduled = scheduled

	callDatetime, err := ParseDatetime(cellAt(row, colCallDatetime), loc)
	if err != nil {
		return key, nil, fmt.Errorf("call datetime: %w", err)
	}

	entry := &models.LogEntry{CallDatetime: callDatetime}

	required := []struct {
		col     int
		name    string
		choices []models.Choice
		dest    *string
	}{
		{colCallReason, "call reason", models.CallReasonChoices, &entry.CallReason},
		{colContactType, "contact type", models.ContactTypeChoices, &entry.ContactType},
	}
	for _, r := range required {
		value, ok := models.ChoiceValue(r.choices, cellAt(row, r.col))
		if !ok {
			return key, nil, fmt.Errorf("%w: %s %q", models.ErrInvalidChoice, r.name, cellAt(row, r.col))
		}
		*r.dest = value
	}

	optional := []struct {
		col     int
		name    string
		choices []models.Choice
		dest    *string
	}{
		{colSurvivalStatus, "survival status", models.SurvivalStatusChoices, &entry.SurvivalStatus},
		{colMayCall, "may call", models.MayCallChoices, &entry.MayCall},
	}
	for _, o := range optional {
		if cellAt(row, o.col) == "" {
			continue
		}
		value, ok := models.ChoiceValue(o.choices, cellAt(row, o.col))
		if !ok {
			return key, nil, fmt.Errorf("%w: %s %q", models.ErrInvalidChoice, o.name, cellAt(row, o.col))
		}
		*o.dest = value
	}

	if appt := cellAt(row, colAppt); appt != "" {
		value, ok := models.ChoiceValue(models.MayCallChoices, appt)
		if !ok {
			return key, nil, fmt.Errorf("%w: appointment %q", models.ErrInvalidChoice, appt)
		}
		entry.Appt = &value
	}
	if s := cellAt(row, colApptDate); s != "" {
		apptDate, err := ParseDate(s)
		if err != nil {
			return key, nil, fmt.Errorf("appointment date: %w", err)
		}
		entry.ApptDate = &apptDate
	}
	if s := cellAt(row, colApptGrading); s != "" {
		value, ok := models.ChoiceValue(models.ApptGradingChoices, s)
		if !ok {
			return key, nil, fmt.Errorf("%w: appointment grading %q", models.ErrInvalidChoice, s)
		}
		entry.ApptGrading = &value
	}
	if s := cellAt(row, colApptLocation); s != "" {
		if value, ok := models.ChoiceValue(models.ApptLocationChoices, s); ok {
			entry.ApptLocation = &value
		} else {
			other := models.ApptLocationOther
			entry.ApptLocation = &other
			entry.ApptLocationOther = models.StringPtr(s)
		}
	}
	return key, entry, nil
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
