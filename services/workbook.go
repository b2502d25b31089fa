package services

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"call_manager_go/models"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetCalls      = "Calls"
	SheetLogs       = "Logs"
	SheetLogEntries = "Log Entries"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// ExportWorkbook renders a bundle as an Excel workbook with one sheet per entity.
// Rows are identified by natural key columns.
func ExportWorkbook(bundle *Bundle) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetCalls)
	if _, err := f.NewSheet(SheetLogs); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetLogEntries); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})

	callRows := make([][]interface{}, 0, len(bundle.Calls))
	for _, c := range bundle.Calls {
		callRows = append(callRows, []interface{}{
			c.SubjectIdentifier, c.Label, c.Scheduled.Format(dateLayout),
			c.StatusDisplay(), c.CallAttempts, c.CallOutcome, formatOptionalTime(c.LastCalled, datetimeLayout),
			yesNo(c.Repeats), yesNo(c.AutoClosed), optional(c.FirstName), optional(c.Initials),
		})
	}
	err := writeSheet(f, SheetCalls, headerStyle, []string{
		"Subject Identifier", "Label", "Scheduled", "Status", "Attempts", "Outcome", "Last Called",
		"Repeats", "Closed By System", "First Name", "Initials",
	}, callRows)
	if err != nil {
		return nil, err
	}

	logRows := make([][]interface{}, 0, len(bundle.Logs))
	for _, l := range bundle.Logs {
		logRows = append(logRows, []interface{}{
			l.CallKey.SubjectIdentifier, l.CallKey.Label, l.CallKey.Scheduled.Format(dateLayout),
			l.LogDatetime.Format(datetimeLayout), html.UnescapeString(l.LocatorInformation), html.UnescapeString(l.ContactNotes),
		})
	}
	err = writeSheet(f, SheetLogs, headerStyle, []string{
		"Subject Identifier", "Label", "Scheduled", "Log Datetime", "Locator Information", "Contact Notes",
	}, logRows)
	if err != nil {
		return nil, err
	}

	entryRows := make([][]interface{}, 0, len(bundle.LogEntries))
	for _, e := range bundle.LogEntries {
		entryRows = append(entryRows, []interface{}{
			e.LogKey.SubjectIdentifier, e.LogKey.Label, e.LogKey.Scheduled.Format(dateLayout),
			e.CallDatetime.Format(datetimeLayout),
			models.ChoiceLabel(models.CallReasonChoices, e.CallReason),
			models.ChoiceLabel(models.ContactTypeChoices, e.ContactType),
			models.ChoiceLabel(models.SurvivalStatusChoices, e.SurvivalStatus),
			optional(e.Appt), formatOptionalTime(e.ApptDate, dateLayout),
			e.MayCall, e.OutcomeText(),
		})
	}
	err = writeSheet(f, SheetLogEntries, headerStyle, []string{
		"Subject Identifier", "Label", "Scheduled", "Call Datetime", "Call Reason", "Contact Type",
		"Survival Status", "Appointment", "Appointment Date", "May Call", "Outcome",
	}, entryRows)
	if err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, headers []string, rows [][]interface{}) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, first, last, headerStyle)

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+2, err)
		}
	}
	return nil
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOptionalTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func yesNo(b bool) string {
	if b {
		return models.Yes
	}
	return models.No
}
