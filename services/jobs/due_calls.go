package jobs

import (
	"log"
	"sort"
	"time"

	"call_manager_go/services"

	"gorm.io/gorm"
)

// DueCallsReport counts the calls waiting to be made on a day
type DueCallsReport struct {
	Day     time.Time
	Total   int
	ByLabel map[string]int
	// Overdue calls were scheduled before Day
	Overdue int
}

// Labels returns the report labels in name order
func (r *DueCallsReport) Labels() []string {
	labels := make([]string, 0, len(r.ByLabel))
	for label := range r.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// ReportDueCalls logs how many calls are due on day per label
func ReportDueCalls(database *gorm.DB, day time.Time) (*DueCallsReport, error) {
	calls, err := services.ListDueCalls(database, day)
	if err != nil {
		return nil, err
	}

	report := &DueCallsReport{Day: day, ByLabel: make(map[string]int)}
	for _, call := range calls {
		report.Total++
		report.ByLabel[call.Label]++
		if call.Scheduled.Before(day) {
			report.Overdue++
		}
	}

	log.Printf("[JOB] %d calls due on %s (%d overdue)", report.Total, day.Format("2006-01-02"), report.Overdue)
	for _, label := range report.Labels() {
		log.Printf("[JOB]   %s: %d", label, report.ByLabel[label])
	}
	return report, nil
}
