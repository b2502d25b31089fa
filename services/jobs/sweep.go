package jobs

import (
	"fmt"
	"log"
	"strings"

	"call_manager_go/callers"
	"call_manager_go/config"
	"call_manager_go/models"
	"call_manager_go/services"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartScheduler runs the missing-call sweep and the due-calls report on cfg.SweepSchedule.
// It returns nil when the schedule is "off".
func StartScheduler(database *gorm.DB, site *callers.CallerSite, cfg *config.Config) (*cron.Cron, error) {
	if strings.EqualFold(cfg.SweepSchedule, "off") {
		log.Println("[CRON] Sweep disabled")
		return nil, nil
	}

	loc := cfg.Location()
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(cfg.SweepSchedule, func() {
		log.Println("[CRON] Running missing-call sweep...")
		SweepMissingCalls(database, site)
		if _, err := ReportDueCalls(database, models.Today(loc)); err != nil {
			log.Printf("[CRON] Error reporting due calls: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSchedule, err)
	}

	c.Start()
	log.Printf("[CRON] Scheduler started (%s, %s)", cfg.SweepSchedule, loc)
	return c, nil
}

// SweepMissingCalls schedules the calls missed by every registered start model.
// A failing model is logged and the sweep moves on.
func SweepMissingCalls(database *gorm.DB, site *callers.CallerSite) []*services.ScheduleResult {
	startModels := site.Models()
	log.Printf("[JOB] Sweeping %d start models for missing calls", len(startModels))

	var results []*services.ScheduleResult
	for _, model := range startModels {
		result, err := services.ScheduleMissingCalls(database, site, model)
		if err != nil {
			log.Printf("[JOB] Error sweeping %s: %v", model, err)
			continue
		}
		for _, msg := range result.Errors {
			log.Printf("[JOB] %s: %s", result.Label, msg)
		}
		results = append(results, result)
	}

	log.Println("[JOB] Missing-call sweep completed")
	return results
}
