package callers

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"call_manager_go/events"
	"call_manager_go/models"

	"gorm.io/gorm"
)

// CallerSite maps trigger models to their model callers and dispatches record events to them.
// It is built once at startup and read-only afterwards.
type CallerSite struct {
	mu          sync.RWMutex
	startModels map[string]*ModelCaller
	stopModels  map[string][]string
	labels      map[string]*ModelCaller
	location    *time.Location
}

func NewCallerSite() *CallerSite {
	s := &CallerSite{}
	s.Reset()
	return s
}

// SetLocation sets the zone used by callers registered from now on whose config has none
func (s *CallerSite) SetLocation(loc *time.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// Reset clears every registration
func (s *CallerSite) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startModels = make(map[string]*ModelCaller)
	s.stopModels = make(map[string][]string)
	s.labels = make(map[string]*ModelCaller)
}

// Register builds a model caller from cfg and adds it to the site.
// A failed registration leaves the site unchanged.
func (s *CallerSite) Register(cfg Config, start Trigger, stop Trigger) (*ModelCaller, error) {
	if cfg.Location == nil {
		s.mu.RLock()
		cfg.Location = s.location
		s.mu.RUnlock()
	}
	mc, err := NewModelCaller(cfg, start, stop)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	model := start.TableName()
	if _, ok := s.startModels[model]; ok {
		return nil, fmt.Errorf("%w: start model %s", ErrAlreadyRegistered, model)
	}
	if other, ok := s.labels[mc.Label()]; ok {
		return nil, fmt.Errorf("%w: label %s is used by %s", ErrAlreadyRegistered, mc.Label(), other.StartModel().TableName())
	}

	s.startModels[model] = mc
	s.labels[mc.Label()] = mc
	if stop != nil {
		s.stopModels[stop.TableName()] = append(s.stopModels[stop.TableName()], model)
	}

	log.Printf("[CALLERS] Registered model caller %s for %s", mc.Label(), model)
	return mc, nil
}

// Get returns the model caller for a start model name or a label, nil when there is none
func (s *CallerSite) Get(key string) *ModelCaller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if mc, ok := s.startModels[key]; ok {
		return mc
	}
	return s.labels[key]
}

// Models lists the registered start models
func (s *CallerSite) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.startModels))
	for name := range s.startModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Labels lists the registered labels
func (s *CallerSite) Labels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	labels := make([]string, 0, len(s.labels))
	for label := range s.labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// stopCallers returns the policies stopped by model, in registration order
func (s *CallerSite) stopCallers(model string) []*ModelCaller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*ModelCaller
	for _, start := range s.stopModels[model] {
		if mc, ok := s.startModels[start]; ok {
			out = append(out, mc)
		}
	}
	return out
}

// DispatchStart schedules a call when model is a registered start model.
// Returns a nil call for any other model.
func (s *CallerSite) DispatchStart(tx *gorm.DB, model string, record Trigger) (*models.Call, error) {
	s.mu.RLock()
	mc, ok := s.startModels[model]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return mc.ScheduleCall(tx, record, nil)
}

// DispatchStop closes the open calls of every policy stopped by model
func (s *CallerSite) DispatchStop(tx *gorm.DB, model string, record Trigger) error {
	for _, mc := range s.stopCallers(model) {
		subjectIdentifier, err := mc.SubjectIdentifier(record)
		if err != nil {
			return err
		}
		if _, err := mc.UnscheduleCall(tx, subjectIdentifier); err != nil {
			return err
		}
	}
	return nil
}

// DispatchLogUpdate applies entry to call through the policy owning the call's label
func (s *CallerSite) DispatchLogUpdate(tx *gorm.DB, call *models.Call, entry *models.LogEntry) error {
	mc := s.Get(call.Label)
	if mc == nil {
		log.Printf("[WARNING] No model caller registered for label %s, call %s not updated", call.Label, call.ID)
		return nil
	}
	return mc.UpdateCallFromLog(tx, call, entry)
}

// Subscribe attaches the site to record events published by the persistence layer
func (s *CallerSite) Subscribe(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent)
}

// HandleEvent routes a record event: created trigger records start and stop calls,
// created or updated log entries update their call. Anything else is ignored.
func (s *CallerSite) HandleEvent(ev events.RecordEvent) error {
	switch record := ev.Record.(type) {
	case *models.LogEntry:
		return s.handleLogEntry(ev.Tx, record)
	case *models.Call, *models.Log:
		return nil
	case Trigger:
		if ev.Kind != events.RecordCreated {
			return nil
		}
		if _, err := s.DispatchStart(ev.Tx, ev.Model, record); err != nil {
			return err
		}
		return s.DispatchStop(ev.Tx, ev.Model, record)
	}
	return nil
}

func (s *CallerSite) handleLogEntry(tx *gorm.DB, entry *models.LogEntry) error {
	if entry.ID == "" || entry.LogID == "" {
		return nil
	}

	var callLog models.Log
	err := tx.Preload("Call").First(&callLog, "id = ?", entry.LogID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && callLog.Call == nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get call log: %w", err)
	}
	return s.DispatchLogUpdate(tx, callLog.Call, entry)
}
