package callers

import (
	"fmt"
	"log"
)

// App is an installed application. ModelCallers, when set, registers the app's model callers.
type App struct {
	Name         string
	ModelCallers func(site *CallerSite) error
}

// Autodiscover runs the registration hook of every app in order. Apps without a hook are
// skipped. When a hook fails the site is restored to its state before that hook and the
// error is returned.
func (s *CallerSite) Autodiscover(apps []App) error {
	for _, app := range apps {
		if app.ModelCallers == nil {
			continue
		}

		before := s.snapshot()
		if err := app.ModelCallers(s); err != nil {
			s.restore(before)
			return fmt.Errorf("failed to register model callers of %s: %w", app.Name, err)
		}
		log.Printf("[CALLERS] Loaded model callers from %s", app.Name)
	}
	return nil
}

type siteSnapshot struct {
	startModels map[string]*ModelCaller
	stopModels  map[string][]string
	labels      map[string]*ModelCaller
}

func (s *CallerSite) snapshot() siteSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := siteSnapshot{
		startModels: make(map[string]*ModelCaller, len(s.startModels)),
		stopModels:  make(map[string][]string, len(s.stopModels)),
		labels:      make(map[string]*ModelCaller, len(s.labels)),
	}
	for k, v := range s.startModels {
		snap.startModels[k] = v
	}
	for k, v := range s.stopModels {
		snap.stopModels[k] = append([]string(nil), v...)
	}
	for k, v := range s.labels {
		snap.labels[k] = v
	}
	return snap
}

func (s *CallerSite) restore(snap siteSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startModels = snap.startModels
	s.stopModels = snap.stopModels
	s.labels = snap.labels
}
