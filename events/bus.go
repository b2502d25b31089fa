package events

import (
	"sync"

	"gorm.io/gorm"
)

// Kind tells whether a record was inserted or updated
type Kind string

const (
	RecordCreated Kind = "created"
	RecordUpdated Kind = "updated"
)

// skipKey marks a gorm session whose writes must not be dispatched (imports, raw loads)
const skipKey = "call_manager:skip_dispatch"

// RecordEvent is published by the persistence layer after a record is written and before the
// surrounding transaction commits. Tx is a fresh session bound to that transaction.
type RecordEvent struct {
	Kind   Kind
	Model  string
	Record any
	Tx     *gorm.DB
}

// Handler consumes a record event. A non-nil error rolls the triggering save back.
type Handler func(ev RecordEvent) error

// Bus is a synchronous in-process publisher of record events.
// Handlers run in subscription order on the caller's goroutine.
type Bus struct {
	mu   sync.RWMutex
	subs []Handler
}

func NewBus() *Bus { return &Bus{} }

// Subscribe appends a handler
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, h)
}

// Publish delivers ev to every handler, stopping at the first error
func (b *Bus) Publish(ev RecordEvent) error {
	b.mu.RLock()
	subs := make([]Handler, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, h := range subs {
		if err := h(ev); err != nil {
			return err
		}
	}
	return nil
}

// SkipDispatch returns a reusable session whose creates and updates are not published
func SkipDispatch(tx *gorm.DB) *gorm.DB {
	return tx.Set(skipKey, true).Session(&gorm.Session{})
}

// IsSkipped reports whether tx was marked with SkipDispatch
func IsSkipped(tx *gorm.DB) bool {
	v, ok := tx.Get(skipKey)
	if !ok {
		return false
	}
	skip, _ := v.(bool)
	return skip
}
