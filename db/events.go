package db

import (
	"fmt"
	"reflect"

	"call_manager_go/events"

	"gorm.io/gorm"
)

const (
	createdCallback = "call_manager:publish_created"
	updatedCallback = "call_manager:publish_updated"
)

// AttachEvents registers gorm callbacks that publish every created or updated record on bus.
// Events are published after the model's After hooks and before the transaction commits,
// so a handler error rolls the write back.
func AttachEvents(conn *gorm.DB, bus *events.Bus) error {
	err := conn.Callback().Create().
		After("gorm:after_create").
		Before("gorm:commit_or_rollback_transaction").
		Register(createdCallback, publisher(bus, events.RecordCreated))
	if err != nil {
		return fmt.Errorf("failed to register create callback: %w", err)
	}

	err = conn.Callback().Update().
		After("gorm:after_update").
		Before("gorm:commit_or_rollback_transaction").
		Register(updatedCallback, publisher(bus, events.RecordUpdated))
	if err != nil {
		return fmt.Errorf("failed to register update callback: %w", err)
	}
	return nil
}

func publisher(bus *events.Bus, kind events.Kind) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Schema == nil || events.IsSkipped(tx) {
			return
		}

		model := tx.Statement.Schema.Table
		session := tx.Session(&gorm.Session{NewDB: true})

		for _, record := range records(tx.Statement.ReflectValue) {
			ev := events.RecordEvent{Kind: kind, Model: model, Record: record, Tx: session}
			if err := bus.Publish(ev); err != nil {
				tx.AddError(err)
				return
			}
		}
	}
}

// records returns addressable pointers to the written rows
func records(v reflect.Value) []any {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, records(v.Index(i))...)
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return []any{v.Interface()}
	case reflect.Struct:
		if v.CanAddr() {
			return []any{v.Addr().Interface()}
		}
		return []any{v.Interface()}
	}
	return nil
}
