package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEntryBeforeSave(t *testing.T) {
	db := setupModelsTestDB(t)
	call := &Call{SubjectIdentifier: "S-001", Label: "follow-up"}
	require.NoError(t, db.Create(call).Error)
	callLog := &Log{CallID: call.ID}
	require.NoError(t, db.Create(callLog).Error)

	t.Run("defaults", func(t *testing.T) {
		entry := &LogEntry{
			LogID:        callLog.ID,
			CallReason:   CallReasonScheduleAppt,
			CallDatetime: time.Now(),
			ContactType:  ContactDirect,
		}
		require.NoError(t, db.Create(entry).Error)
		assert.Equal(t, Alive, entry.SurvivalStatus)
		assert.Equal(t, Yes, entry.MayCall)
	})

	t.Run("dead subject may not be called", func(t *testing.T) {
		entry := &LogEntry{
			LogID:          callLog.ID,
			CallReason:     CallReasonReminder,
			CallDatetime:   time.Now().Add(time.Hour),
			ContactType:    ContactIndirect,
			SurvivalStatus: Dead,
			MayCall:        Yes,
		}
		require.NoError(t, db.Create(entry).Error)
		assert.Equal(t, No, entry.MayCall)

		var stored LogEntry
		require.NoError(t, db.First(&stored, "id = ?", entry.ID).Error)
		assert.Equal(t, No, stored.MayCall)
	})

	t.Run("one entry per call datetime", func(t *testing.T) {
		at := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
		first := &LogEntry{LogID: callLog.ID, CallReason: CallReasonReminder, CallDatetime: at, ContactType: ContactNone}
		require.NoError(t, db.Create(first).Error)
		second := &LogEntry{LogID: callLog.ID, CallReason: CallReasonReminder, CallDatetime: at, ContactType: ContactNone}
		assert.Error(t, db.Create(second).Error)
	})
}

func TestLogEntryOutcome(t *testing.T) {
	appt := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		entry LogEntry
		want  string
	}{
		{"alive", LogEntry{SurvivalStatus: Alive, MayCall: Yes}, "Alive."},
		{"deceased", LogEntry{SurvivalStatus: Dead, MayCall: No, ApptDate: &appt}, "Deceased."},
		{"appointment", LogEntry{SurvivalStatus: Alive, MayCall: Yes, ApptDate: &appt}, "Appt. scheduled. Alive."},
		{"do not call", LogEntry{SurvivalStatus: Alive, MayCall: No}, "Alive. Do not call."},
		{"unknown survival", LogEntry{SurvivalStatus: Unknown, MayCall: Yes}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.OutcomeText())
		})
	}
}

func TestLogEntryValidate(t *testing.T) {
	appt := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	valid := func() LogEntry {
		return LogEntry{CallReason: CallReasonScheduleAppt, ContactType: ContactDirect}
	}

	tests := []struct {
		name   string
		modify func(e *LogEntry)
		want   error
	}{
		{"valid", func(e *LogEntry) {}, nil},
		{"unknown call reason", func(e *LogEntry) { e.CallReason = "gossip" }, ErrInvalidChoice},
		{"unknown contact type", func(e *LogEntry) { e.ContactType = "pigeon" }, ErrInvalidChoice},
		{"other location without text", func(e *LogEntry) { e.ApptLocation = StringPtr(ApptLocationOther) }, ErrApptLocationOtherRequired},
		{"appointment without date", func(e *LogEntry) { e.Appt = StringPtr(Yes) }, ErrApptDateRequired},
		{"appointment without grading", func(e *LogEntry) {
			e.Appt = StringPtr(Yes)
			e.ApptDate = &appt
		}, ErrApptGradingRequired},
		{"appointment without location", func(e *LogEntry) {
			e.Appt = StringPtr(Yes)
			e.ApptDate = &appt
			e.ApptGrading = StringPtr(ApptGradingFirm)
		}, ErrApptLocationRequired},
		{"complete appointment", func(e *LogEntry) {
			e.Appt = StringPtr(Yes)
			e.ApptDate = &appt
			e.ApptGrading = StringPtr(ApptGradingWeak)
			e.ApptLocation = StringPtr(ApptLocationOther)
			e.ApptLocationOther = StringPtr("Church hall")
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := valid()
			tt.modify(&entry)
			err := entry.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSecuredAppointment(t *testing.T) {
	called := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	later := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	assert.False(t, (&LogEntry{}).SecuredAppointment(called))
	assert.False(t, (&LogEntry{ApptDate: &sameDay}).SecuredAppointment(called))
	assert.True(t, (&LogEntry{ApptDate: &later}).SecuredAppointment(called))
}

func TestChoiceLabel(t *testing.T) {
	assert.Equal(t, "At clinic", ChoiceLabel(ApptLocationChoices, ApptLocationClinic))
	assert.Equal(t, "mystery", ChoiceLabel(ApptLocationChoices, "mystery"))
	assert.True(t, IsValidChoice(MayCallChoices, No))
}

func TestChoiceValue(t *testing.T) {
	value, ok := ChoiceValue(ContactTypeChoices, "no contact made ")
	assert.True(t, ok)
	assert.Equal(t, ContactNone, value)

	value, ok = ChoiceValue(SurvivalStatusChoices, "DEAD")
	assert.True(t, ok)
	assert.Equal(t, Dead, value)

	_, ok = ChoiceValue(CallReasonChoices, "chat")
	assert.False(t, ok)
}
