package services

import (
	"testing"

	"call_manager_go/events"
	"call_manager_go/example"
	"call_manager_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleMissingCalls(t *testing.T) {
	env := setupServicesTestDB(t)
	env.consent(t, "S001", "Ana", "Lopez")
	env.consent(t, "S002", "Ben", "Moyo")
	env.locator(t, "S001", "0711 000 001")

	// Visits saved without dispatch predate the model caller
	raw := events.SkipDispatch(env.db)
	for _, id := range []string{"S001", "S002", "S004"} {
		require.NoError(t, raw.Create(&example.FollowUpVisit{SubjectIdentifier: id, VisitCode: "1000"}).Error)
	}
	env.followUp(t, "S002")

	result, err := ScheduleMissingCalls(env.db, env.site, example.FollowUpVisit{}.TableName())
	require.NoError(t, err)

	assert.Equal(t, example.FollowUpLabel, result.Label)
	// S002 has two visits, both already covered by the dispatched call
	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Equal(t, 2, result.SkippedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "S004")

	calls, err := ListCalls(env.db, CallFilter{SubjectIdentifier: "S001"})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "Ana", *calls[0].FirstName)
	assert.Equal(t, "AL", *calls[0].Initials)

	callLog, err := GetCallLog(env.db, calls[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "cell: 0711 000 001", callLog.LocatorInformation)

	t.Run("second run schedules nothing", func(t *testing.T) {
		result, err := ScheduleMissingCalls(env.db, env.site, example.FollowUpLabel)
		require.NoError(t, err)
		assert.Equal(t, 0, result.ScheduledCount)
		assert.Equal(t, 3, result.SkippedCount)

		var count int64
		env.db.Model(&models.Call{}).Count(&count)
		assert.Equal(t, int64(2), count)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := ScheduleMissingCalls(env.db, env.site, "subject_visits")
		assert.ErrorIs(t, err, ErrModelNotRegistered)
	})
}

func TestScheduleMissingCallsWithoutConsentSource(t *testing.T) {
	env := setupServicesTestDB(t)

	raw := events.SkipDispatch(env.db)
	require.NoError(t, raw.Create(&example.Referral{SubjectIdentifier: "S010", FirstName: "Dan", Initials: "DK"}).Error)

	result, err := ScheduleMissingCalls(env.db, env.site, example.Referral{}.TableName())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ScheduledCount)
	assert.Empty(t, result.Errors)

	calls, err := ListCalls(env.db, CallFilter{Label: example.ReferralLabel})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "DK", *calls[0].Initials)
	assert.False(t, calls[0].Repeats)

	callLog, err := GetCallLog(env.db, calls[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.LocatorNotFound, callLog.LocatorInformation)
}
