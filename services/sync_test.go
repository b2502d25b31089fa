package services

import (
	"bytes"
	"testing"
	"time"

	"call_manager_go/example"
	"call_manager_go/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSyncSource(t *testing.T) *testEnv {
	t.Helper()
	env := setupServicesTestDB(t)
	env.consent(t, "S001", "Ana", "Lopez")
	env.locator(t, "S001", "0711 000 001")
	call := env.followUp(t, "S001")

	callLog, err := GetCallLog(env.db, call.ID)
	require.NoError(t, err)
	require.NoError(t, RecordLogEntry(env.db, aliveEntry(callLog.ID, time.Now().Add(-time.Hour))))

	require.NoError(t, env.db.Create(&example.Referral{SubjectIdentifier: "S002", FirstName: "Ben"}).Error)
	return env
}

func countRows(t *testing.T, env *testEnv) (int64, int64, int64) {
	t.Helper()
	var calls, logs, entries int64
	require.NoError(t, env.db.Model(&models.Call{}).Count(&calls).Error)
	require.NoError(t, env.db.Model(&models.Log{}).Count(&logs).Error)
	require.NoError(t, env.db.Model(&models.LogEntry{}).Count(&entries).Error)
	return calls, logs, entries
}

func TestExportCalls(t *testing.T) {
	env := seedSyncSource(t)

	bundle, err := ExportCalls(env.db, "")
	require.NoError(t, err)
	assert.Len(t, bundle.Calls, 2)
	assert.Len(t, bundle.Logs, 2)
	require.Len(t, bundle.LogEntries, 1)

	entry := bundle.LogEntries[0]
	assert.Equal(t, "S001", entry.LogKey.SubjectIdentifier)
	assert.Equal(t, example.FollowUpLabel, entry.LogKey.Label)
	assert.True(t, entry.LogKey.Scheduled.Equal(models.Today(time.Local)))

	t.Run("by label", func(t *testing.T) {
		bundle, err := ExportCalls(env.db, example.ReferralLabel)
		require.NoError(t, err)
		require.Len(t, bundle.Calls, 1)
		assert.Equal(t, "S002", bundle.Calls[0].SubjectIdentifier)
		assert.Empty(t, bundle.LogEntries)
	})

	t.Run("surrogate keys are not written", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteBundle(&buf, bundle))
		assert.NotContains(t, buf.String(), bundle.Calls[0].ID)
		assert.Contains(t, buf.String(), `"subject_identifier": "S001"`)
	})
}

func TestImportCalls(t *testing.T) {
	source := seedSyncSource(t)
	bundle, err := ExportCalls(source.db, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, bundle))
	decoded, err := ReadBundle(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	target := setupServicesTestDB(t)

	t.Run("creates missing rows", func(t *testing.T) {
		result, err := ImportCalls(target.db, decoded)
		require.NoError(t, err)
		assert.Equal(t, 5, result.TotalProcessed)
		assert.Equal(t, 5, result.CreatedCount)
		assert.Equal(t, 0, result.FailedCount)

		calls, logs, entries := countRows(t, target)
		assert.Equal(t, int64(2), calls)
		assert.Equal(t, int64(2), logs)
		assert.Equal(t, int64(1), entries)

		call, err := GetCallByNaturalKey(target.db, models.CallKey{
			SubjectIdentifier: "S001", Label: example.FollowUpLabel, Scheduled: models.Today(time.Local),
		})
		require.NoError(t, err)
		assert.Equal(t, models.CallStatusOpen, call.CallStatus)
		assert.Equal(t, 1, call.CallAttempts)

		callLog, err := GetCallLog(target.db, call.ID)
		require.NoError(t, err)
		assert.Equal(t, "cell: 0711 000 001", callLog.LocatorInformation)
	})

	t.Run("re-import updates instead of duplicating", func(t *testing.T) {
		decoded.Calls[0].CallOutcome = "Edited elsewhere."

		result, err := ImportCalls(target.db, decoded)
		require.NoError(t, err)
		assert.Equal(t, 0, result.CreatedCount)
		assert.Equal(t, 5, result.UpdatedCount)

		calls, logs, entries := countRows(t, target)
		assert.Equal(t, int64(2), calls)
		assert.Equal(t, int64(2), logs)
		assert.Equal(t, int64(1), entries)

		call, err := GetCallByNaturalKey(target.db, decoded.Calls[0].NaturalKey())
		require.NoError(t, err)
		assert.Equal(t, "Edited elsewhere.", call.CallOutcome)
	})

	t.Run("rows of unknown calls fail without aborting", func(t *testing.T) {
		orphan := &Bundle{
			Logs: []LogDocument{{
				CallKey: models.CallKey{SubjectIdentifier: "S999", Label: example.FollowUpLabel, Scheduled: models.Today(time.Local)},
				Log:     models.Log{LogDatetime: time.Now()},
			}},
		}
		result, err := ImportCalls(target.db, orphan)
		require.NoError(t, err)
		assert.Equal(t, 1, result.FailedCount)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "S999")
	})

	t.Run("imported appointments do not schedule calls", func(t *testing.T) {
		apptDate := models.Today(time.Local).AddDate(0, 0, 3)
		decoded.LogEntries[0].Appt = models.StringPtr(models.Yes)
		decoded.LogEntries[0].ApptDate = &apptDate

		_, err := ImportCalls(target.db, decoded)
		require.NoError(t, err)

		calls, err := ListCalls(target.db, CallFilter{SubjectIdentifier: "S001"})
		require.NoError(t, err)
		require.Len(t, calls, 1)
		assert.Equal(t, models.CallStatusOpen, calls[0].CallStatus)
	})
}

func TestImportCallsKeepsFreeText(t *testing.T) {
	source := setupServicesTestDB(t)
	source.consent(t, "S001", "Ana", "Lopez")
	call := source.followUp(t, "S001")

	callLog, err := GetCallLog(source.db, call.ID)
	require.NoError(t, err)
	require.NoError(t, UpdateContactNotes(source.db, callLog.ID, "call back &lt;after 5pm&gt; please, ask for Tom & Jerry"))

	stored, err := GetCallLog(source.db, call.ID)
	require.NoError(t, err)
	assert.Equal(t, "call back &lt;after 5pm&gt; please, ask for Tom &amp; Jerry", stored.ContactNotes)

	bundle, err := ExportCalls(source.db, "")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, bundle))

	target := setupServicesTestDB(t)
	for i := 0; i < 2; i++ {
		decoded, err := ReadBundle(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		result, err := ImportCalls(target.db, decoded)
		require.NoError(t, err)
		require.Zero(t, result.FailedCount)

		imported, err := GetCallByNaturalKey(target.db, call.NaturalKey())
		require.NoError(t, err)
		importedLog, err := GetCallLog(target.db, imported.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.ContactNotes, importedLog.ContactNotes)
	}
}
