package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelsTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestCallBeforeCreate(t *testing.T) {
	db := setupModelsTestDB(t)

	call := &Call{
		SubjectIdentifier: "S-001",
		Label:             "follow-up",
		Scheduled:         time.Date(2024, 1, 10, 15, 30, 0, 0, time.FixedZone("CAT", 2*3600)),
	}
	require.NoError(t, db.Create(call).Error)

	assert.NotEmpty(t, call.ID)
	assert.Equal(t, CallStatusNew, call.CallStatus)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), call.Scheduled)

	t.Run("scheduled defaults to today", func(t *testing.T) {
		call := &Call{SubjectIdentifier: "S-002", Label: "follow-up"}
		require.NoError(t, db.Create(call).Error)
		assert.Equal(t, Today(time.Local), call.Scheduled)
	})
}

func TestCallNaturalKeyIsUnique(t *testing.T) {
	db := setupModelsTestDB(t)
	scheduled := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&Call{SubjectIdentifier: "S-001", Label: "follow-up", Scheduled: scheduled}).Error)
	assert.Error(t, db.Create(&Call{SubjectIdentifier: "S-001", Label: "follow-up", Scheduled: scheduled}).Error)
	assert.NoError(t, db.Create(&Call{SubjectIdentifier: "S-001", Label: "referral", Scheduled: scheduled}).Error)
	assert.NoError(t, db.Create(&Call{SubjectIdentifier: "S-001", Label: "follow-up", Scheduled: scheduled.AddDate(0, 0, 7)}).Error)

	var found Call
	key := CallKey{SubjectIdentifier: "S-001", Label: "follow-up", Scheduled: scheduled}
	require.NoError(t, db.Where("subject_identifier = ? AND label = ? AND scheduled = ?", key.SubjectIdentifier, key.Label, key.Scheduled).First(&found).Error)
	assert.Equal(t, key, found.NaturalKey())
}

func TestCallString(t *testing.T) {
	tests := []struct {
		name string
		call Call
		want string
	}{
		{
			name: "unknown identity",
			call: Call{SubjectIdentifier: "S-001", CallStatus: CallStatusNew},
			want: "S-001 ?? (??) New",
		},
		{
			name: "closed by system",
			call: Call{SubjectIdentifier: "S-001", FirstName: StringPtr("Kabo"), Initials: StringPtr("KM"), CallStatus: CallStatusClosed, AutoClosed: true},
			want: "S-001 Kabo (KM) Closed by system",
		},
		{
			name: "open",
			call: Call{SubjectIdentifier: "S-002", FirstName: StringPtr("Neo"), Initials: StringPtr("NL"), CallStatus: CallStatusOpen},
			want: "S-002 Neo (NL) Open",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.call.String())
		})
	}
}

func TestIsValidCallStatus(t *testing.T) {
	assert.True(t, IsValidCallStatus(CallStatusNew))
	assert.True(t, IsValidCallStatus(CallStatusOpen))
	assert.True(t, IsValidCallStatus(CallStatusClosed))
	assert.False(t, IsValidCallStatus("PENDING"))
}

func TestDateOf(t *testing.T) {
	in := time.Date(2024, 2, 29, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), DateOf(in))
}
