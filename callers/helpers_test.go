package callers

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"call_manager_go/db"
	"call_manager_go/events"
	"call_manager_go/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 2024-01-10 is a Wednesday
var fixedNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testStartModel struct {
	ID                uint `gorm:"primarykey"`
	SubjectIdentifier string
	FirstName         string
	Initials          string
	CreatedAt         time.Time
}

func (testStartModel) TableName() string { return "test_start_models" }

func (m testStartModel) GetSubjectIdentifier() string { return m.SubjectIdentifier }

func (m testStartModel) PersonalDetails() Subject {
	return Subject{FirstName: m.FirstName, Initials: m.Initials}
}

type testStopModel struct {
	ID                uint `gorm:"primarykey"`
	SubjectIdentifier string
	CreatedAt         time.Time
}

func (testStopModel) TableName() string { return "test_stop_models" }

func (m testStopModel) GetSubjectIdentifier() string { return m.SubjectIdentifier }

type testOtherModel struct {
	ID                uint `gorm:"primarykey"`
	SubjectIdentifier string
}

func (testOtherModel) TableName() string { return "test_other_models" }

func (m testOtherModel) GetSubjectIdentifier() string { return m.SubjectIdentifier }

// testVisit reaches its subject through the registered_subject relation
type testVisit struct {
	ID                uint `gorm:"primarykey"`
	RegisteredSubject string
}

func (testVisit) TableName() string { return "test_visits" }

func (m testVisit) GetSubjectIdentifier() string { return "" }

func (m testVisit) ForeignKey(name string) (string, bool) {
	if name == "registered_subject" {
		return m.RegisteredSubject, true
	}
	return "", false
}

type testConsent struct {
	ID                uint `gorm:"primarykey"`
	SubjectIdentifier string
	FirstName         string
	Initials          string
	ConsentDatetime   time.Time
	CreatedAt         time.Time
}

func (testConsent) TableName() string { return "test_consents" }

func (c testConsent) ConsentSubject() Subject {
	consented := c.ConsentDatetime
	return Subject{FirstName: c.FirstName, Initials: c.Initials, ConsentDatetime: &consented}
}

type testLocator struct {
	ID                uint `gorm:"primarykey"`
	SubjectIdentifier string
	MailAddress       string
	Cell              string
	CreatedAt         time.Time
}

func (testLocator) TableName() string { return "test_locators" }

func (l testLocator) LocatorString() string {
	var parts []string
	if l.MailAddress != "" {
		parts = append(parts, l.MailAddress)
	}
	if l.Cell != "" {
		parts = append(parts, fmt.Sprintf("cell: %s", l.Cell))
	}
	return strings.Join(parts, ", ")
}

func setupCallersTestDB(t *testing.T) (*gorm.DB, *CallerSite) {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(
		&models.Call{}, &models.Log{}, &models.LogEntry{},
		&testStartModel{}, &testStopModel{}, &testOtherModel{}, &testVisit{},
		&testConsent{}, &testLocator{},
	))

	bus := events.NewBus()
	require.NoError(t, db.AttachEvents(database, bus))

	site := NewCallerSite()
	site.Subscribe(bus)
	return database, site
}

func callsFor(t *testing.T, database *gorm.DB, subjectIdentifier string) []models.Call {
	t.Helper()
	var calls []models.Call
	require.NoError(t, database.Where("subject_identifier = ?", subjectIdentifier).Order("scheduled").Find(&calls).Error)
	return calls
}

func logOf(t *testing.T, database *gorm.DB, call models.Call) models.Log {
	t.Helper()
	var callLog models.Log
	require.NoError(t, database.Where("call_id = ?", call.ID).First(&callLog).Error)
	return callLog
}

func reload(t *testing.T, database *gorm.DB, call models.Call) models.Call {
	t.Helper()
	var fresh models.Call
	require.NoError(t, database.First(&fresh, "id = ?", call.ID).Error)
	return fresh
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func aliveEntry(logID string, at time.Time) *models.LogEntry {
	return &models.LogEntry{
		LogID:          logID,
		CallReason:     models.CallReasonScheduleAppt,
		CallDatetime:   at,
		ContactType:    models.ContactDirect,
		SurvivalStatus: models.Alive,
		MayCall:        models.Yes,
	}
}
