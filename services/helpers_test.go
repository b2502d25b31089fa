package services

import (
	"testing"
	"time"

	"call_manager_go/callers"
	"call_manager_go/db"
	"call_manager_go/events"
	"call_manager_go/example"
	"call_manager_go/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db   *gorm.DB
	bus  *events.Bus
	site *callers.CallerSite
}

func setupServicesTestDB(t *testing.T) *testEnv {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database, append(models.All(), example.Models()...)...))

	bus := events.NewBus()
	require.NoError(t, db.AttachEvents(database, bus))

	site := callers.NewCallerSite()
	require.NoError(t, site.Autodiscover([]callers.App{example.App()}))
	site.Subscribe(bus)

	return &testEnv{db: database, bus: bus, site: site}
}

func (e *testEnv) consent(t *testing.T, subjectIdentifier, firstName, lastName string) {
	t.Helper()
	require.NoError(t, e.db.Create(&example.SubjectConsent{
		SubjectIdentifier: subjectIdentifier,
		FirstName:         firstName,
		LastName:          lastName,
		ConsentDatetime:   time.Now().Add(-24 * time.Hour),
	}).Error)
}

func (e *testEnv) locator(t *testing.T, subjectIdentifier, cell string) *example.SubjectLocator {
	t.Helper()
	locator := &example.SubjectLocator{SubjectIdentifier: subjectIdentifier, SubjectCell: cell}
	require.NoError(t, e.db.Create(locator).Error)
	return locator
}

// followUp creates a follow-up visit and returns the call it scheduled
func (e *testEnv) followUp(t *testing.T, subjectIdentifier string) *models.Call {
	t.Helper()
	require.NoError(t, e.db.Create(&example.FollowUpVisit{
		SubjectIdentifier: subjectIdentifier,
		VisitCode:         "1000",
	}).Error)

	call, err := GetCallByNaturalKey(e.db, models.CallKey{
		SubjectIdentifier: subjectIdentifier,
		Label:             example.FollowUpLabel,
		Scheduled:         models.Today(time.Local),
	})
	require.NoError(t, err)
	return call
}

func aliveEntry(logID string, at time.Time) *models.LogEntry {
	return &models.LogEntry{
		LogID:        logID,
		CallReason:   models.CallReasonScheduleAppt,
		CallDatetime: at,
		ContactType:  models.ContactDirect,
	}
}
