package callers

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"call_manager_go/models"

	"gorm.io/gorm"
)

// maxLabelLength matches the size of calls.label
const maxLabelLength = 25

// Config holds the settings of one model caller
type Config struct {
	// Name is the human readable name; the label defaults to its slug
	Name  string
	Label string

	ConsentSource ConsentSource
	LocatorSource LocatorSource

	// Interval is required when the policy repeats
	Interval    Interval
	RepeatTimes int

	// ForeignKey names the relation through which trigger models reach their subject
	ForeignKey string

	// Location is the zone whose calendar day scheduled dates fall on; nil keeps the clock's zone
	Location *time.Location

	// Clock overrides time.Now, used by tests
	Clock func() time.Time
}

// ModelCaller schedules, closes and reschedules the calls of one start model
type ModelCaller struct {
	cfg        Config
	label      string
	startModel Trigger
	stopModel  Trigger
	repeats    bool
}

// NewModelCaller builds a policy for start and the optional stop model
func NewModelCaller(cfg Config, start Trigger, stop Trigger) (*ModelCaller, error) {
	if start == nil {
		return nil, &ConfigurationError{Reason: "a start model is required"}
	}
	if cfg.RepeatTimes < 0 {
		return nil, &ConfigurationError{Model: start.TableName(), Reason: "repeat times cannot be negative"}
	}

	label := cfg.Label
	if label == "" {
		label = cfg.Name
	}
	if label == "" {
		label = start.TableName() + " caller"
	}
	label = Slugify(label)
	if label == "" {
		return nil, &ConfigurationError{Model: start.TableName(), Reason: "label is empty"}
	}

	mc := &ModelCaller{
		cfg:        cfg,
		label:      label,
		startModel: start,
		stopModel:  stop,
		repeats:    stop != nil || cfg.RepeatTimes > 0,
	}

	if mc.repeats && !cfg.Interval.Valid() {
		return nil, &ConfigurationError{
			Model:  start.TableName(),
			Reason: fmt.Sprintf("model caller %s repeats but has no valid interval", label),
		}
	}

	if err := mc.checkCapabilities(start); err != nil {
		return nil, err
	}
	if stop != nil {
		if err := mc.checkCapabilities(stop); err != nil {
			return nil, err
		}
	}
	return mc, nil
}

// checkCapabilities verifies that model exposes the foreign key this policy reads
func (mc *ModelCaller) checkCapabilities(model Trigger) error {
	if mc.cfg.ForeignKey == "" {
		return nil
	}
	fk, ok := model.(ForeignKeyTrigger)
	if !ok {
		return &ConfigurationError{Model: model.TableName(), Attribute: mc.cfg.ForeignKey, Reason: "model has no foreign keys"}
	}
	if _, ok := fk.ForeignKey(mc.cfg.ForeignKey); !ok {
		return &ConfigurationError{Model: model.TableName(), Attribute: mc.cfg.ForeignKey, Reason: "unknown foreign key"}
	}
	return nil
}

// Label returns the slug stored on every call of this policy
func (mc *ModelCaller) Label() string { return mc.label }

// Name returns the configured human readable name
func (mc *ModelCaller) Name() string { return mc.cfg.Name }

// Repeats reports whether a closed call is followed by another one
func (mc *ModelCaller) Repeats() bool { return mc.repeats }

// Interval returns the spacing between repeated calls
func (mc *ModelCaller) Interval() Interval { return mc.cfg.Interval }

// StartModel returns the trigger model whose records schedule calls
func (mc *ModelCaller) StartModel() Trigger { return mc.startModel }

// StopModel returns nil when the policy has no stop model
func (mc *ModelCaller) StopModel() Trigger { return mc.stopModel }

func (mc *ModelCaller) now() time.Time {
	if mc.cfg.Clock != nil {
		return mc.cfg.Clock()
	}
	return time.Now()
}

func (mc *ModelCaller) today() time.Time {
	now := mc.now()
	if mc.cfg.Location != nil {
		now = now.In(mc.cfg.Location)
	}
	return models.DateOf(now)
}

func (mc *ModelCaller) String() string {
	return mc.label
}

// SubjectIdentifier returns the subject of a trigger record, read through the configured
// foreign key when there is one
func (mc *ModelCaller) SubjectIdentifier(record Trigger) (string, error) {
	var id string
	if mc.cfg.ForeignKey != "" {
		fk, ok := record.(ForeignKeyTrigger)
		if !ok {
			return "", &ConfigurationError{Model: record.TableName(), Attribute: mc.cfg.ForeignKey, Reason: "model has no foreign keys"}
		}
		id, _ = fk.ForeignKey(mc.cfg.ForeignKey)
	} else {
		id = record.GetSubjectIdentifier()
	}
	if id == "" {
		return "", fmt.Errorf("%s record has no subject identifier", record.TableName())
	}
	return id, nil
}

// subject resolves the identity snapshot, preferring the consent source over the record
func (mc *ModelCaller) subject(tx *gorm.DB, record Trigger) (Subject, error) {
	id, err := mc.SubjectIdentifier(record)
	if err != nil {
		return Subject{}, err
	}

	if mc.cfg.ConsentSource != nil {
		subject, err := mc.cfg.ConsentSource.Consent(tx, id)
		if errors.Is(err, ErrSubjectNotFound) {
			return Subject{}, fmt.Errorf("model caller %s cannot schedule a call for subject %s: %w", mc.label, id, ErrConsentRequired)
		}
		if err != nil {
			return Subject{}, err
		}
		subject.SubjectIdentifier = id
		return subject, nil
	}

	if pd, ok := record.(PersonalDetails); ok {
		subject := pd.PersonalDetails()
		subject.SubjectIdentifier = id
		return subject, nil
	}
	return Subject{SubjectIdentifier: id}, nil
}

// locatorSnapshot looks the locator up once; the result is frozen into the new log
func (mc *ModelCaller) locatorSnapshot(tx *gorm.DB, subjectIdentifier string) (string, error) {
	if mc.cfg.LocatorSource == nil {
		return "", nil
	}
	locator, err := mc.cfg.LocatorSource.Locator(tx, subjectIdentifier)
	if errors.Is(err, ErrSubjectNotFound) {
		return models.LocatorNotFound, nil
	}
	if err != nil {
		return "", err
	}
	return locator, nil
}

// ScheduleCall creates a NEW call and its log for the subject of record.
// The call is scheduled today unless a date is given.
func (mc *ModelCaller) ScheduleCall(tx *gorm.DB, record Trigger, scheduled *time.Time) (*models.Call, error) {
	subject, err := mc.subject(tx, record)
	if err != nil {
		return nil, err
	}

	call := &models.Call{
		SubjectIdentifier: subject.SubjectIdentifier,
		Label:             mc.label,
		Scheduled:         mc.scheduledOrToday(scheduled),
		Repeats:           mc.repeats,
		FirstName:         models.StringPtr(subject.FirstName),
		Initials:          models.StringPtr(subject.Initials),
		ConsentDatetime:   subject.ConsentDatetime,
		CallStatus:        models.CallStatusNew,
	}
	if err := mc.createCall(tx, call); err != nil {
		return nil, err
	}

	log.Printf("[CALLERS] Scheduled call %s for %s on %s", mc.label, call.SubjectIdentifier, call.Scheduled.Format("2006-01-02"))
	return call, nil
}

func (mc *ModelCaller) scheduledOrToday(scheduled *time.Time) time.Time {
	if scheduled != nil && !scheduled.IsZero() {
		return models.DateOf(*scheduled)
	}
	return mc.today()
}

// createCall inserts call and its log with a fresh locator snapshot
func (mc *ModelCaller) createCall(tx *gorm.DB, call *models.Call) error {
	locator, err := mc.locatorSnapshot(tx, call.SubjectIdentifier)
	if err != nil {
		return err
	}

	if err := tx.Create(call).Error; err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}

	callLog := &models.Log{
		CallID:             call.ID,
		LogDatetime:        mc.now(),
		LocatorInformation: locator,
	}
	if err := tx.Create(callLog).Error; err != nil {
		return fmt.Errorf("failed to create call log: %w", err)
	}
	return nil
}

// UnscheduleCall closes every open call of this label for the subject.
// Returns the number of calls closed; none is not an error.
func (mc *ModelCaller) UnscheduleCall(tx *gorm.DB, subjectIdentifier string) (int, error) {
	var calls []models.Call
	err := tx.Where("subject_identifier = ? AND label = ? AND call_status <> ?",
		subjectIdentifier, mc.label, models.CallStatusClosed).
		Order("scheduled").
		Find(&calls).Error
	if err != nil {
		return 0, fmt.Errorf("failed to get open calls: %w", err)
	}

	for i := range calls {
		call := &calls[i]
		call.CallStatus = models.CallStatusClosed
		call.AutoClosed = true
		call.CallOutcome = appendOutcome(call.CallOutcome, closedAutomatically(call.CallAttempts))
		if err := tx.Save(call).Error; err != nil {
			return i, fmt.Errorf("failed to close call: %w", err)
		}
		log.Printf("[CALLERS] Closed call %s for %s automatically", mc.label, subjectIdentifier)
	}
	return len(calls), nil
}

func closedAutomatically(attempts int) string {
	switch attempts {
	case 0:
		return "Closed automatically."
	case 1:
		return "Closed automatically after 1 attempt."
	default:
		return fmt.Sprintf("Closed automatically after %d attempts.", attempts)
	}
}

func appendOutcome(outcome, text string) string {
	if outcome == "" {
		return text
	}
	return outcome + " " + text
}

// NextScheduledDate returns the date after reference for the configured interval
func (mc *ModelCaller) NextScheduledDate(reference time.Time) (time.Time, bool) {
	return mc.cfg.Interval.Next(reference)
}

// ScheduleNextCall creates the successor of call. Without an explicit date the next date is
// computed from the later of the call's scheduled date and today; when none can be computed,
// or the repeat count is used up, the chain ends and nil is returned.
func (mc *ModelCaller) ScheduleNextCall(tx *gorm.DB, call *models.Call, scheduled *time.Time) (*models.Call, error) {
	var next time.Time
	if scheduled != nil && !scheduled.IsZero() {
		next = models.DateOf(*scheduled)
	} else {
		reference := models.DateOf(call.Scheduled)
		if today := mc.today(); today.After(reference) {
			reference = today
		}
		var ok bool
		if next, ok = mc.NextScheduledDate(reference); !ok {
			return nil, nil
		}
	}

	if mc.stopModel == nil && mc.cfg.RepeatTimes > 0 {
		var count int64
		err := tx.Model(&models.Call{}).
			Where("subject_identifier = ? AND label = ?", call.SubjectIdentifier, mc.label).
			Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count calls: %w", err)
		}
		if count > int64(mc.cfg.RepeatTimes) {
			log.Printf("[CALLERS] Call %s for %s repeated %d times, not scheduling again", mc.label, call.SubjectIdentifier, mc.cfg.RepeatTimes)
			return nil, nil
		}
	}

	successor := &models.Call{
		SubjectIdentifier: call.SubjectIdentifier,
		Label:             mc.label,
		Scheduled:         next,
		Repeats:           mc.repeats,
		FirstName:         call.FirstName,
		Initials:          call.Initials,
		ConsentDatetime:   call.ConsentDatetime,
		CallStatus:        models.CallStatusNew,
	}
	if err := mc.createCall(tx, successor); err != nil {
		return nil, err
	}

	log.Printf("[CALLERS] Scheduled next call %s for %s on %s", mc.label, successor.SubjectIdentifier, next.Format("2006-01-02"))
	return successor, nil
}

// UpdateCallFromLog applies the outcome of entry to call. Only the latest entry of the log
// counts; any other entry is ignored.
func (mc *ModelCaller) UpdateCallFromLog(tx *gorm.DB, call *models.Call, entry *models.LogEntry) error {
	var latest models.LogEntry
	err := tx.Where("log_id = ?", entry.LogID).
		Order("call_datetime desc").
		First(&latest).Error
	if err != nil {
		return fmt.Errorf("failed to get latest log entry: %w", err)
	}
	if latest.ID != entry.ID {
		return nil
	}

	callDatetime := models.NormalizeDatetime(entry.CallDatetime)
	if call.IsClosed() {
		if call.LastCalled != nil && models.NormalizeDatetime(*call.LastCalled).Equal(callDatetime) {
			return nil
		}
		return &ValidationError{CallID: call.ID, Reason: "call is closed, no further outcomes may be recorded"}
	}

	var attempts int64
	err = tx.Model(&models.LogEntry{}).Where("log_id = ?", entry.LogID).Count(&attempts).Error
	if err != nil {
		return fmt.Errorf("failed to count log entries: %w", err)
	}

	call.CallOutcome = entry.OutcomeText()
	call.LastCalled = &callDatetime
	call.CallAttempts = int(attempts)

	secured := false
	switch {
	case entry.DoNotCall():
		call.CallStatus = models.CallStatusClosed
	case entry.SecuredAppointment(callDatetime):
		call.CallStatus = models.CallStatusClosed
		secured = true
	default:
		call.CallStatus = models.CallStatusOpen
	}

	if err := tx.Save(call).Error; err != nil {
		return fmt.Errorf("failed to update call: %w", err)
	}

	if secured && call.Repeats {
		if _, err := mc.ScheduleNextCall(tx, call, nil); err != nil {
			return err
		}
	}
	return nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatDashes = regexp.MustCompile(`-+`)
)

// Slugify turns a name into a call label
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = repeatDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxLabelLength {
		slug = strings.TrimRight(slug[:maxLabelLength], "-")
	}
	return slug
}
