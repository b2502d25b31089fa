package example

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"call_manager_go/callers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubjectConsent is the signed consent of a study participant
type SubjectConsent struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;index" json:"subject_identifier"`
	FirstName         string    `gorm:"size:50;not null" json:"first_name"`
	LastName          string    `gorm:"size:50;not null" json:"last_name"`
	ConsentDatetime   time.Time `gorm:"not null" json:"consent_datetime"`
}

// BeforeCreate hook to generate UUID
func (c *SubjectConsent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for SubjectConsent model
func (SubjectConsent) TableName() string {
	return "subject_consents"
}

// Initials returns the first letters of the first and last names
func (c SubjectConsent) Initials() string {
	return firstLetter(c.FirstName) + firstLetter(c.LastName)
}

func firstLetter(name string) string {
	r, size := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if size == 0 || r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}

func (c SubjectConsent) GetSubjectIdentifier() string { return c.SubjectIdentifier }

func (c SubjectConsent) ConsentSubject() callers.Subject {
	consented := c.ConsentDatetime
	return callers.Subject{
		SubjectIdentifier: c.SubjectIdentifier,
		FirstName:         c.FirstName,
		Initials:          c.Initials(),
		ConsentDatetime:   &consented,
	}
}

// SubjectLocator holds the contact details of a participant
type SubjectLocator struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;uniqueIndex" json:"subject_identifier"`
	MailAddress       string    `gorm:"type:text" json:"mail_address"`
	PhysicalAddress   string    `gorm:"type:text" json:"physical_address"`
	SubjectCell       string    `gorm:"size:25" json:"subject_cell"`
	SubjectCellAlt    string    `gorm:"size:25" json:"subject_cell_alt"`
	SubjectPhone      string    `gorm:"size:25" json:"subject_phone"`
	ContactName       string    `gorm:"size:50" json:"contact_name"`
	ContactCell       string    `gorm:"size:25" json:"contact_cell"`
}

// BeforeCreate hook to generate UUID
func (l *SubjectLocator) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for SubjectLocator model
func (SubjectLocator) TableName() string {
	return "subject_locators"
}

func (l SubjectLocator) GetSubjectIdentifier() string { return l.SubjectIdentifier }

// LocatorString formats the non-empty locator fields as one snapshot string
func (l SubjectLocator) LocatorString() string {
	fields := []struct{ label, value string }{
		{"mail", l.MailAddress},
		{"address", l.PhysicalAddress},
		{"cell", l.SubjectCell},
		{"alt cell", l.SubjectCellAlt},
		{"phone", l.SubjectPhone},
		{"contact", l.ContactName},
		{"contact cell", l.ContactCell},
	}

	var parts []string
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", f.label, v))
		}
	}
	return strings.Join(parts, "\n")
}

// FollowUpVisit starts the weekly follow-up calls of a participant
type FollowUpVisit struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;index" json:"subject_identifier"`
	VisitCode         string    `gorm:"size:10;not null" json:"visit_code"`
	ReportDatetime    time.Time `gorm:"not null" json:"report_datetime"`
}

// BeforeCreate hook to generate UUID
func (v *FollowUpVisit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.ReportDatetime.IsZero() {
		v.ReportDatetime = time.Now()
	}
	return nil
}

// TableName specifies the table name for FollowUpVisit model
func (FollowUpVisit) TableName() string {
	return "follow_up_visits"
}

func (v FollowUpVisit) GetSubjectIdentifier() string { return v.SubjectIdentifier }

// OffStudy takes a participant off study and stops the follow-up calls
type OffStudy struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;uniqueIndex" json:"subject_identifier"`
	OffStudyDate      time.Time `gorm:"type:date;not null" json:"off_study_date"`
	Reason            string    `gorm:"type:text" json:"reason"`
}

// BeforeCreate hook to generate UUID
func (o *OffStudy) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.OffStudyDate.IsZero() {
		o.OffStudyDate = time.Now()
	}
	return nil
}

// TableName specifies the table name for OffStudy model
func (OffStudy) TableName() string {
	return "off_study"
}

func (o OffStudy) GetSubjectIdentifier() string { return o.SubjectIdentifier }

// Referral asks for a single call to a referred participant
type Referral struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;index" json:"subject_identifier"`
	FirstName         string    `gorm:"size:50" json:"first_name"`
	Initials          string    `gorm:"size:3" json:"initials"`
	ReferredTo        string    `gorm:"size:50" json:"referred_to"`
}

// BeforeCreate hook to generate UUID
func (r *Referral) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Referral model
func (Referral) TableName() string {
	return "referrals"
}

func (r Referral) GetSubjectIdentifier() string { return r.SubjectIdentifier }

func (r Referral) PersonalDetails() callers.Subject {
	return callers.Subject{FirstName: r.FirstName, Initials: r.Initials}
}

// Enrollment records a participant joining a sub-study. It has no model caller of its own;
// deployments register one from a callers manifest.
type Enrollment struct {
	ID                string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	SubjectIdentifier string    `gorm:"size:25;not null;index" json:"subject_identifier"`
	SubStudy          string    `gorm:"size:25;not null" json:"sub_study"`
}

// BeforeCreate hook to generate UUID
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Enrollment model
func (Enrollment) TableName() string {
	return "enrollments"
}

func (e Enrollment) GetSubjectIdentifier() string { return e.SubjectIdentifier }

// Models returns the example models for migration
func Models() []interface{} {
	return []interface{}{
		&SubjectConsent{}, &SubjectLocator{}, &FollowUpVisit{}, &OffStudy{}, &Referral{}, &Enrollment{},
	}
}
