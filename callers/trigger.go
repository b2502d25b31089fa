package callers

import (
	"time"

	"gorm.io/gorm"
)

// Trigger is a host model whose creation starts or stops calls.
// TableName doubles as the model name used for registration and dispatch.
type Trigger interface {
	TableName() string
	GetSubjectIdentifier() string
}

// ForeignKeyTrigger is implemented by trigger models that reach their subject through a relation.
// ForeignKey returns the subject identifier behind the named relation and false when the
// model has no such relation.
type ForeignKeyTrigger interface {
	Trigger
	ForeignKey(name string) (string, bool)
}

// PersonalDetails is implemented by trigger models that carry identity details of their subject.
// Used when no consent source is configured.
type PersonalDetails interface {
	PersonalDetails() Subject
}

// Subject is the identity snapshot copied onto a call
type Subject struct {
	SubjectIdentifier string
	FirstName         string
	Initials          string
	ConsentDatetime   *time.Time
}

// ConsentSource resolves the consented identity of a subject.
// Implementations return ErrSubjectNotFound when the subject has no consent.
type ConsentSource interface {
	Consent(tx *gorm.DB, subjectIdentifier string) (Subject, error)
}

// LocatorSource resolves the formatted locator information of a subject.
// Implementations return ErrSubjectNotFound when the subject has no locator.
type LocatorSource interface {
	Locator(tx *gorm.DB, subjectIdentifier string) (string, error)
}
