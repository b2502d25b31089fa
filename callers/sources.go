package callers

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ConsentRecord is a consent row able to describe the subject it belongs to
type ConsentRecord interface {
	ConsentSubject() Subject
}

// LocatorRecord is a locator row able to format itself as a snapshot string
type LocatorRecord interface {
	LocatorString() string
}

// ConsentTable is a ConsentSource backed by the gorm model T.
// Column names the foreign key holding the subject identifier (default subject_identifier).
// When a subject has several consents the row sorting first by OrderBy wins.
type ConsentTable[T ConsentRecord] struct {
	Column  string
	OrderBy string
}

func (s ConsentTable[T]) Consent(tx *gorm.DB, subjectIdentifier string) (Subject, error) {
	var record T
	err := tx.Where(map[string]interface{}{column(s.Column): subjectIdentifier}).
		Order(orderBy(s.OrderBy)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Subject{}, ErrSubjectNotFound
	}
	if err != nil {
		return Subject{}, fmt.Errorf("failed to get consent: %w", err)
	}

	subject := record.ConsentSubject()
	if subject.SubjectIdentifier == "" {
		subject.SubjectIdentifier = subjectIdentifier
	}
	return subject, nil
}

// LocatorTable is a LocatorSource backed by the gorm model T
type LocatorTable[T LocatorRecord] struct {
	Column  string
	OrderBy string
}

func (s LocatorTable[T]) Locator(tx *gorm.DB, subjectIdentifier string) (string, error) {
	var record T
	err := tx.Where(map[string]interface{}{column(s.Column): subjectIdentifier}).
		Order(orderBy(s.OrderBy)).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSubjectNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get locator: %w", err)
	}
	return record.LocatorString(), nil
}

func column(name string) string {
	if name == "" {
		return "subject_identifier"
	}
	return name
}

func orderBy(clause string) string {
	if clause == "" {
		return "created_at desc"
	}
	return clause
}
