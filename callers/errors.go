package callers

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRegistered is returned when a start model or label already has a policy
	ErrAlreadyRegistered = errors.New("model caller already registered")
	// ErrConsentRequired is returned when a consent source is configured but the subject has no consent
	ErrConsentRequired = errors.New("subject has not consented")
	// ErrSubjectNotFound is returned by directory sources with no record for a subject
	ErrSubjectNotFound = errors.New("subject not found")
)

// ConfigurationError reports a policy that cannot be built or registered
type ConfigurationError struct {
	Model     string
	Attribute string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Model != "" && e.Attribute != "":
		return fmt.Sprintf("improperly configured model caller: %s has no attribute %q: %s", e.Model, e.Attribute, e.Reason)
	case e.Model != "":
		return fmt.Sprintf("improperly configured model caller for %s: %s", e.Model, e.Reason)
	default:
		return "improperly configured model caller: " + e.Reason
	}
}

// ValidationError reports an outcome that cannot be applied to a call
type ValidationError struct {
	CallID string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("call %s: %s", e.CallID, e.Reason)
}
