package example

import "call_manager_go/callers"

// Labels of the example model callers
const (
	FollowUpLabel = "follow-up"
	ReferralLabel = "referral"
)

var (
	consents = callers.ConsentTable[SubjectConsent]{OrderBy: "consent_datetime desc"}
	locators = callers.LocatorTable[SubjectLocator]{}
)

// App returns the example application with its model callers
func App() callers.App {
	return callers.App{Name: "example", ModelCallers: RegisterCallers}
}

// RegisterCallers registers the example model callers on site
func RegisterCallers(site *callers.CallerSite) error {
	_, err := site.Register(callers.Config{
		Name:          "Follow-up",
		Label:         FollowUpLabel,
		ConsentSource: consents,
		LocatorSource: locators,
		Interval:      callers.Weekly,
	}, FollowUpVisit{}, OffStudy{})
	if err != nil {
		return err
	}

	_, err = site.Register(callers.Config{
		Name:          "Referral",
		Label:         ReferralLabel,
		LocatorSource: locators,
	}, Referral{}, nil)
	return err
}

// Catalog exposes the example models and directory sources to callers manifests
func Catalog() callers.Catalog {
	return callers.Catalog{
		Models: map[string]callers.Trigger{
			FollowUpVisit{}.TableName(): FollowUpVisit{},
			OffStudy{}.TableName():      OffStudy{},
			Referral{}.TableName():      Referral{},
			Enrollment{}.TableName():    Enrollment{},
		},
		Consents: map[string]callers.ConsentSource{"subject_consent": consents},
		Locators: map[string]callers.LocatorSource{"subject_locator": locators},
	}
}
