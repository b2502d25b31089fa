package callers

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest lists model callers to register from configuration
type Manifest struct {
	Callers []ManifestEntry `yaml:"callers"`
}

// ManifestEntry describes one registration. Models and sources are referenced by name
// and resolved against a Catalog.
type ManifestEntry struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	StartModel  string `yaml:"start_model"`
	StopModel   string `yaml:"stop_model"`
	Interval    string `yaml:"interval"`
	RepeatTimes int    `yaml:"repeat_times"`
	Consent     string `yaml:"consent"`
	Locator     string `yaml:"locator"`
	ForeignKey  string `yaml:"foreign_key"`
}

// Catalog holds the models and directory sources a manifest may reference
type Catalog struct {
	Models   map[string]Trigger
	Consents map[string]ConsentSource
	Locators map[string]LocatorSource
}

// LoadManifest reads a YAML manifest from path
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes a YAML manifest
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i, entry := range m.Callers {
		if entry.StartModel == "" {
			return nil, fmt.Errorf("manifest entry %d has no start_model", i+1)
		}
	}
	return &m, nil
}

// App returns an installed app whose hook registers every manifest entry
func (m *Manifest) App(name string, catalog Catalog) App {
	return App{
		Name: name,
		ModelCallers: func(site *CallerSite) error {
			for _, entry := range m.Callers {
				cfg, start, stop, err := entry.resolve(catalog)
				if err != nil {
					return err
				}
				if _, err := site.Register(cfg, start, stop); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (e ManifestEntry) resolve(catalog Catalog) (Config, Trigger, Trigger, error) {
	start, ok := catalog.Models[e.StartModel]
	if !ok {
		return Config{}, nil, nil, &ConfigurationError{Model: e.StartModel, Reason: "unknown start model"}
	}

	var stop Trigger
	if e.StopModel != "" {
		if stop, ok = catalog.Models[e.StopModel]; !ok {
			return Config{}, nil, nil, &ConfigurationError{Model: e.StopModel, Reason: "unknown stop model"}
		}
	}

	interval, err := ParseInterval(e.Interval)
	if err != nil {
		return Config{}, nil, nil, &ConfigurationError{Model: e.StartModel, Reason: err.Error()}
	}

	cfg := Config{
		Name:        e.Name,
		Label:       e.Label,
		Interval:    interval,
		RepeatTimes: e.RepeatTimes,
		ForeignKey:  e.ForeignKey,
	}
	if e.Consent != "" {
		if cfg.ConsentSource, ok = catalog.Consents[e.Consent]; !ok {
			return Config{}, nil, nil, &ConfigurationError{Model: e.StartModel, Reason: fmt.Sprintf("unknown consent source %s", e.Consent)}
		}
	}
	if e.Locator != "" {
		if cfg.LocatorSource, ok = catalog.Locators[e.Locator]; !ok {
			return Config{}, nil, nil, &ConfigurationError{Model: e.StartModel, Reason: fmt.Sprintf("unknown locator source %s", e.Locator)}
		}
	}
	return cfg, start, stop, nil
}
