package bootstrap

import (
	"fmt"
	"log"

	"call_manager_go/callers"
	"call_manager_go/config"
	"call_manager_go/db"
	"call_manager_go/events"
	"call_manager_go/example"
	"call_manager_go/models"
	"call_manager_go/services"

	"gorm.io/gorm"
)

// locatorSource is the catalog key of the subject locator directory
const locatorSource = "subject_locator"

// Runtime holds the wired persistence layer and caller registry shared by the commands
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB
	Bus    *events.Bus
	Site   *callers.CallerSite
}

// Setup opens the database, runs migrations and discovers every model caller.
// Record events are dispatched to the caller site from then on.
func Setup(cfg *config.Config) (*Runtime, error) {
	conn, err := db.Initialize(cfg.DBPath, cfg.Environment)
	if err != nil {
		return nil, err
	}

	rt, err := Wire(conn, cfg)
	if err != nil {
		db.Close(conn)
		return nil, err
	}
	return rt, nil
}

// Wire migrates conn and attaches the caller site to it
func Wire(conn *gorm.DB, cfg *config.Config) (*Runtime, error) {
	if err := db.AutoMigrate(conn, append(models.All(), example.Models()...)...); err != nil {
		return nil, err
	}

	bus := events.NewBus()
	if err := db.AttachEvents(conn, bus); err != nil {
		return nil, err
	}

	apps, err := installedApps(cfg)
	if err != nil {
		return nil, err
	}

	site := callers.NewCallerSite()
	site.SetLocation(cfg.Location())
	if err := site.Autodiscover(apps); err != nil {
		return nil, err
	}
	site.Subscribe(bus)

	catalog := example.Catalog()
	bus.Subscribe(services.RefreshLocatorOnSave(example.SubjectLocator{}.TableName(), catalog.Locators[locatorSource]))

	log.Printf("[CALLERS] Registered model callers: %v", site.Labels())
	return &Runtime{Config: cfg, DB: conn, Bus: bus, Site: site}, nil
}

func installedApps(cfg *config.Config) ([]callers.App, error) {
	apps := []callers.App{example.App()}
	if cfg.CallersManifest == "" {
		return apps, nil
	}

	manifest, err := callers.LoadManifest(cfg.CallersManifest)
	if err != nil {
		return nil, fmt.Errorf("failed to load callers manifest: %w", err)
	}
	log.Printf("[CALLERS] Loaded %d model callers from %s", len(manifest.Callers), cfg.CallersManifest)
	return append(apps, manifest.App("manifest", example.Catalog())), nil
}

// Close closes the database connection
func (r *Runtime) Close() error {
	return db.Close(r.DB)
}
