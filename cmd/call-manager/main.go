package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"call_manager_go/bootstrap"
	"call_manager_go/config"
	"call_manager_go/services/jobs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	rt, err := bootstrap.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer rt.Close()

	if cfg.SweepOnStart {
		jobs.SweepMissingCalls(rt.DB, rt.Site)
	}

	scheduler, err := jobs.StartScheduler(rt.DB, rt.Site, cfg)
	if err != nil {
		rt.Close()
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if scheduler != nil {
		// Wait for a running sweep to finish
		<-scheduler.Stop().Done()
	}
}
