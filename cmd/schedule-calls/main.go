package main

import (
	"fmt"
	"log"
	"os"

	"call_manager_go/bootstrap"
	"call_manager_go/config"
	"call_manager_go/services"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: schedule-calls <start model or label>")
		os.Exit(2)
	}
	model := os.Args[1]

	// Load configuration
	cfg := config.Load()

	rt, err := bootstrap.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer rt.Close()

	result, err := services.ScheduleMissingCalls(rt.DB, rt.Site, model)
	if err != nil {
		rt.Close()
		log.Fatalf("Failed to schedule calls: %v (registered: %v)", err, rt.Site.Models())
	}

	for _, msg := range result.Errors {
		log.Printf("[WARNING] %s", msg)
	}

	fmt.Printf("Scheduled %d calls for %s (%s): %d records, %d already scheduled\n",
		result.ScheduledCount, result.Model, result.Label, result.TotalProcessed, result.SkippedCount)
}
