package main

import (
	"flag"
	"fmt"
	"html"
	"log"
	"os"
	"strings"

	"call_manager_go/bootstrap"
	"call_manager_go/config"
	"call_manager_go/models"
	"call_manager_go/services"
)

const usage = `usage:
  call-log list [-label LABEL] [-subject ID] [-status NEW,OPEN]
  call-log show CALL_ID
  call-log notes CALL_ID TEXT`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg := config.Load()

	rt, err := bootstrap.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer rt.Close()

	switch os.Args[1] {
	case "list":
		err = runList(rt, os.Args[2:])
	case "show":
		err = runShow(rt, os.Args[2:])
	case "notes":
		err = runNotes(rt, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		rt.Close()
		os.Exit(2)
	}
	if err != nil {
		rt.Close()
		log.Fatalf("call-log %s failed: %v", os.Args[1], err)
	}
}

func runList(rt *bootstrap.Runtime, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	label := fs.String("label", "", "only calls of this label")
	subject := fs.String("subject", "", "only calls of this subject")
	status := fs.String("status", "", "comma separated statuses")
	fs.Parse(args)

	filter := services.CallFilter{Label: *label, SubjectIdentifier: *subject}
	if *status != "" {
		for _, s := range strings.Split(*status, ",") {
			filter.Statuses = append(filter.Statuses, strings.ToUpper(strings.TrimSpace(s)))
		}
	}

	calls, err := services.ListCalls(rt.DB, filter)
	if err != nil {
		return err
	}
	for i := range calls {
		c := &calls[i]
		fmt.Printf("%s  %s  %-12s %s\n", c.ID, c.Scheduled.Format("2006-01-02"), c.Label, c.String())
	}
	fmt.Printf("%d calls\n", len(calls))
	return nil
}

func runShow(rt *bootstrap.Runtime, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("a call id is required")
	}

	call, err := services.GetCallByID(rt.DB, args[0])
	if err != nil {
		return err
	}
	callLog, err := services.GetCallLog(rt.DB, call.ID)
	if err != nil {
		return err
	}
	entries, err := services.ListLogEntries(rt.DB, callLog.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", call.String())
	fmt.Printf("Scheduled: %s  Attempts: %d  Outcome: %s\n",
		call.Scheduled.Format("2006-01-02"), call.CallAttempts, call.CallOutcome)
	fmt.Printf("Locator: %s\n", html.UnescapeString(callLog.LocatorInformation))
	if callLog.ContactNotes != "" {
		fmt.Printf("Notes: %s\n", html.UnescapeString(callLog.ContactNotes))
	}
	for _, e := range entries {
		fmt.Printf("  %s  %-12s %-10s %s\n", e.CallDatetime.Format("2006-01-02 15:04"),
			models.ChoiceLabel(models.ContactTypeChoices, e.ContactType), e.CallReason, e.OutcomeText())
	}
	return nil
}

func runNotes(rt *bootstrap.Runtime, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("a call id and the notes are required")
	}

	callLog, err := services.GetCallLog(rt.DB, args[0])
	if err != nil {
		return err
	}
	if err := services.UpdateContactNotes(rt.DB, callLog.ID, args[1]); err != nil {
		return err
	}
	fmt.Printf("Updated notes of %s\n", callLog.String())
	return nil
}
