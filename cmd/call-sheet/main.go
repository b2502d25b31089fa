package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"call_manager_go/bootstrap"
	"call_manager_go/config"
	"call_manager_go/models"
	"call_manager_go/services"
)

const usage = `usage:
  call-sheet generate [-day YYYY-MM-DD] [-o FILE]
  call-sheet import [-key STORAGE_KEY [-remove] | FILE]`

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

	ctx := context.Background()
	storage := services.NewStorage(ctx, cfg)

	switch os.Args[1] {
	case "generate":
		err = runGenerate(ctx, rt, storage, os.Args[2:])
	case "import":
		err = runImport(ctx, rt, storage, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		rt.Close()
		os.Exit(2)
	}
	if err != nil {
		rt.Close()
		log.Fatalf("call-sheet %s failed: %v", os.Args[1], err)
	}
}

func runGenerate(ctx context.Context, rt *bootstrap.Runtime, storage services.StorageProvider, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	dayFlag := fs.String("day", "", "list the calls due on this day (default today)")
	out := fs.String("o", "", "write the sheet to this file instead of export storage")
	fs.Parse(args)

	day := models.Today(rt.Config.Location())
	if *dayFlag != "" {
		parsed, err := services.ParseDate(*dayFlag)
		if err != nil {
			return err
		}
		day = parsed
	}

	sheet, err := services.GenerateCallSheet(rt.DB, day)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, sheet.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write call sheet: %w", err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", *out, sheet.Len())
		return nil
	}

	key := services.GenerateExportKey("call-sheets", day, ".xlsx")
	result, err := storage.UploadReader(ctx, bytes.NewReader(sheet.Bytes()), key, services.ContentTypeXLSX, int64(sheet.Len()))
	if err != nil {
		return err
	}
	location := result.URL
	if signed, err := storage.GetSignedURL(ctx, key, 24*time.Hour); err == nil {
		location = signed
	}
	fmt.Printf("Wrote %s (%d bytes): %s\n", result.Key, result.FileSize, location)
	return nil
}

func runImport(ctx context.Context, rt *bootstrap.Runtime, storage services.StorageProvider, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	key := fs.String("key", "", "read the filled sheet from export storage")
	remove := fs.Bool("remove", false, "delete the sheet from export storage when every row was recorded")
	fs.Parse(args)

	var reader io.ReadCloser
	switch {
	case *key != "":
		r, _, err := storage.Get(ctx, *key)
		if err != nil {
			return err
		}
		reader = r
	case fs.NArg() == 1:
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("failed to open call sheet: %w", err)
		}
		reader = f
	default:
		return fmt.Errorf("a storage key or a file is required")
	}
	defer reader.Close()

	// the sheet is read twice, once to count and once to record
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read call sheet: %w", err)
	}

	count, err := services.AnalyzeCallSheet(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("No attempts to record")
		return nil
	}

	result, err := services.ImportCallSheet(rt.DB, bytes.NewReader(data), rt.Config.Location())
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		log.Printf("[WARNING] %s", msg)
	}
	fmt.Printf("Recorded %d of %d attempts, %d failed\n", result.CreatedCount, result.TotalProcessed, result.FailedCount)

	if *remove && *key != "" && result.FailedCount == 0 {
		if err := storage.Delete(ctx, *key); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", *key)
	}
	return nil
}
