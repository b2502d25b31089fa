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
	"call_manager_go/services"
)

const usage = `usage:
  sync-calls export [-label LABEL] [-workbook]
  sync-calls import [-key STORAGE_KEY | FILE]`

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
	case "export":
		err = runExport(ctx, rt, storage, os.Args[2:])
	case "import":
		err = runImport(ctx, rt, storage, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		rt.Close()
		os.Exit(2)
	}
	if err != nil {
		rt.Close()
		log.Fatalf("sync-calls %s failed: %v", os.Args[1], err)
	}
}

func runExport(ctx context.Context, rt *bootstrap.Runtime, storage services.StorageProvider, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	label := fs.String("label", "", "export only the calls of this label")
	workbook := fs.Bool("workbook", false, "also write an Excel workbook")
	fs.Parse(args)

	bundle, err := services.ExportCalls(rt.DB, *label)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := services.WriteBundle(&buf, bundle); err != nil {
		return err
	}
	if err := upload(ctx, storage, &buf, services.GenerateExportKey(*label, bundle.ExportedAt, ".json"), services.ContentTypeJSON); err != nil {
		return err
	}

	if *workbook {
		xlsx, err := services.ExportWorkbook(bundle)
		if err != nil {
			return err
		}
		if err := upload(ctx, storage, xlsx, services.GenerateExportKey(*label, bundle.ExportedAt, ".xlsx"), services.ContentTypeXLSX); err != nil {
			return err
		}
	}
	return nil
}

func upload(ctx context.Context, storage services.StorageProvider, buf *bytes.Buffer, key, contentType string) error {
	result, err := storage.UploadReader(ctx, bytes.NewReader(buf.Bytes()), key, contentType, int64(buf.Len()))
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
	key := fs.String("key", "", "read the bundle from export storage")
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
			return fmt.Errorf("failed to open bundle: %w", err)
		}
		reader = f
	default:
		return fmt.Errorf("a storage key or a file is required")
	}
	defer reader.Close()

	bundle, err := services.ReadBundle(reader)
	if err != nil {
		return err
	}

	result, err := services.ImportCalls(rt.DB, bundle)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		log.Printf("[WARNING] %s", msg)
	}
	fmt.Printf("Imported %d records: %d created, %d updated, %d failed\n",
		result.TotalProcessed, result.CreatedCount, result.UpdatedCount, result.FailedCount)
	return nil
}
