package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"inventory-dashboard/internal/auth"
	"inventory-dashboard/internal/client"
	"inventory-dashboard/internal/config"
	"inventory-dashboard/pkg/importer"
)

func main() {
	var (
		filePath    = flag.String("file", "", "Workbook to import (.xlsx)")
		mappingPath = flag.String("mapping", "", "YAML header mapping (defaults to IMPORT_MAPPING)")
		dryRun      = flag.Bool("dry-run", false, "Validate rows without saving")
		maxErrors   = flag.Int("max-errors", 50, "Abort after this many row errors")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Println("Error: file is required")
		fmt.Println("Usage: import_excel -file=path.xlsx [-mapping=...] [-dry-run]")
		os.Exit(1)
	}

	cfg := config.Load()
	if *mappingPath == "" {
		*mappingPath = cfg.ImportMapping
	}

	// Reuse the session stored by invctl login
	sess, err := auth.NewFileStore(cfg.SessionFile).Load()
	if err != nil {
		log.Fatalf("Failed to read session: %v", err)
	}
	if !sess.Authenticated() {
		log.Fatal("Not logged in: run invctl login first")
	}
	api := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.HTTPTimeout)).WithSession(sess)

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("Failed to open Excel file: %v", err)
	}
	defer file.Close()

	fmt.Printf("Importing from %s to %s (dry_run=%v)\n", *filePath, cfg.APIBaseURL, *dryRun)
	fmt.Println("=" + strings.Repeat("=", 60))

	summary, err := importer.Import(context.Background(), api, file, importer.ImportOptions{
		MappingPath: *mappingPath,
		DryRun:      *dryRun,
		MaxErrors:   *maxErrors,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total updated: %d\n", summary.Updated)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Sheets) > 0 {
		fmt.Println("\nSheet Details:")
		for _, sheet := range summary.Sheets {
			fmt.Printf("  %s: inserted=%d, updated=%d, skipped=%d, errors=%d\n",
				sheet.Name, sheet.Inserted, sheet.Updated, sheet.Skipped, sheet.Errors)

			if len(sheet.Samples) > 0 {
				fmt.Printf("    Error samples:\n")
				for _, sample := range sheet.Samples {
					fmt.Printf("      Row %d: %s\n", sample.Row, sample.Message)
				}
			}
		}
	}
}
