// Command surveydb manages a survey archive: a sqlite file that accumulates
// sample shots and trip logs across recording sessions so the simulator can
// replay them as one dataset.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajayre/fieldlevelingsimulator/internal/field"
	"github.com/ajayre/fieldlevelingsimulator/internal/survey"
	"github.com/ajayre/fieldlevelingsimulator/internal/surveydb"
)

func main() {
	dbPath := flag.String("db", "survey.db", "path to the survey archive")
	verbose := flag.Bool("v", false, "log load and import diagnostics to stderr")
	flag.Parse()

	if *verbose {
		field.SetLogWriters(field.LogWriters{Ops: os.Stderr, Diag: os.Stderr})
	} else {
		field.SetLogWriters(field.LogWriters{Ops: os.Stderr})
	}

	args := flag.Args()
	if len(args) < 1 {
		printHelp()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		runMigrate(args[1:], *dbPath)

	case "import":
		runImport(args[1:], *dbPath)

	case "info":
		runInfo(*dbPath)

	case "help":
		printHelp()

	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printHelp()
		os.Exit(1)
	}
}

// runMigrate handles the 'migrate' subcommand dispatching.
func runMigrate(args []string, dbPath string) {
	if len(args) < 1 {
		printMigrateHelp()
		os.Exit(1)
	}

	db, err := surveydb.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "up":
		log.Printf("Running migrations...")
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion()
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		version, dirty, _ := db.MigrateVersion()
		log.Printf("Current version: %d (dirty: %v)", version, dirty)

	case "status":
		version, dirty, err := db.MigrateVersion()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		latest, err := surveydb.LatestMigrationVersion()
		if err != nil {
			log.Fatalf("Failed to get latest migration version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Latest available: %d\n", latest)
		fmt.Printf("Dirty: %v\n", dirty)
		if dirty {
			fmt.Println()
			fmt.Println("A migration failed mid-execution. Inspect the archive, fix any")
			fmt.Println("issues, then run: surveydb migrate force <version>")
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: surveydb migrate force <version>")
		}
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}
		if err := db.MigrateForce(version); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("Migration version forced to %d", version)

	case "help":
		printMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", args[0])
		printMigrateHelp()
		os.Exit(1)
	}
}

// runImport loads a survey file and stores it as one batch. The archive is
// migrated to the latest schema first so a fresh file just works.
func runImport(args []string, dbPath string) {
	if len(args) < 2 {
		log.Fatal("Usage: surveydb import <samples|trips> <file>")
	}
	kind, path := args[0], args[1]

	db, err := surveydb.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		log.Fatalf("Failed to migrate archive: %v", err)
	}

	switch kind {
	case "samples":
		samples, skipped, err := survey.LoadSamplesCSV(path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		batch, err := db.ImportSamples(filepath.Base(path), samples)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d samples from %s (%d malformed rows skipped)\n", len(samples), path, skipped)
		fmt.Printf("Batch: %s\n", batch)

	case "trips":
		trips, skipped, err := loadTrips(path)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		batch, err := db.ImportTrips(filepath.Base(path), trips)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d trips from %s (%d malformed rows skipped)\n", len(trips), path, skipped)
		fmt.Printf("Batch: %s\n", batch)

	default:
		log.Fatalf("Unknown import kind %q (valid: samples, trips)", kind)
	}
}

// loadTrips picks the loader by file extension: .xml is the recorder export,
// anything else is treated as CSV. The XML loader is strict, so it reports
// zero skipped rows.
func loadTrips(path string) ([]field.TripRecord, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		trips, err := survey.LoadTripsXML(path)
		return trips, 0, err
	}
	return survey.LoadTripsCSV(path)
}

// runInfo summarises the archive: schema version, record counts and the
// recorded imports.
func runInfo(dbPath string) {
	db, err := surveydb.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to get schema version: %v", err)
	}

	fmt.Printf("Archive: %s\n", dbPath)
	fmt.Printf("Schema version: %d (dirty: %v)\n", version, dirty)

	if version == 0 {
		fmt.Println()
		fmt.Println("Archive has no schema yet. Run 'surveydb migrate up' first.")
		return
	}

	samples, trips, err := db.Counts()
	if err != nil {
		log.Fatalf("Failed to count records: %v", err)
	}
	fmt.Printf("Samples: %d\n", samples)
	fmt.Printf("Trips: %d\n", trips)

	batches, err := db.ListBatches()
	if err != nil {
		log.Fatalf("Failed to list imports: %v", err)
	}
	if len(batches) == 0 {
		fmt.Println("No imports recorded.")
		return
	}

	fmt.Println()
	fmt.Println("Imports:")
	for _, b := range batches {
		when := time.Unix(b.CreatedAt, 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Printf("  %s  %-7s  %6d rows  %s  (batch %s)\n", when, b.Kind, b.RowCount, b.Source, b.ID)
	}
}

// printHelp displays the top-level help message.
func printHelp() {
	fmt.Println("Survey Archive Tool")
	fmt.Println()
	fmt.Println("Usage: surveydb [options] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  import samples <file>   Import a sample CSV (plain or gzipped)")
	fmt.Println("  import trips <file>     Import a trip log (CSV or recorder XML)")
	fmt.Println("  info                    Show schema version, counts and imports")
	fmt.Println("  migrate <action>        Manage the archive schema")
	fmt.Println("  help                    Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -db <path>   Path to the survey archive (default: survey.db)")
	fmt.Println("  -v           Log load and import diagnostics to stderr")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  surveydb -db field7.db import samples stakeout.csv.gz")
	fmt.Println("  surveydb -db field7.db import trips trips.xml")
	fmt.Println("  surveydb -db field7.db info")
}

// printMigrateHelp displays the help message for the migrate command.
func printMigrateHelp() {
	fmt.Println("Archive Migration Commands")
	fmt.Println()
	fmt.Println("Usage: surveydb [options] migrate <action>")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  up              Apply all pending migrations")
	fmt.Println("  down            Rollback one migration")
	fmt.Println("  status          Show current migration status and version")
	fmt.Println("  force <N>       Force migration version to N (recovery only)")
	fmt.Println("  help            Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  surveydb migrate up")
	fmt.Println("  surveydb migrate status")
	fmt.Println("  surveydb migrate force 2")
}
