package db

import (
	"fmt"
	"log"
	"os"
)

// RunMigrateCommand handles the 'migrate' subcommand dispatching.
func RunMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		PrintMigrateHelp()
		os.Exit(1)
	}
	action := args[0]
	fsys := Migrations()

	database, err := NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.MigrateUp(fsys); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		version, dirty, _ := database.MigrateVersion(fsys)
		log.Printf("All migrations applied, current version: %d (dirty: %v)", version, dirty)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(fsys); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		version, dirty, _ := database.MigrateVersion(fsys)
		log.Printf("Migration rolled back, current version: %d (dirty: %v)", version, dirty)

	case "status":
		version, dirty, err := database.MigrateVersion(fsys)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		latest, err := LatestMigrationVersion(fsys)
		if err != nil {
			log.Fatalf("Failed to read migrations: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		fmt.Printf("Latest version:  %d\n", latest)
		fmt.Printf("Dirty: %v\n", dirty)
		if dirty {
			fmt.Println("\nWARNING: a migration failed mid-execution.")
			fmt.Println("Inspect the database, fix any issues, then run:")
			fmt.Println("  wallmask migrate force <version>")
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Usage: wallmask migrate force <version_number>")
		}
		var forceVersion int
		if _, err := fmt.Sscanf(args[1], "%d", &forceVersion); err != nil {
			log.Fatalf("Invalid version number: %s", args[1])
		}

		fmt.Printf("WARNING: forcing migration version to %d\n", forceVersion)
		fmt.Println("This should only be used to recover from a dirty migration state.")
		fmt.Print("Continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			log.Println("Aborted")
			os.Exit(0)
		}

		if err := database.MigrateForce(fsys, forceVersion); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("Migration version forced to %d", forceVersion)

	case "help":
		PrintMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp()
		os.Exit(1)
	}
}

// PrintMigrateHelp prints usage for the migrate subcommand.
func PrintMigrateHelp() {
	fmt.Println(`Usage: wallmask migrate <action>

Actions:
  up               Apply all pending migrations
  down             Roll back the most recent migration
  status           Show current and latest schema versions
  force <version>  Force the schema version (dirty-state recovery only)
  help             Show this help`)
}
