package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"letterdrop/config"
	"letterdrop/pkg/database"
)

const usage = `
Letterdrop - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply the GORM schema
  status      Show database connection status and table counts
  seed-dev    Seed with development/test data
  reset       Drop all tables and re-apply the schema (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed-dev
  go run cmd/migrate/main.go reset
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed-dev":
		runSeedDevelopment()
	case "reset":
		runReset()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func showStatus() {
	if err := database.Ping(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	tables := []string{"posts", "subscribers", "outbox_events", "sends"}
	for _, table := range tables {
		if !database.TableExists(table) {
			log.Printf("Table %-15s does not exist", table)
			continue
		}
		count, _ := database.TableCount(table)
		log.Printf("Table %-15s exists (%d rows)", table, count)
	}

	if err := database.HealthCheck(); err != nil {
		log.Printf("Health check warning: %v", err)
	} else {
		log.Println("Health check: PASSED")
	}
}

func runSeedDevelopment() {
	log.Println("Seeding database (development mode)...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	result, err := database.SeedDevelopment()
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d subscribers, %d posts", len(result.Subscribers), len(result.Posts))
}

func runReset() {
	log.Println("WARNING: This will DROP all tables and re-apply the schema")
	if err := database.DropAll(); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database reset completed")
}
