// Package main is a repair tool for dirty migration state in the identity
// sync database. Dirty state occurs when the golang-migrate runner marks a
// migration version as in-progress (dirty=true) but the migration process was
// interrupted by a crash or timeout before it could complete. This tool
// connects to the database, checks the schema_migrations table, and clears the
// dirty flag so that the migration runner can retry cleanly on the next server
// startup — avoiding the "Dirty database version" error that would otherwise
// block the service from starting.
package main

import (
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/identity-sync/identity-sync/internal/config"
	"github.com/identity-sync/identity-sync/internal/db"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	log.Println("Connected to database successfully")

	// Check current migration state
	var version int
	var dirty bool
	err = database.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if err != nil {
		log.Fatalf("Failed to check migration state: %v", err)
	}

	log.Printf("Current migration state: version=%d, dirty=%v", version, dirty)

	if dirty {
		log.Println("Fixing dirty migration state...")
		_, err = database.Exec("UPDATE schema_migrations SET dirty = false")
		if err != nil {
			log.Fatalf("Failed to fix dirty state: %v", err)
		}
		log.Println("Migration state fixed successfully")
	} else {
		log.Println("Migration state is already clean")
	}

	// Show final state
	err = database.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if err != nil {
		log.Fatalf("Failed to check final migration state: %v", err)
	}

	log.Printf("Final migration state: version=%d, dirty=%v", version, dirty)
}
