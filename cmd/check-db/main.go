// Package main is a diagnostic tool for testing database connectivity and
// inspecting live identity data. It connects to the database, queries the
// users, organizations, and organization_memberships tables, and prints a
// summary to stdout. The binary exits with a non-zero code on any failure so
// it can be embedded in health checks or CI/CD pipeline steps to gate
// deployments on a reachable, populated database.
package main

import (
	"fmt"
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
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	fmt.Println("=== USERS ===")
	rows, err := database.Query("SELECT id, clerk_id, email FROM users ORDER BY created_at")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	userCount := 0
	for rows.Next() {
		var id, email string
		var clerkID *string
		if err := rows.Scan(&id, &clerkID, &email); err != nil {
			log.Printf("Warning: failed to scan user row: %v", err)
			continue
		}
		linked := "unlinked"
		if clerkID != nil {
			linked = *clerkID
		}
		fmt.Printf("User: %s (%s, ID: %s)\n", email, linked, id)
		userCount++
	}

	fmt.Println("\n=== ORGANIZATIONS ===")
	rows2, err := database.Query("SELECT id, clerk_id, name FROM organizations ORDER BY created_at")
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows2.Close()

	orgCount := 0
	for rows2.Next() {
		var id, name string
		var clerkID *string
		if err := rows2.Scan(&id, &clerkID, &name); err != nil {
			log.Printf("Warning: failed to scan organization row: %v", err)
			continue
		}
		fmt.Printf("Organization: %s (ID: %s)\n", name, id)
		orgCount++
	}

	var membershipCount int
	if err := database.QueryRow("SELECT COUNT(*) FROM organization_memberships").Scan(&membershipCount); err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("\nTotals: %d users, %d organizations, %d memberships\n", userCount, orgCount, membershipCount)
}
