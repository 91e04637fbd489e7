// Package database provides SQLite connection management for Sceneforge Core.
//
// Sceneforge persists render batches and per-scene outcomes in a single
// SQLite file. This package handles:
//   - Opening the database with WAL mode and busy-timeout pragmas
//   - Embedded schema migrations (applied at startup)
//   - Health checks for the /health endpoint
//   - Connection lifecycle (single writer, per SQLite's model)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/sceneforge.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
