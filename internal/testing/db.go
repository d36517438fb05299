package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/dealradar/dealradar/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temporary SQLite database for testing with the
// catalog schema applied. Returns the database instance and a cleanup
// function that closes the connection and removes the file. The cleanup
// function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	// Temporary files ensure each test gets its own isolated database
	tmpFile, err := os.CreateTemp("", "test_catalog_*.db")
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path: tmpPath,
		Name: "catalog",
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	closed := false
	cleanup := func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close test database: %v\n", err)
		}
		_ = os.Remove(tmpPath)
		// WAL sidecar files
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
	}

	return db, cleanup
}
