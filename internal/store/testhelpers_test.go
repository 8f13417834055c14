package store

import (
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm/logger"
)

// testStore creates a Store backed by a temporary SQLite database.
func testStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "recordstore_test_*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	cfg := Config{
		SQLitePath: filepath.Join(tmpDir, "test.db"),
		MaxConns:   4,
		LogLevel:   logger.Silent,
	}

	store, err := NewStore(cfg)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("NewStore failed: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// int64p returns a pointer to v, for building record inputs.
func int64p(v int64) *int64 {
	return &v
}

// strp returns a pointer to s.
func strp(s string) *string {
	return &s
}
