package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/converseai/converse-backend/internal/domain"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "no", "such", "dir", "app.db"))
	if err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestOpenSQLite_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Schema must actually exist: a full create/append cycle works.
	chat, err := CreateChat(context.Background(), db, "u1", "t")
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	if _, err := AppendMessage(context.Background(), db, chat.ID, domain.RoleUser, "hi"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}

	// PRAGMAs applied: foreign keys on, WAL journal.
	var fk int
	if err := db.Raw("PRAGMA foreign_keys;").Scan(&fk).Error; err != nil {
		t.Fatalf("pragma foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestEnableTracing_NoError(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "traced.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := EnableTracing(db); err != nil {
		t.Fatalf("EnableTracing: %v", err)
	}
	// Queries still work with the plugin installed.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate after tracing: %v", err)
	}
}
