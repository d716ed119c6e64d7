package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/converseai/converse-backend/internal/domain"
)

func newStatsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("stats_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Chat{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestChatsStats_EmptyUser(t *testing.T) {
	db := newStatsDB(t)
	count, maxTS, err := ChatsStats(context.Background(), db, "nobody")
	if err != nil {
		t.Fatalf("ChatsStats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxTS)
	}
}

func TestChatsStats_CountAndLatestActivity(t *testing.T) {
	db := newStatsDB(t)

	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	newest := base.Add(2 * time.Hour)
	for _, c := range []domain.Chat{
		{ID: "a", UserID: "u1", Title: "t", UpdatedAt: base},
		{ID: "b", UserID: "u1", Title: "t", UpdatedAt: newest},
		{ID: "x", UserID: "u2", Title: "t", UpdatedAt: base.Add(9 * time.Hour)},
	} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	count, maxTS, err := ChatsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ChatsStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxTS == nil || !maxTS.Equal(newest) {
		t.Fatalf("expected max %v, got %v", newest, maxTS)
	}
}

func TestMessagesStats_EmptyChat(t *testing.T) {
	db := newStatsDB(t)
	count, maxTS, err := MessagesStats(context.Background(), db, "c1")
	if err != nil {
		t.Fatalf("MessagesStats: %v", err)
	}
	if count != 0 || maxTS != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxTS)
	}
}

func TestMessagesStats_CountAndNewestMessage(t *testing.T) {
	db := newStatsDB(t)

	base := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	newest := base.Add(time.Minute)
	for _, m := range []domain.Message{
		{ID: "m1", ChatID: "c1", Role: domain.RoleUser, Content: "a", CreatedAt: base},
		{ID: "m2", ChatID: "c1", Role: domain.RoleAssistant, Content: "b", CreatedAt: newest},
		{ID: "mx", ChatID: "other", Role: domain.RoleUser, Content: "c", CreatedAt: base.Add(time.Hour)},
	} {
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}

	count, maxTS, err := MessagesStats(context.Background(), db, "c1")
	if err != nil {
		t.Fatalf("MessagesStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxTS == nil || !maxTS.Equal(newest) {
		t.Fatalf("expected max %v, got %v", newest, maxTS)
	}
}
