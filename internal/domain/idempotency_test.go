package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueKey_AndInsert(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_chat_key") {
		t.Fatalf("expected composite index ux_user_chat_key to exist")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:        "id-1",
		UserID:    "u1",
		ChatID:    "c1",
		Key:       "k1",
		MessageID: "m1",
		Status:    200,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.UserID != "u1" || got.ChatID != "c1" || got.Key != "k1" || got.MessageID != "m1" || got.Status != 200 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.ExpiresAt.After(got.CreatedAt) {
		t.Fatalf("ExpiresAt should be after CreatedAt: %v vs %v", got.ExpiresAt, got.CreatedAt)
	}

	// (user_id, chat_id, key) must be unique; a second record under the same
	// tuple is a violation regardless of its own id.
	dup := &Idempotency{
		ID:        "id-2",
		UserID:    "u1",
		ChatID:    "c1",
		Key:       "k1",
		MessageID: "m2",
		Status:    200,
		CreatedAt: now,
		ExpiresAt: now.Add(2 * time.Hour),
	}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (user_id, chat_id, key)")
	}

	// A different key under the same chat is fine.
	other := &Idempotency{
		ID:        "id-3",
		UserID:    "u1",
		ChatID:    "c1",
		Key:       "k2",
		MessageID: "m2",
		Status:    200,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("insert distinct key: %v", err)
	}
}
