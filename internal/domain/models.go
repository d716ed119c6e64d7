// Package domain defines the persistence models for chats and messages.
// These types are mapped with GORM and form the core data layer of the
// conversation backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Message roles. Every persisted message is authored by exactly one of them.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat represents a conversation session owned by a single user. Each chat
// carries a title (auto-generated after the first exchange unless the user
// set one) and a derived message counter.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the chat owner; indexed for efficient retrieval.
//   - Title: human-readable chat title.
//   - TitleGenerated: one-way latch; false until auto-titling succeeds once,
//     then permanently true. Manual renames never reset it.
//   - MessageCount: number of persisted messages, maintained in the same
//     transaction as every message insert.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM; UpdatedAt is bumped
//     on every append so chats list most-recently-active first.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Chat struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id"         gorm:"type:varchar(64);not null;index:idx_user_chats"`
	Title          string         `json:"title"           gorm:"type:varchar(255);not null;default:'New Chat'"`
	TitleGenerated bool           `json:"title_generated" gorm:"not null;default:false"`
	MessageCount   int            `json:"message_count"   gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"      gorm:"index"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message represents a single immutable utterance within a chat, authored
// either by the "user" or the "assistant". Corrections happen by appending
// new messages, never by mutating existing rows.
//
// Ordering within a chat is (CreatedAt ASC, ID ASC); the ID acts as a
// deterministic tie-break when two rows land on the same timestamp.
type Message struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	ChatID    string         `json:"chat_id"    gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content   string         `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`

	// Chat is the parent conversation. Messages are cascade-deleted
	// if their chat is removed.
	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
