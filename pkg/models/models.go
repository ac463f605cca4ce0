package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeKind identifies the mutation a change-log entry describes.
type ChangeKind string

const (
	KindCreated     ChangeKind = "created"
	KindUpdated     ChangeKind = "updated"
	KindDeleted     ChangeKind = "deleted"
	KindTodoAdded   ChangeKind = "todo_added"
	KindTodoUpdated ChangeKind = "todo_updated"
	KindTodoDeleted ChangeKind = "todo_deleted"
	KindArchived    ChangeKind = "archived"
	KindUnarchived  ChangeKind = "unarchived"
)

// Card represents the internal domain model for a balance bucket.
// Amount is the remaining balance after every todo deduction.
type Card struct {
	ID           string              `gorm:"primaryKey;size:36"`
	Title        *string             `gorm:"type:text"`
	Amount       decimal.Decimal     `gorm:"type:text;not null"`
	LockedAmount decimal.NullDecimal `gorm:"type:text"`
	Archived     bool                `gorm:"index;not null;default:false"`
	ArchivedAt   *time.Time          `gorm:"index"`
	CreatedAt    time.Time           `gorm:"index;not null;autoCreateTime:false"`
	UpdatedAt    time.Time           `gorm:"index;not null;autoUpdateTime:false"`

	Todos []Todo `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}

// Todo is a line item owned by exactly one card.
// A nil Amount means the todo has no monetary effect.
type Todo struct {
	ID          string              `gorm:"primaryKey;size:36"`
	CardID      string              `gorm:"index;size:36;not null"`
	Title       string              `gorm:"type:text;not null"`
	Amount      decimal.NullDecimal `gorm:"type:text"`
	Done        bool                `gorm:"not null;default:false"`
	ScheduledAt *time.Time
	OrderIndex  int       `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"index;not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`
}

// Payload is the structured snapshot carried by a change-log entry.
type Payload map[string]any

// ChangeLog is an append-only audit record. It is not tied to the card by a
// foreign key so that history outlives deleted cards.
type ChangeLog struct {
	ID        string     `gorm:"primaryKey;size:36"`
	CardID    string     `gorm:"index;size:36;not null"`
	Kind      ChangeKind `gorm:"size:32;not null"`
	Payload   Payload    `gorm:"type:text;serializer:json"`
	CreatedAt time.Time  `gorm:"index;not null;autoCreateTime:false"`
}

// TableName keeps the audit table name stable.
func (ChangeLog) TableName() string {
	return "change_log"
}

// SearchResult is a derived, non-persisted match of a search query.
type SearchResult struct {
	CardID    string
	TodoID    *string
	CardTitle *string
	TodoTitle *string
	Snippet   string
}
