package domain

import (
	"time"

	"github.com/google/uuid"
)

// Base carries identity and audit state shared by every aggregate.
// Audit fields are stamped by the unit of work at save time; application
// code never writes them directly.
type Base struct {
	ID               uuid.UUID
	CreatedAt        time.Time
	CreatedByUserID  *uuid.UUID
	ModifiedAt       *time.Time
	ModifiedByUserID *uuid.UUID
	DeletedAt        *time.Time
	DeletedByUserID  *uuid.UUID
	IsDeleted        bool
}

func newBase() Base {
	return Base{ID: uuid.New()}
}

// Meta exposes the audit block to the persistence layer.
func (b *Base) Meta() *Base { return b }

// MarkDeleted flips the soft-delete flag. The row stays in storage and is
// filtered out by the repository's default predicate.
func (b *Base) MarkDeleted() {
	b.IsDeleted = true
}

func (b *Base) UndoDelete() {
	b.IsDeleted = false
	b.DeletedAt = nil
	b.DeletedByUserID = nil
}
