package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type change func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error)

// UnitOfWork stages writes from any number of repositories and applies
// them atomically. One instance serves one logical operation and is not
// safe for concurrent use.
type UnitOfWork struct {
	DB      *sql.DB
	Now     func() time.Time
	tx      *sql.Tx
	pending []change
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{DB: db, Now: time.Now}
}

func (u *UnitOfWork) stage(c change) {
	u.pending = append(u.pending, c)
}

// StageFunc lets collaborators outside the repositories join the batch,
// for example the audit event writer. The returned row count takes part
// in the save total, so side writes should report zero.
func (u *UnitOfWork) StageFunc(fn func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error)) {
	u.stage(fn)
}

func (u *UnitOfWork) querier() Queryer {
	if u.tx != nil {
		return u.tx
	}
	return u.DB
}

// SaveChanges applies all staged changes in order and returns the total
// rows affected. Without an explicit transaction it opens one for the
// batch; inside an explicit transaction it only flushes. The actor stamps
// every touched audit block.
func (u *UnitOfWork) SaveChanges(ctx context.Context, actorID uuid.UUID) (int64, error) {
	if len(u.pending) == 0 {
		return 0, nil
	}
	now := u.Now().UTC()
	local := u.tx == nil
	tx := u.tx
	if local {
		var err error
		tx, err = u.DB.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()
	}
	var affected int64
	for _, c := range u.pending {
		n, err := c(ctx, tx, actorID, now)
		if err != nil {
			return 0, err
		}
		affected += n
	}
	if local {
		if err := tx.Commit(); err != nil {
			return 0, err
		}
	}
	u.pending = nil
	return affected, nil
}

// BeginTransaction opens an explicit transaction spanning several saves.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already open")
	}
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	u.tx = tx
	return nil
}

// CommitTransaction flushes remaining staged changes and commits. A flush
// failure rolls the whole transaction back.
func (u *UnitOfWork) CommitTransaction(ctx context.Context, actorID uuid.UUID) error {
	if u.tx == nil {
		return fmt.Errorf("no open transaction")
	}
	if _, err := u.SaveChanges(ctx, actorID); err != nil {
		u.RollbackTransaction()
		return err
	}
	err := u.tx.Commit()
	u.tx = nil
	return err
}

func (u *UnitOfWork) RollbackTransaction() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.tx = nil
	u.pending = nil
	return err
}

// Close releases the unit of work unconditionally. Any open transaction
// is rolled back and staged changes are dropped.
func (u *UnitOfWork) Close() {
	if u.tx != nil {
		_ = u.tx.Rollback()
		u.tx = nil
	}
	u.pending = nil
}
