package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

// Entity is anything carrying the shared audit block.
type Entity interface {
	Meta() *domain.Base
}

// RowScanner is satisfied by *sql.Row and *sql.Rows.
type RowScanner interface {
	Scan(dest ...any) error
}

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Mapper binds an aggregate to its table. Column order is fixed: id first,
// domain columns, then the audit columns; Scan and Values follow it.
type Mapper[T Entity] interface {
	Table() string
	Columns() []string
	Scan(row RowScanner) (T, error)
	Values(e T) []any
	Relations(ctx context.Context, q Queryer, e T, includes []string) error
}

// Query narrows reads. Where is a SQL fragment with ? placeholders; the
// soft-delete predicate is always prepended unless IncludeDeleted is set.
type Query struct {
	Where          string
	Args           []any
	OrderBy        string
	PageNumber     int
	PageSize       int
	Includes       []string
	IncludeDeleted bool
}

func Where(expr string, args ...any) Query {
	return Query{Where: expr, Args: args}
}

// Repository is a read/stage facade over one table. Reads always hit
// storage directly; writes are staged on the owning unit of work until
// SaveChanges.
type Repository[T Entity] struct {
	uow *UnitOfWork
	m   Mapper[T]
}

func NewRepository[T Entity](uow *UnitOfWork, m Mapper[T]) Repository[T] {
	return Repository[T]{uow: uow, m: m}
}

func (r Repository[T]) whereClause(q Query) (string, []any) {
	clauses := []string{}
	var args []any
	if !q.IncludeDeleted {
		clauses = append(clauses, "is_deleted=0")
	}
	if q.Where != "" {
		clauses = append(clauses, "("+q.Where+")")
		args = append(args, q.Args...)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r Repository[T]) Count(ctx context.Context, q Query) (int64, error) {
	where, args := r.whereClause(q)
	var n int64
	err := r.uow.querier().QueryRowContext(ctx, `SELECT count(*) FROM `+r.m.Table()+where, args...).Scan(&n)
	return n, err
}

// GetAll applies filter, order and pagination in that order, then loads
// requested relations.
func (r Repository[T]) GetAll(ctx context.Context, q Query) ([]T, error) {
	where, args := r.whereClause(q)
	query := `SELECT ` + strings.Join(r.m.Columns(), ",") + ` FROM ` + r.m.Table() + where
	if q.OrderBy != "" {
		query += " ORDER BY " + q.OrderBy
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}
	if q.PageSize > 0 {
		page := q.PageNumber
		if page < 1 {
			page = 1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.PageSize, (page-1)*q.PageSize)
	}
	rows, err := r.uow.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []T
	for rows.Next() {
		e, err := r.m.Scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range res {
		if err := r.m.Relations(ctx, r.uow.querier(), e, q.Includes); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// GetByID returns the zero value without error when no row matches;
// callers translate absence into their own catalog error.
func (r Repository[T]) GetByID(ctx context.Context, id uuid.UUID, includes ...string) (T, error) {
	return r.FirstOrDefault(ctx, Query{Where: "id=?", Args: []any{id.String()}, Includes: includes})
}

func (r Repository[T]) FirstOrDefault(ctx context.Context, q Query) (T, error) {
	var zero T
	where, args := r.whereClause(q)
	query := `SELECT ` + strings.Join(r.m.Columns(), ",") + ` FROM ` + r.m.Table() + where + ` LIMIT 1`
	e, err := r.m.Scan(r.uow.querier().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return zero, nil
	}
	if err != nil {
		return zero, err
	}
	if err := r.m.Relations(ctx, r.uow.querier(), e, q.Includes); err != nil {
		return zero, err
	}
	return e, nil
}

func (r Repository[T]) IsExist(ctx context.Context, q Query) (bool, error) {
	where, args := r.whereClause(q)
	var n int
	err := r.uow.querier().QueryRowContext(ctx, `SELECT 1 FROM `+r.m.Table()+where+` LIMIT 1`, args...).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// Create stages an insert. The audit block is stamped when SaveChanges
// runs, not here.
func (r Repository[T]) Create(e T) {
	m := r.m
	r.uow.stage(func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error) {
		base := e.Meta()
		base.CreatedAt = now
		if actorID != uuid.Nil {
			actor := actorID
			base.CreatedByUserID = &actor
		}
		cols := m.Columns()
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
		res, err := tx.ExecContext(ctx,
			`INSERT INTO `+m.Table()+`(`+strings.Join(cols, ",")+`) VALUES (`+placeholders+`)`,
			m.Values(e)...)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", m.Table(), err)
		}
		n, _ := res.RowsAffected()
		return n, nil
	})
}

func (r Repository[T]) Update(e T) {
	m := r.m
	r.uow.stage(func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error) {
		base := e.Meta()
		ts := now
		base.ModifiedAt = &ts
		if actorID != uuid.Nil {
			actor := actorID
			base.ModifiedByUserID = &actor
		}
		cols := m.Columns()
		sets := make([]string, 0, len(cols)-1)
		for _, c := range cols[1:] {
			sets = append(sets, c+"=?")
		}
		args := append(m.Values(e)[1:], base.ID.String())
		res, err := tx.ExecContext(ctx,
			`UPDATE `+m.Table()+` SET `+strings.Join(sets, ",")+` WHERE id=?`, args...)
		if err != nil {
			return 0, fmt.Errorf("update %s: %w", m.Table(), err)
		}
		n, _ := res.RowsAffected()
		return n, nil
	})
}

// Delete stages a soft delete; the row is kept and flagged.
func (r Repository[T]) Delete(e T) {
	m := r.m
	r.uow.stage(func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error) {
		base := e.Meta()
		base.MarkDeleted()
		ts := now
		base.DeletedAt = &ts
		if actorID != uuid.Nil {
			actor := actorID
			base.DeletedByUserID = &actor
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE `+m.Table()+` SET is_deleted=1, deleted_at=?, deleted_by=? WHERE id=?`,
			formatTime(now), nullableUUIDPtr(base.DeletedByUserID), base.ID.String())
		if err != nil {
			return 0, fmt.Errorf("soft delete %s: %w", m.Table(), err)
		}
		n, _ := res.RowsAffected()
		return n, nil
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}

func nullableTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableUUIDPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanAudit fills the shared audit block from nullable scan temps.
func scanAudit(base *domain.Base, id, createdAt string, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy sql.NullString, isDeleted int) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("parse id: %w", err)
	}
	base.ID = parsed
	if base.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	if createdBy.Valid {
		u, err := uuid.Parse(createdBy.String)
		if err != nil {
			return err
		}
		base.CreatedByUserID = &u
	}
	if modifiedAt.Valid {
		t, err := parseTime(modifiedAt.String)
		if err != nil {
			return err
		}
		base.ModifiedAt = &t
	}
	if modifiedBy.Valid {
		u, err := uuid.Parse(modifiedBy.String)
		if err != nil {
			return err
		}
		base.ModifiedByUserID = &u
	}
	if deletedAt.Valid {
		t, err := parseTime(deletedAt.String)
		if err != nil {
			return err
		}
		base.DeletedAt = &t
	}
	if deletedBy.Valid {
		u, err := uuid.Parse(deletedBy.String)
		if err != nil {
			return err
		}
		base.DeletedByUserID = &u
	}
	base.IsDeleted = isDeleted != 0
	return nil
}

// auditColumns are appended to every table's column list, in this order.
var auditColumns = []string{"created_at", "created_by", "modified_at", "modified_by", "deleted_at", "deleted_by", "is_deleted"}

func auditValues(base *domain.Base) []any {
	return []any{
		formatTime(base.CreatedAt),
		nullableUUIDPtr(base.CreatedByUserID),
		nullableTimePtr(base.ModifiedAt),
		nullableUUIDPtr(base.ModifiedByUserID),
		nullableTimePtr(base.DeletedAt),
		nullableUUIDPtr(base.DeletedByUserID),
		boolToInt(base.IsDeleted),
	}
}
