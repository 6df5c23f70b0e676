package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

type commentMapper struct{}

// Comments returns the comment repository bound to the unit of work.
func Comments(uow *UnitOfWork) Repository[*domain.Comment] {
	return NewRepository[*domain.Comment](uow, commentMapper{})
}

func (commentMapper) Table() string { return "comments" }

func (commentMapper) Columns() []string {
	return append([]string{"id", "content", "task_id", "developer_id"}, auditColumns...)
}

func (commentMapper) Scan(row RowScanner) (*domain.Comment, error) {
	var c domain.Comment
	var id, createdAt, taskID, developerID string
	var createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy sql.NullString
	var isDeleted int
	err := row.Scan(&id, &c.Content, &taskID, &developerID,
		&createdAt, &createdBy, &modifiedAt, &modifiedBy, &deletedAt, &deletedBy, &isDeleted)
	if err != nil {
		return nil, err
	}
	if c.TaskID, err = uuid.Parse(taskID); err != nil {
		return nil, err
	}
	if c.DeveloperID, err = uuid.Parse(developerID); err != nil {
		return nil, err
	}
	if err := scanAudit(&c.Base, id, createdAt, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy, isDeleted); err != nil {
		return nil, err
	}
	return &c, nil
}

func (commentMapper) Values(c *domain.Comment) []any {
	values := []any{c.ID.String(), c.Content, c.TaskID.String(), c.DeveloperID.String()}
	return append(values, auditValues(&c.Base)...)
}

func (commentMapper) Relations(context.Context, Queryer, *domain.Comment, []string) error {
	return nil
}

func CommentsByTask(taskID uuid.UUID) Query {
	return Where("task_id=?", taskID.String())
}
