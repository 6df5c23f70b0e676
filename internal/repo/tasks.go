package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

const IncludeComments = "Comments"

type taskMapper struct{}

// Tasks returns the task repository bound to the unit of work.
func Tasks(uow *UnitOfWork) Repository[*domain.TaskEntity] {
	return NewRepository[*domain.TaskEntity](uow, taskMapper{})
}

func (taskMapper) Table() string { return "tasks" }

func (taskMapper) Columns() []string {
	return append([]string{"id", "start_at", "end_at", "content", "document_path", "progress", "is_finished", "assigned_to_developer_id"}, auditColumns...)
}

func (taskMapper) Scan(row RowScanner) (*domain.TaskEntity, error) {
	var t domain.TaskEntity
	var id, startAt, endAt, createdAt, developerID string
	var documentPath, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy sql.NullString
	var progress, isFinished, isDeleted int
	err := row.Scan(&id, &startAt, &endAt, &t.Content, &documentPath, &progress, &isFinished, &developerID,
		&createdAt, &createdBy, &modifiedAt, &modifiedBy, &deletedAt, &deletedBy, &isDeleted)
	if err != nil {
		return nil, err
	}
	if t.StartAt, err = parseTime(startAt); err != nil {
		return nil, err
	}
	if t.EndAt, err = parseTime(endAt); err != nil {
		return nil, err
	}
	if documentPath.Valid {
		t.DocumentPath = documentPath.String
	}
	t.Progress = domain.TaskProgress(progress)
	t.IsFinished = isFinished != 0
	if t.AssignedToDeveloperID, err = uuid.Parse(developerID); err != nil {
		return nil, err
	}
	if err := scanAudit(&t.Base, id, createdAt, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy, isDeleted); err != nil {
		return nil, err
	}
	return &t, nil
}

func (taskMapper) Values(t *domain.TaskEntity) []any {
	values := []any{
		t.ID.String(), formatTime(t.StartAt), formatTime(t.EndAt), t.Content, nullable(t.DocumentPath),
		int(t.Progress), boolToInt(t.IsFinished), t.AssignedToDeveloperID.String(),
	}
	return append(values, auditValues(&t.Base)...)
}

func (taskMapper) Relations(ctx context.Context, q Queryer, t *domain.TaskEntity, includes []string) error {
	for _, inc := range includes {
		if inc != IncludeComments {
			continue
		}
		cm := commentMapper{}
		cols := strings.Join(cm.Columns(), ",")
		rows, err := q.QueryContext(ctx,
			`SELECT `+cols+` FROM comments WHERE task_id=? AND is_deleted=0 ORDER BY created_at ASC, id ASC`,
			t.ID.String())
		if err != nil {
			return err
		}
		defer rows.Close()
		t.Comments = nil
		for rows.Next() {
			c, err := cm.Scan(rows)
			if err != nil {
				return err
			}
			t.Comments = append(t.Comments, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

func TasksByDeveloper(developerID uuid.UUID) Query {
	return Where("assigned_to_developer_id=?", developerID.String())
}

func TasksByProgress(p domain.TaskProgress) Query {
	return Where("progress=?", int(p))
}
