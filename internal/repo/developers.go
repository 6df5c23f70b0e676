package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"taskflow/internal/domain"
)

const IncludeAssignedTasks = "AssignedTasks"

type developerMapper struct{}

// Developers returns the developer repository bound to the unit of work.
func Developers(uow *UnitOfWork) Repository[*domain.Developer] {
	return NewRepository[*domain.Developer](uow, developerMapper{})
}

func (developerMapper) Table() string { return "developers" }

func (developerMapper) Columns() []string {
	return append([]string{"id", "full_name", "age", "image_path", "job_title", "year_of_experience", "job_level", "user_id"}, auditColumns...)
}

func (developerMapper) Scan(row RowScanner) (*domain.Developer, error) {
	var d domain.Developer
	var id, createdAt, userID string
	var imagePath, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy sql.NullString
	var jobLevel, isDeleted int
	err := row.Scan(&id, &d.FullName, &d.Age, &imagePath, &d.JobTitle, &d.YearOfExperience, &jobLevel, &userID,
		&createdAt, &createdBy, &modifiedAt, &modifiedBy, &deletedAt, &deletedBy, &isDeleted)
	if err != nil {
		return nil, err
	}
	if imagePath.Valid {
		d.ImagePath = imagePath.String
	}
	d.JobLevel = domain.JobLevel(jobLevel)
	if d.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if err := scanAudit(&d.Base, id, createdAt, createdBy, modifiedAt, modifiedBy, deletedAt, deletedBy, isDeleted); err != nil {
		return nil, err
	}
	return &d, nil
}

func (developerMapper) Values(d *domain.Developer) []any {
	values := []any{
		d.ID.String(), d.FullName, d.Age, nullable(d.ImagePath), d.JobTitle,
		d.YearOfExperience, int(d.JobLevel), d.UserID.String(),
	}
	return append(values, auditValues(&d.Base)...)
}

func (developerMapper) Relations(ctx context.Context, q Queryer, d *domain.Developer, includes []string) error {
	for _, inc := range includes {
		if inc != IncludeAssignedTasks {
			continue
		}
		tm := taskMapper{}
		cols := strings.Join(tm.Columns(), ",")
		rows, err := q.QueryContext(ctx,
			`SELECT `+cols+` FROM tasks WHERE assigned_to_developer_id=? AND is_deleted=0 ORDER BY created_at DESC, id DESC`,
			d.ID.String())
		if err != nil {
			return err
		}
		defer rows.Close()
		d.AssignedTasks = nil
		for rows.Next() {
			task, err := tm.Scan(rows)
			if err != nil {
				return err
			}
			d.AssignedTasks = append(d.AssignedTasks, task)
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	return nil
}

// DeveloperByProfile matches the uniqueness triple used on create.
func DeveloperByProfile(fullName, jobTitle string, yearOfExperience int) Query {
	return Where("LOWER(full_name)=? AND LOWER(job_title)=? AND year_of_experience=?",
		strings.ToLower(strings.TrimSpace(fullName)), strings.ToLower(strings.TrimSpace(jobTitle)), yearOfExperience)
}

func DeveloperByUser(userID uuid.UUID) Query {
	return Where("user_id=?", userID.String())
}
