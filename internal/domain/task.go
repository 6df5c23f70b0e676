package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskProgress int

const (
	TaskProgressNotStarted TaskProgress = iota
	TaskProgressInProgress
	TaskProgressCompleted
)

func (p TaskProgress) String() string {
	switch p {
	case TaskProgressNotStarted:
		return "not_started"
	case TaskProgressInProgress:
		return "in_progress"
	case TaskProgressCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

func (p TaskProgress) Valid() bool {
	return p >= TaskProgressNotStarted && p <= TaskProgressCompleted
}

const (
	maxTaskContentLen      = 1000
	maxTaskDocumentPathLen = 500
)

// TaskEntity is the unit of work assigned to a developer. It owns its
// comments and its finished flag is only mutated through MarkAsFinished,
// Reopen and UpdateProgress.
type TaskEntity struct {
	Base
	StartAt               time.Time
	EndAt                 time.Time
	Content               string
	DocumentPath          string
	Progress              TaskProgress
	IsFinished            bool
	AssignedToDeveloperID uuid.UUID
	Comments              []*Comment
}

// NewTask validates and builds a task. now anchors the future-date rules
// so callers with a test clock stay deterministic.
func NewTask(startAt, endAt time.Time, content, documentPath string, developerID uuid.UUID, now time.Time) ValueResult[*TaskEntity] {
	content = strings.TrimSpace(content)
	if err := validateTaskDates(startAt, endAt, now, true); !err.IsNone() {
		return Fail[*TaskEntity](err)
	}
	if err := validateTaskContent(content, documentPath); !err.IsNone() {
		return Fail[*TaskEntity](err)
	}
	if developerID == uuid.Nil {
		return Fail[*TaskEntity](TaskErrors.InvalidDeveloperID)
	}
	return Ok(&TaskEntity{
		Base:                  newBase(),
		StartAt:               startAt,
		EndAt:                 endAt,
		Content:               content,
		DocumentPath:          strings.TrimSpace(documentPath),
		Progress:              TaskProgressNotStarted,
		AssignedToDeveloperID: developerID,
	})
}

// Update rewrites the task details. Future-date rules are not re-applied
// so a task whose window already opened can still be edited with its
// original dates; the range rule always holds.
func (t *TaskEntity) Update(startAt, endAt time.Time, content, documentPath string) Result {
	content = strings.TrimSpace(content)
	if err := validateTaskDates(startAt, endAt, time.Time{}, false); !err.IsNone() {
		return Failure(err)
	}
	if err := validateTaskContent(content, documentPath); !err.IsNone() {
		return Failure(err)
	}
	t.StartAt = startAt
	t.EndAt = endAt
	t.Content = content
	t.DocumentPath = strings.TrimSpace(documentPath)
	return Success()
}

func (t *TaskEntity) MarkAsFinished() Result {
	if t.IsFinished {
		return Failure(TaskErrors.AlreadyFinished)
	}
	t.IsFinished = true
	t.Progress = TaskProgressCompleted
	return Success()
}

func (t *TaskEntity) Reopen() Result {
	if !t.IsFinished {
		return Failure(TaskErrors.NotFinished)
	}
	t.IsFinished = false
	t.Progress = TaskProgressInProgress
	return Success()
}

// UpdateProgress moves the progress marker. Completed implies finishing
// the task; completing a task that is already finished is a no-op, a
// finished task cannot move to any other progress.
func (t *TaskEntity) UpdateProgress(p TaskProgress) Result {
	if !p.Valid() {
		return Failure(TaskErrors.InvalidProgress)
	}
	if p == TaskProgressCompleted {
		_ = t.MarkAsFinished()
		return Success()
	}
	if t.IsFinished {
		return Failure(TaskErrors.AlreadyFinished)
	}
	t.Progress = p
	return Success()
}

func (t *TaskEntity) AssignToDeveloper(developerID uuid.UUID) Result {
	if developerID == uuid.Nil {
		return Failure(TaskErrors.InvalidDeveloperID)
	}
	t.AssignedToDeveloperID = developerID
	return Success()
}

func (t *TaskEntity) AddComment(c *Comment) {
	t.Comments = append(t.Comments, c)
}

func validateTaskDates(startAt, endAt, now time.Time, requireFuture bool) Error {
	if startAt.IsZero() {
		return TaskErrors.InvalidStartDate
	}
	if endAt.IsZero() {
		return TaskErrors.InvalidEndDate
	}
	// An inverted window is a range problem even when the future-date
	// rules would also reject one of its endpoints.
	if !startAt.Before(endAt) {
		return TaskErrors.InvalidDateRange
	}
	if requireFuture {
		if !startAt.After(now) {
			return TaskErrors.InvalidStartDate
		}
		if !endAt.After(now) {
			return TaskErrors.InvalidEndDate
		}
	}
	return ErrNone
}

// Content is optional; only its length is bounded.
func validateTaskContent(content, documentPath string) Error {
	if len(content) > maxTaskContentLen {
		return TaskErrors.InvalidContent
	}
	if len(documentPath) > maxTaskDocumentPathLen {
		return TaskErrors.InvalidDocumentPath
	}
	return ErrNone
}
