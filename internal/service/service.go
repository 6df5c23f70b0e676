package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/blob"
	"taskflow/internal/domain"
	"taskflow/internal/events"
	"taskflow/internal/repo"
)

func uploadError(err error) domain.Error {
	switch err {
	case blob.ErrFileTooLarge:
		return domain.FileErrors.TooLarge
	case blob.ErrExtensionNotAllowed:
		return domain.FileErrors.ExtensionNotAllowed
	default:
		return domain.FileErrors.FailToStore
	}
}

// stageEvent adds an audit row to the batch so it commits with the
// write it describes. A nil writer disables auditing.
func stageEvent(uow *repo.UnitOfWork, w *events.Writer, evtType, entityKind string, entityID uuid.UUID, payload events.Payload) {
	if w == nil {
		return
	}
	writer := *w
	uow.StageFunc(func(ctx context.Context, tx *sql.Tx, actorID uuid.UUID, now time.Time) (int64, error) {
		return 0, writer.Append(ctx, tx, evtType, entityKind, entityID, actorID, payload)
	})
}

// paged runs the count and the page fetch for one query. An empty page
// is a valid result, never an error.
func paged[T repo.Entity](ctx context.Context, r repo.Repository[T], q repo.Query, pageNumber, pageSize int) (domain.PagesResult[T], error) {
	pageNumber, pageSize = clampPage(pageNumber, pageSize)
	total, err := r.Count(ctx, q)
	if err != nil {
		return domain.PagesResult[T]{}, err
	}
	q.PageNumber = pageNumber
	q.PageSize = pageSize
	items, err := r.GetAll(ctx, q)
	if err != nil {
		return domain.PagesResult[T]{}, err
	}
	return domain.NewPagesResult(items, pageNumber, pageSize, total), nil
}
