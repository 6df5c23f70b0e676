package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/blob"
	"taskflow/internal/domain"
	"taskflow/internal/events"
	"taskflow/internal/notify"
	"taskflow/internal/repo"
)

// Notifier is the push sink the task flows emit to. Satisfied by
// *notify.Hub; tests substitute a recorder.
type Notifier interface {
	BroadcastAll(event string, data any)
	SendToUser(userID uuid.UUID, event string, data any)
}

// taskEvent is the payload pushed for every task notification.
type taskEvent struct {
	TaskID      uuid.UUID `json:"taskId"`
	DeveloperID uuid.UUID `json:"developerId"`
	Content     string    `json:"content"`
}

// TaskService orchestrates the task lifecycle and its comment thread.
type TaskService struct {
	DB     *sql.DB
	Files  *blob.Store
	Hub    Notifier
	Events *events.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

func NewTaskService(db *sql.DB, files *blob.Store, hub Notifier, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{DB: db, Files: files, Hub: hub, Logger: logger, Now: time.Now}
}

func (s *TaskService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Assign creates a task for an existing developer. The attached
// document, when present, is stored before the commit and unwound when
// any later step fails.
func (s *TaskService) Assign(ctx context.Context, actorID uuid.UUID, req AssignTaskRequest) domain.ValueResult[*domain.TaskEntity] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	tasks := repo.Tasks(uow)

	dev, err := repo.Developers(uow).GetByID(ctx, req.DeveloperID)
	if err != nil {
		s.Logger.Error("developer fetch failed", "developer_id", req.DeveloperID, "error", err)
		return domain.Fail[*domain.TaskEntity](domain.TaskErrors.FailToCreate)
	}
	if dev == nil {
		return domain.Fail[*domain.TaskEntity](domain.DeveloperErrors.DeveloperNotExist)
	}

	comp := newCompensator(s.Logger)
	documentPath := ""
	if req.Document != nil {
		documentPath, err = s.Files.Upload(req.Document.Name, req.Document.Reader, "")
		if err != nil {
			return domain.Fail[*domain.TaskEntity](uploadError(err))
		}
		path := documentPath
		comp.register(func() error { return s.Files.Remove(path) })
	}

	made := domain.NewTask(req.StartAt, req.EndAt, req.Content, documentPath, dev.ID, s.now())
	if made.IsFailure() {
		comp.run()
		return made
	}
	task := made.Value()
	tasks.Create(task)
	stageEvent(uow, s.Events, "task.assigned", "task", task.ID, events.Payload{"developer_id": dev.ID.String()})
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("task save failed", "error", err)
		}
		comp.run()
		return domain.Fail[*domain.TaskEntity](domain.TaskErrors.FailToCreate)
	}
	comp.discard()
	s.notifyAll(notify.EventAssignTask, task)
	s.Logger.Info("task assigned", "task_id", task.ID, "developer_id", dev.ID)
	return domain.Ok(task)
}

// ChangeStatus moves the progress marker through the entity rules.
func (s *TaskService) ChangeStatus(ctx context.Context, actorID, id uuid.UUID, progress domain.TaskProgress) domain.Result {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	tasks := repo.Tasks(uow)
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("task fetch failed", "task_id", id, "error", err)
		return domain.Failure(domain.TaskErrors.FailToUpdate)
	}
	if task == nil {
		return domain.Failure(domain.TaskErrors.TaskNotExist)
	}
	if res := task.UpdateProgress(progress); res.IsFailure() {
		return res
	}
	tasks.Update(task)
	stageEvent(uow, s.Events, "task.status_changed", "task", task.ID, events.Payload{"progress": progress.String()})
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("task status save failed", "task_id", id, "error", err)
		}
		return domain.Failure(domain.TaskErrors.FailToUpdate)
	}
	s.notifyAll(notify.EventUpdateTask, task)
	return domain.Success()
}

// Update rewrites the task details, swapping the stored document when a
// new one is attached. The old document goes away only after the commit.
func (s *TaskService) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateTaskRequest) domain.Result {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	tasks := repo.Tasks(uow)
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("task fetch failed", "task_id", id, "error", err)
		return domain.Failure(domain.TaskErrors.FailToUpdate)
	}
	if task == nil {
		return domain.Failure(domain.TaskErrors.TaskNotExist)
	}

	comp := newCompensator(s.Logger)
	oldDocument := task.DocumentPath
	documentPath := oldDocument
	if req.Document != nil {
		documentPath, err = s.Files.Upload(req.Document.Name, req.Document.Reader, "")
		if err != nil {
			return domain.Failure(uploadError(err))
		}
		path := documentPath
		comp.register(func() error { return s.Files.Remove(path) })
	}
	if res := task.Update(req.StartAt, req.EndAt, req.Content, documentPath); res.IsFailure() {
		comp.run()
		return res
	}
	tasks.Update(task)
	stageEvent(uow, s.Events, "task.updated", "task", task.ID, nil)
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("task update failed", "task_id", id, "error", err)
		}
		comp.run()
		return domain.Failure(domain.TaskErrors.FailToUpdate)
	}
	comp.discard()
	if req.Document != nil && oldDocument != "" {
		if err := s.Files.Remove(oldDocument); err != nil {
			s.Logger.Error("replaced document removal failed", "path", oldDocument, "error", err)
		}
	}
	s.notifyAll(notify.EventUpdateTask, task)
	return domain.Success()
}

// Delete soft-deletes the task; its document is removed after the
// commit.
func (s *TaskService) Delete(ctx context.Context, actorID, id uuid.UUID) domain.Result {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	tasks := repo.Tasks(uow)
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		s.Logger.Error("task fetch failed", "task_id", id, "error", err)
		return domain.Failure(domain.TaskErrors.FailToDelete)
	}
	if task == nil {
		return domain.Failure(domain.TaskErrors.TaskNotExist)
	}
	tasks.Delete(task)
	stageEvent(uow, s.Events, "task.deleted", "task", task.ID, nil)
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("task delete failed", "task_id", id, "error", err)
		}
		return domain.Failure(domain.TaskErrors.FailToDelete)
	}
	if task.DocumentPath != "" {
		if err := s.Files.Remove(task.DocumentPath); err != nil {
			s.Logger.Error("document removal failed", "path", task.DocumentPath, "error", err)
		}
	}
	s.notifyAll(notify.EventDeleteTask, task)
	s.Logger.Info("task deleted", "task_id", id)
	return domain.Success()
}

// GetByID loads a task with its comment thread.
func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) domain.ValueResult[*domain.TaskEntity] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	task, err := repo.Tasks(uow).GetByID(ctx, id, repo.IncludeComments)
	if err != nil {
		s.Logger.Error("task fetch failed", "task_id", id, "error", err)
		return domain.Fail[*domain.TaskEntity](domain.InternalError("Task.FailToQuery", "Task could not be loaded"))
	}
	if task == nil {
		return domain.Fail[*domain.TaskEntity](domain.TaskErrors.TaskNotExist)
	}
	return domain.Ok(task)
}

func (s *TaskService) GetAll(ctx context.Context, pageNumber, pageSize int) domain.ValueResult[domain.PagesResult[*domain.TaskEntity]] {
	return s.page(ctx, repo.Query{}, pageNumber, pageSize)
}

func (s *TaskService) GetForDeveloper(ctx context.Context, developerID uuid.UUID, pageNumber, pageSize int) domain.ValueResult[domain.PagesResult[*domain.TaskEntity]] {
	return s.page(ctx, repo.TasksByDeveloper(developerID), pageNumber, pageSize)
}

func (s *TaskService) GetByStatus(ctx context.Context, progress domain.TaskProgress, pageNumber, pageSize int) domain.ValueResult[domain.PagesResult[*domain.TaskEntity]] {
	if !progress.Valid() {
		return domain.Fail[domain.PagesResult[*domain.TaskEntity]](domain.TaskErrors.InvalidProgress)
	}
	return s.page(ctx, repo.TasksByProgress(progress), pageNumber, pageSize)
}

func (s *TaskService) page(ctx context.Context, q repo.Query, pageNumber, pageSize int) domain.ValueResult[domain.PagesResult[*domain.TaskEntity]] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	page, err := paged(ctx, repo.Tasks(uow), q, pageNumber, pageSize)
	if err != nil {
		s.Logger.Error("task page fetch failed", "error", err)
		return domain.Fail[domain.PagesResult[*domain.TaskEntity]](domain.InternalError("Task.FailToQuery", "Tasks could not be loaded"))
	}
	return domain.Ok(page)
}

// AddComment attaches a comment written by the acting user's developer
// profile and notifies the task's assignee.
func (s *TaskService) AddComment(ctx context.Context, actorID, taskID uuid.UUID, content string) domain.ValueResult[*domain.Comment] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	developers := repo.Developers(uow)

	task, err := repo.Tasks(uow).GetByID(ctx, taskID)
	if err != nil {
		s.Logger.Error("task fetch failed", "task_id", taskID, "error", err)
		return domain.Fail[*domain.Comment](domain.CommentErrors.FailToCreate)
	}
	if task == nil {
		return domain.Fail[*domain.Comment](domain.TaskErrors.TaskNotExist)
	}
	author, err := developers.FirstOrDefault(ctx, repo.DeveloperByUser(actorID))
	if err != nil {
		s.Logger.Error("author lookup failed", "user_id", actorID, "error", err)
		return domain.Fail[*domain.Comment](domain.CommentErrors.FailToCreate)
	}
	if author == nil {
		return domain.Fail[*domain.Comment](domain.DeveloperErrors.DeveloperNotExist)
	}

	made := domain.NewComment(content, task.ID, author.ID)
	if made.IsFailure() {
		return made
	}
	comment := made.Value()
	repo.Comments(uow).Create(comment)
	stageEvent(uow, s.Events, "comment.added", "comment", comment.ID, events.Payload{"task_id": task.ID.String()})
	rows, err := uow.SaveChanges(ctx, actorID)
	if err != nil || rows <= 0 {
		if err != nil {
			s.Logger.Error("comment save failed", "task_id", taskID, "error", err)
		}
		return domain.Fail[*domain.Comment](domain.CommentErrors.FailToCreate)
	}

	if s.Hub != nil {
		assignee, err := developers.GetByID(ctx, task.AssignedToDeveloperID)
		if err != nil {
			s.Logger.Error("assignee lookup failed", "task_id", taskID, "error", err)
		} else if assignee != nil {
			s.Hub.SendToUser(assignee.UserID, notify.EventNotifyComment, taskEvent{
				TaskID:      task.ID,
				DeveloperID: author.ID,
				Content:     comment.Content,
			})
		}
	}
	return domain.Ok(comment)
}

// GetComments returns the task's comments oldest first.
func (s *TaskService) GetComments(ctx context.Context, taskID uuid.UUID) domain.ValueResult[[]*domain.Comment] {
	uow := repo.NewUnitOfWork(s.DB)
	defer uow.Close()
	exists, err := repo.Tasks(uow).IsExist(ctx, repo.Where("id=?", taskID.String()))
	if err != nil {
		s.Logger.Error("task existence check failed", "task_id", taskID, "error", err)
		return domain.Fail[[]*domain.Comment](domain.InternalError("Comment.FailToQuery", "Comments could not be loaded"))
	}
	if !exists {
		return domain.Fail[[]*domain.Comment](domain.TaskErrors.TaskNotExist)
	}
	q := repo.CommentsByTask(taskID)
	q.OrderBy = "created_at ASC, id ASC"
	comments, err := repo.Comments(uow).GetAll(ctx, q)
	if err != nil {
		s.Logger.Error("comment fetch failed", "task_id", taskID, "error", err)
		return domain.Fail[[]*domain.Comment](domain.InternalError("Comment.FailToQuery", "Comments could not be loaded"))
	}
	return domain.Ok(comments)
}

func (s *TaskService) notifyAll(event string, task *domain.TaskEntity) {
	if s.Hub == nil {
		return
	}
	s.Hub.BroadcastAll(event, taskEvent{
		TaskID:      task.ID,
		DeveloperID: task.AssignedToDeveloperID,
		Content:     task.Content,
	})
}
