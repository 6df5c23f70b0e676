package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/blob"
	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/identity"
	"taskflow/internal/migrate"
)

var svcNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu         sync.Mutex
	broadcasts []string
	sends      []string
	sentTo     []uuid.UUID
}

func (r *recorder) BroadcastAll(event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, event)
}

func (r *recorder) SendToUser(userID uuid.UUID, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, event)
	r.sentTo = append(r.sentTo, userID)
}

type testEnv struct {
	conn       *sql.DB
	users      *identity.Store
	files      *blob.Store
	hub        *recorder
	developers *DeveloperService
	tasks      *TaskService
	accounts   *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := identity.NewStore(conn)
	users.Now = func() time.Time { return svcNow }
	files := blob.NewStore(t.TempDir())
	hub := &recorder{}
	tasks := NewTaskService(conn, files, hub, logger)
	tasks.Now = func() time.Time { return svcNow }
	return &testEnv{
		conn:       conn,
		users:      users,
		files:      files,
		hub:        hub,
		developers: NewDeveloperService(conn, users, files, logger),
		tasks:      tasks,
		accounts:   NewAccountService(users, logger),
	}
}

func validCreateRequest(email string) CreateDeveloperRequest {
	return CreateDeveloperRequest{
		FullName:         "Ada Lovelace",
		Age:              30,
		JobTitle:         "Backend Engineer",
		YearOfExperience: 3,
		JobLevel:         domain.JobLevelSenior,
		Email:            email,
		Password:         "Passw0rd",
	}
}

func (e *testEnv) createDeveloper(t *testing.T, req CreateDeveloperRequest) *domain.Developer {
	t.Helper()
	res := e.developers.Create(context.Background(), uuid.Nil, req)
	if res.IsFailure() {
		t.Fatalf("create developer: %s", res.Err().Code)
	}
	return res.Value()
}

func (e *testEnv) createTask(t *testing.T, developerID uuid.UUID, content string) *domain.TaskEntity {
	t.Helper()
	res := e.tasks.Assign(context.Background(), uuid.Nil, AssignTaskRequest{
		StartAt:     svcNow.Add(24 * time.Hour),
		EndAt:       svcNow.Add(72 * time.Hour),
		Content:     content,
		DeveloperID: developerID,
	})
	if res.IsFailure() {
		t.Fatalf("assign task: %s", res.Err().Code)
	}
	return res.Value()
}

func TestCreateDeveloperGrantsRoleAndPersists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))

	user, err := env.users.FindByEmail(ctx, "ada@example.com")
	if err != nil || user == nil {
		t.Fatalf("credential account missing: %v", err)
	}
	if dev.UserID != user.ID {
		t.Fatal("developer not linked to credential account")
	}
	roles, err := env.users.GetRoles(ctx, user.ID)
	if err != nil || len(roles) != 1 || roles[0] != identity.RoleDeveloper {
		t.Fatalf("expected Developer role, got %v err %v", roles, err)
	}
}

func TestCreateDeveloperDuplicateProfileConflicts(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createDeveloper(t, validCreateRequest("ada@example.com"))

	res := env.developers.Create(ctx, uuid.Nil, validCreateRequest("other@example.com"))
	if res.IsSuccess() {
		t.Fatal("duplicate profile accepted")
	}
	if res.Err() != domain.DeveloperErrors.DeveloperAlreadyExist {
		t.Fatalf("expected DeveloperAlreadyExist, got %s", res.Err().Code)
	}
	// The second credential account must have been unwound or never made.
	if user, _ := env.users.FindByEmail(ctx, "other@example.com"); user != nil {
		t.Fatal("duplicate attempt left a credential account behind")
	}
}

func TestCreateDeveloperCompensatesOnLateFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	req := validCreateRequest("ada@example.com")
	req.Age = 17 // passes request-shape checks, fails the entity factory
	req.Image = &Upload{Name: "avatar.png", Reader: strings.NewReader("img")}

	res := env.developers.Create(ctx, uuid.Nil, req)
	if res.IsSuccess() {
		t.Fatal("invalid age accepted")
	}
	if res.Err() != domain.DeveloperErrors.InvalidAge {
		t.Fatalf("expected InvalidAge, got %s", res.Err().Code)
	}
	if user, _ := env.users.FindByEmail(ctx, "ada@example.com"); user != nil {
		t.Fatal("compensation did not delete the credential account")
	}
	entries, err := os.ReadDir(filepath.Join(env.files.BasePath, "assets/documents"))
	if err == nil && len(entries) != 0 {
		t.Fatalf("compensation left %d uploaded files", len(entries))
	}
}

func TestUpdateDeveloperSwapsImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	req := validCreateRequest("ada@example.com")
	req.Image = &Upload{Name: "old.png", Reader: strings.NewReader("old")}
	dev := env.createDeveloper(t, req)
	oldImage := dev.ImagePath

	res := env.developers.Update(ctx, uuid.Nil, dev.ID, UpdateDeveloperRequest{
		FullName:         "Ada King",
		Age:              31,
		JobTitle:         "Staff Engineer",
		YearOfExperience: 4,
		JobLevel:         domain.JobLevelLead,
		Image:            &Upload{Name: "new.png", Reader: strings.NewReader("new")},
	})
	if res.IsFailure() {
		t.Fatalf("update failed: %s", res.Err().Code)
	}
	if _, err := os.Stat(filepath.Join(env.files.BasePath, filepath.FromSlash(oldImage))); !os.IsNotExist(err) {
		t.Fatal("old image not removed after commit")
	}
	got := env.developers.GetByID(ctx, dev.ID).Value()
	if got.FullName != "Ada King" || got.ImagePath == oldImage {
		t.Fatalf("update not persisted: %+v", got)
	}
}

func TestDeleteDeveloperSoftDeletesAndRemovesImage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	req := validCreateRequest("ada@example.com")
	req.Image = &Upload{Name: "avatar.png", Reader: strings.NewReader("img")}
	dev := env.createDeveloper(t, req)

	if res := env.developers.Delete(ctx, uuid.Nil, dev.ID); res.IsFailure() {
		t.Fatalf("delete failed: %s", res.Err().Code)
	}
	if res := env.developers.GetByID(ctx, dev.ID); res.IsSuccess() {
		t.Fatal("soft-deleted developer still visible")
	}
	if _, err := os.Stat(filepath.Join(env.files.BasePath, filepath.FromSlash(dev.ImagePath))); !os.IsNotExist(err) {
		t.Fatal("image not removed after delete")
	}
	// Deleting again reports not found.
	if res := env.developers.Delete(ctx, uuid.Nil, dev.ID); res.Err() != domain.DeveloperErrors.DeveloperNotExist {
		t.Fatalf("expected DeveloperNotExist, got %s", res.Err().Code)
	}
}

func TestDeveloperPagingClamps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	for i := 0; i < 12; i++ {
		req := validCreateRequest("dev" + string(rune('a'+i)) + "@example.com")
		req.YearOfExperience = i // keeps the uniqueness triple distinct
		env.createDeveloper(t, req)
	}

	page := env.developers.GetAll(ctx, 0, 50).Value()
	if page.PageSize != 10 || page.PageNumber != 1 {
		t.Fatalf("clamp failed: size=%d number=%d", page.PageSize, page.PageNumber)
	}
	if len(page.Items) != 10 || page.TotalCount != 12 || page.TotalPages != 2 {
		t.Fatalf("unexpected page: items=%d total=%d pages=%d", len(page.Items), page.TotalCount, page.TotalPages)
	}

	// Past the end: empty but valid.
	empty := env.developers.GetAll(ctx, 4, 10).Value()
	if len(empty.Items) != 0 || !empty.HasPrevious || empty.HasForward {
		t.Fatalf("unexpected trailing page: %+v", empty)
	}
}

func TestAssignTaskBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))
	env.createTask(t, dev.ID, "implement parser")

	if len(env.hub.broadcasts) != 1 || env.hub.broadcasts[0] != "assigntask" {
		t.Fatalf("expected one assigntask broadcast, got %v", env.hub.broadcasts)
	}
}

func TestAssignTaskInvalidRangeWritesNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))

	// End lands on the clock itself, so a stale-end complaint would be
	// wrong: the inverted range is the defect to report.
	res := env.tasks.Assign(ctx, uuid.Nil, AssignTaskRequest{
		StartAt:     svcNow.Add(24 * time.Hour),
		EndAt:       svcNow,
		Content:     "backwards window",
		DeveloperID: dev.ID,
	})
	if res.Err() != domain.TaskErrors.InvalidDateRange {
		t.Fatalf("expected InvalidDateRange, got %s", res.Err().Code)
	}
	page := env.tasks.GetAll(ctx, 1, 10).Value()
	if page.TotalCount != 0 {
		t.Fatalf("invalid task was persisted: %d rows", page.TotalCount)
	}
	if len(env.hub.broadcasts) != 0 {
		t.Fatalf("notification sent for failed assign: %v", env.hub.broadcasts)
	}
}

func TestAssignTaskUnknownDeveloper(t *testing.T) {
	env := newTestEnv(t)
	res := env.tasks.Assign(context.Background(), uuid.Nil, AssignTaskRequest{
		StartAt:     svcNow.Add(24 * time.Hour),
		EndAt:       svcNow.Add(48 * time.Hour),
		Content:     "orphan",
		DeveloperID: uuid.New(),
	})
	if res.Err() != domain.DeveloperErrors.DeveloperNotExist {
		t.Fatalf("expected DeveloperNotExist, got %s", res.Err().Code)
	}
}

func TestChangeStatusCompletedFinishes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))
	task := env.createTask(t, dev.ID, "ship it")

	if res := env.tasks.ChangeStatus(ctx, uuid.Nil, task.ID, domain.TaskProgressCompleted); res.IsFailure() {
		t.Fatalf("change status failed: %s", res.Err().Code)
	}
	got := env.tasks.GetByID(ctx, task.ID).Value()
	if !got.IsFinished || got.Progress != domain.TaskProgressCompleted {
		t.Fatalf("completed status did not finish the task: %+v", got)
	}
	// Completing an already finished task is a no-op.
	if res := env.tasks.ChangeStatus(ctx, uuid.Nil, task.ID, domain.TaskProgressCompleted); res.IsFailure() {
		t.Fatalf("repeated complete failed: %s", res.Err().Code)
	}
	// Moving it anywhere else conflicts.
	if res := env.tasks.ChangeStatus(ctx, uuid.Nil, task.ID, domain.TaskProgressInProgress); res.Err() != domain.TaskErrors.AlreadyFinished {
		t.Fatalf("expected AlreadyFinished, got %s", res.Err().Code)
	}
}

func TestDeleteTaskRemovesDocumentAndNotifies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))

	res := env.tasks.Assign(ctx, uuid.Nil, AssignTaskRequest{
		StartAt:     svcNow.Add(24 * time.Hour),
		EndAt:       svcNow.Add(48 * time.Hour),
		Content:     "documented work",
		DeveloperID: dev.ID,
		Document:    &Upload{Name: "brief.pdf", Reader: strings.NewReader("pdf")},
	})
	task := res.Value()

	if res := env.tasks.Delete(ctx, uuid.Nil, task.ID); res.IsFailure() {
		t.Fatalf("delete failed: %s", res.Err().Code)
	}
	if _, err := os.Stat(filepath.Join(env.files.BasePath, filepath.FromSlash(task.DocumentPath))); !os.IsNotExist(err) {
		t.Fatal("document not removed after delete")
	}
	if env.hub.broadcasts[len(env.hub.broadcasts)-1] != "deletetask" {
		t.Fatalf("expected deletetask broadcast, got %v", env.hub.broadcasts)
	}
	if res := env.tasks.GetByID(ctx, task.ID); res.Err() != domain.TaskErrors.TaskNotExist {
		t.Fatalf("deleted task still loads: %s", res.Err().Code)
	}
}

func TestGetByStatusFilters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))
	t1 := env.createTask(t, dev.ID, "first")
	env.createTask(t, dev.ID, "second")
	env.tasks.ChangeStatus(ctx, uuid.Nil, t1.ID, domain.TaskProgressInProgress)

	started := env.tasks.GetByStatus(ctx, domain.TaskProgressInProgress, 1, 10).Value()
	if started.TotalCount != 1 || started.Items[0].ID != t1.ID {
		t.Fatalf("status filter wrong: %+v", started)
	}
	if res := env.tasks.GetByStatus(ctx, domain.TaskProgress(9), 1, 10); res.Err() != domain.TaskErrors.InvalidProgress {
		t.Fatalf("expected InvalidProgress, got %s", res.Err().Code)
	}
}

func TestAddCommentNotifiesAssignee(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))
	task := env.createTask(t, dev.ID, "discuss me")

	res := env.tasks.AddComment(ctx, dev.UserID, task.ID, "looks good")
	if res.IsFailure() {
		t.Fatalf("add comment failed: %s", res.Err().Code)
	}
	if len(env.hub.sends) != 1 || env.hub.sends[0] != "notifycomment" {
		t.Fatalf("expected notifycomment send, got %v", env.hub.sends)
	}
	if env.hub.sentTo[0] != dev.UserID {
		t.Fatal("comment notification sent to the wrong user")
	}

	comments := env.tasks.GetComments(ctx, task.ID).Value()
	if len(comments) != 1 || comments[0].Content != "looks good" {
		t.Fatalf("comment not persisted: %+v", comments)
	}
}

func TestAddCommentUnknownTask(t *testing.T) {
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))
	if res := env.tasks.AddComment(context.Background(), dev.UserID, uuid.New(), "lost"); res.Err() != domain.TaskErrors.TaskNotExist {
		t.Fatalf("expected TaskNotExist, got %s", res.Err().Code)
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	dev := env.createDeveloper(t, validCreateRequest("ada@example.com"))

	if res := env.accounts.ChangePassword(ctx, dev.UserID, "WrongPass1", "NewPass1"); res.Err() != domain.UserErrors.PasswordMismatch {
		t.Fatalf("expected PasswordMismatch, got %s", res.Err().Code)
	}
	if res := env.accounts.ChangePassword(ctx, dev.UserID, "Passw0rd", "short"); res.IsSuccess() {
		t.Fatal("weak password accepted")
	}
	if res := env.accounts.ChangePassword(ctx, dev.UserID, "Passw0rd", "NewPass1"); res.IsFailure() {
		t.Fatalf("change password failed: %s", res.Err().Code)
	}
	user, _ := env.users.FindByEmail(ctx, "ada@example.com")
	if !env.users.CheckPassword(user, "NewPass1") {
		t.Fatal("new password not installed")
	}
}
