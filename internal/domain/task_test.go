package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var taskNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validTask(t *testing.T) *TaskEntity {
	t.Helper()
	res := NewTask(taskNow.Add(24*time.Hour), taskNow.Add(48*time.Hour), "implement login", "", uuid.New(), taskNow)
	if res.IsFailure() {
		t.Fatalf("valid task rejected: %s", res.Err().Code)
	}
	return res.Value()
}

func TestNewTaskValidationOrder(t *testing.T) {
	dev := uuid.New()
	future := taskNow.Add(24 * time.Hour)
	later := taskNow.Add(48 * time.Hour)
	cases := []struct {
		name    string
		startAt time.Time
		endAt   time.Time
		content string
		docPath string
		devID   uuid.UUID
		want    Error
	}{
		{"past start wins over bad content", taskNow.Add(-time.Hour), later, "", "", uuid.Nil, TaskErrors.InvalidStartDate},
		{"start equal to now", taskNow, later, "work", "", dev, TaskErrors.InvalidStartDate},
		{"past end is a range problem", future, taskNow.Add(-time.Hour), "work", "", dev, TaskErrors.InvalidDateRange},
		{"start after end", later, future, "work", "", dev, TaskErrors.InvalidDateRange},
		{"start equals end", future, future, "work", "", dev, TaskErrors.InvalidDateRange},
		{"oversized content", future, later, strings.Repeat("x", 1001), "", dev, TaskErrors.InvalidContent},
		{"oversized document path", future, later, "work", strings.Repeat("p", 501), dev, TaskErrors.InvalidDocumentPath},
		{"missing developer", future, later, "work", "", uuid.Nil, TaskErrors.InvalidDeveloperID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewTask(tc.startAt, tc.endAt, tc.content, tc.docPath, tc.devID, taskNow)
			if res.IsSuccess() {
				t.Fatalf("expected failure %s, got success", tc.want.Code)
			}
			if res.Err() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want.Code, res.Err().Code)
			}
		})
	}
}

// A future start paired with an end that already passed must be reported
// as an inverted range, not as a stale end date.
func TestNewTaskInvertedWindowIsRangeError(t *testing.T) {
	res := NewTask(taskNow.Add(24*time.Hour), taskNow, "some work", "", uuid.New(), taskNow)
	if res.IsSuccess() {
		t.Fatal("inverted window accepted")
	}
	if res.Err() != TaskErrors.InvalidDateRange {
		t.Fatalf("expected InvalidDateRange, got %s", res.Err().Code)
	}
}

func TestTaskContentOptional(t *testing.T) {
	res := NewTask(taskNow.Add(time.Hour), taskNow.Add(2*time.Hour), "   ", "", uuid.New(), taskNow)
	if res.IsFailure() {
		t.Fatalf("blank content rejected: %s", res.Err().Code)
	}
	if res.Value().Content != "" {
		t.Fatalf("blank content not normalized: %q", res.Value().Content)
	}
	task := res.Value()
	if upd := task.Update(task.StartAt, task.EndAt, "", ""); upd.IsFailure() {
		t.Fatalf("update to empty content rejected: %s", upd.Err().Code)
	}
}

func TestTaskContentAtLimit(t *testing.T) {
	res := NewTask(taskNow.Add(time.Hour), taskNow.Add(2*time.Hour), strings.Repeat("x", 1000), "", uuid.New(), taskNow)
	if res.IsFailure() {
		t.Fatalf("content of exactly 1000 chars rejected: %s", res.Err().Code)
	}
}

func TestTaskNoOpUpdateIsIdempotent(t *testing.T) {
	task := validTask(t)
	before := *task
	// Same values again, even after the start date passed.
	res := task.Update(task.StartAt, task.EndAt, task.Content, task.DocumentPath)
	if res.IsFailure() {
		t.Fatalf("no-op update failed: %s", res.Err().Code)
	}
	if task.StartAt != before.StartAt || task.EndAt != before.EndAt || task.Content != before.Content {
		t.Fatal("no-op update changed state")
	}
}

func TestTaskUpdateKeepsRangeRule(t *testing.T) {
	task := validTask(t)
	res := task.Update(task.EndAt, task.StartAt, task.Content, "")
	if res.IsSuccess() || res.Err() != TaskErrors.InvalidDateRange {
		t.Fatalf("expected InvalidDateRange, got %+v", res.Err())
	}
}

func TestMarkAsFinishedTwice(t *testing.T) {
	task := validTask(t)
	if res := task.MarkAsFinished(); res.IsFailure() {
		t.Fatalf("first finish failed: %s", res.Err().Code)
	}
	if !task.IsFinished || task.Progress != TaskProgressCompleted {
		t.Fatalf("finish did not settle state: finished=%v progress=%s", task.IsFinished, task.Progress)
	}
	res := task.MarkAsFinished()
	if res.IsSuccess() || res.Err() != TaskErrors.AlreadyFinished {
		t.Fatalf("expected AlreadyFinished, got %+v", res.Err())
	}
}

func TestReopenRequiresFinished(t *testing.T) {
	task := validTask(t)
	if res := task.Reopen(); res.IsSuccess() || res.Err() != TaskErrors.NotFinished {
		t.Fatalf("expected NotFinished, got %+v", res.Err())
	}
	task.MarkAsFinished()
	if res := task.Reopen(); res.IsFailure() {
		t.Fatalf("reopen failed: %s", res.Err().Code)
	}
	if task.IsFinished || task.Progress != TaskProgressInProgress {
		t.Fatalf("reopen did not settle state: finished=%v progress=%s", task.IsFinished, task.Progress)
	}
}

func TestUpdateProgressCompletedImpliesFinish(t *testing.T) {
	task := validTask(t)
	if res := task.UpdateProgress(TaskProgressCompleted); res.IsFailure() {
		t.Fatalf("progress update failed: %s", res.Err().Code)
	}
	if !task.IsFinished {
		t.Fatal("completed progress should finish the task")
	}
	// Completing again is a no-op, not a conflict.
	if res := task.UpdateProgress(TaskProgressCompleted); res.IsFailure() {
		t.Fatalf("repeated complete failed: %s", res.Err().Code)
	}
	if !task.IsFinished || task.Progress != TaskProgressCompleted {
		t.Fatal("repeated complete disturbed state")
	}
	// But a finished task cannot move backward.
	if res := task.UpdateProgress(TaskProgressInProgress); res.IsSuccess() || res.Err() != TaskErrors.AlreadyFinished {
		t.Fatalf("expected AlreadyFinished, got %+v", res.Err())
	}
	if res := task.UpdateProgress(TaskProgress(9)); res.IsSuccess() || res.Err() != TaskErrors.InvalidProgress {
		t.Fatalf("expected InvalidProgress, got %+v", res.Err())
	}
}

func TestAssignToDeveloper(t *testing.T) {
	task := validTask(t)
	if res := task.AssignToDeveloper(uuid.Nil); res.IsSuccess() {
		t.Fatal("nil developer accepted")
	}
	next := uuid.New()
	if res := task.AssignToDeveloper(next); res.IsFailure() {
		t.Fatalf("assign failed: %s", res.Err().Code)
	}
	if task.AssignedToDeveloperID != next {
		t.Fatal("assignee not updated")
	}
}
