package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewDeveloperValidationOrder(t *testing.T) {
	userID := uuid.New()
	cases := []struct {
		name     string
		fullName string
		age      int
		jobTitle string
		years    int
		userID   uuid.UUID
		want     Error
	}{
		{"empty full name wins over bad age", "", 5, "", -1, uuid.Nil, DeveloperErrors.InvalidFullName},
		{"whitespace full name", "   ", 30, "Backend", 3, userID, DeveloperErrors.InvalidFullName},
		{"age below range", "Dana Reeve", 17, "Backend", 3, userID, DeveloperErrors.InvalidAge},
		{"age above range", "Dana Reeve", 81, "Backend", 3, userID, DeveloperErrors.InvalidAge},
		{"age before job title", "Dana Reeve", 10, "", -1, uuid.Nil, DeveloperErrors.InvalidAge},
		{"empty job title", "Dana Reeve", 30, "  ", 3, userID, DeveloperErrors.InvalidJobTitle},
		{"negative experience", "Dana Reeve", 30, "Backend", -1, userID, DeveloperErrors.InvalidYearOfExperience},
		{"missing user id", "Dana Reeve", 30, "Backend", 3, uuid.Nil, DeveloperErrors.InvalidUserID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewDeveloper(tc.fullName, tc.age, "", tc.jobTitle, tc.years, JobLevelJunior, tc.userID)
			if res.IsSuccess() {
				t.Fatalf("expected failure %s, got success", tc.want.Code)
			}
			if res.Err() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want.Code, res.Err().Code)
			}
		})
	}
}

func TestNewDeveloperBoundaryAges(t *testing.T) {
	for _, age := range []int{18, 80} {
		res := NewDeveloper("Dana Reeve", age, "", "Backend", 3, JobLevelSenior, uuid.New())
		if res.IsFailure() {
			t.Fatalf("age %d should be valid, got %s", age, res.Err().Code)
		}
	}
}

func TestNewDeveloperTrimsInput(t *testing.T) {
	res := NewDeveloper("  Dana Reeve ", 30, " img.png ", " Backend ", 3, JobLevelMid, uuid.New())
	if res.IsFailure() {
		t.Fatalf("unexpected failure: %s", res.Err().Code)
	}
	d := res.Value()
	if d.FullName != "Dana Reeve" || d.JobTitle != "Backend" || d.ImagePath != "img.png" {
		t.Fatalf("inputs not trimmed: %q %q %q", d.FullName, d.JobTitle, d.ImagePath)
	}
	if d.ID == uuid.Nil {
		t.Fatal("id not assigned")
	}
}

func TestDeveloperUpdateFailureLeavesStateUntouched(t *testing.T) {
	d := NewDeveloper("Dana Reeve", 30, "", "Backend", 3, JobLevelMid, uuid.New()).Value()
	res := d.Update("Dana Reeve", 17, "Backend", 3, JobLevelMid)
	if res.IsSuccess() {
		t.Fatal("expected failure")
	}
	if res.Err() != DeveloperErrors.InvalidAge {
		t.Fatalf("expected InvalidAge, got %s", res.Err().Code)
	}
	if d.Age != 30 {
		t.Fatalf("age mutated on failed update: %d", d.Age)
	}
}

func TestDeveloperAssignAndRemoveTask(t *testing.T) {
	d := NewDeveloper("Dana Reeve", 30, "", "Backend", 3, JobLevelMid, uuid.New()).Value()
	task := &TaskEntity{Base: newBase()}

	if res := d.AssignTask(task); res.IsFailure() {
		t.Fatalf("assign failed: %s", res.Err().Code)
	}
	// Assigning the same task again is a no-op.
	if res := d.AssignTask(task); res.IsFailure() {
		t.Fatalf("re-assign failed: %s", res.Err().Code)
	}
	if len(d.AssignedTasks) != 1 {
		t.Fatalf("expected 1 assigned task, got %d", len(d.AssignedTasks))
	}

	if res := d.RemoveTask(task.ID); res.IsFailure() {
		t.Fatalf("remove failed: %s", res.Err().Code)
	}
	if res := d.RemoveTask(task.ID); res.IsSuccess() {
		t.Fatal("removing absent task should fail")
	}
	if res := d.AssignTask(nil); res.IsSuccess() {
		t.Fatal("assigning nil task should fail")
	}
}
