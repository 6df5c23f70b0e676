package domain

import "testing"

func TestResultInvariants(t *testing.T) {
	ok := Success()
	if !ok.IsSuccess() || ok.IsFailure() || !ok.Err().IsNone() {
		t.Fatal("success result malformed")
	}
	fail := Failure(TaskErrors.TaskNotExist)
	if fail.IsSuccess() || fail.Err() != TaskErrors.TaskNotExist {
		t.Fatal("failure result malformed")
	}
}

func TestFailureWithNoneErrorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Failure(ErrNone)
}

func TestValueResultValuePanicsOnFailure(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Fail[int](UserErrors.UserNotExist).Value()
}

func TestValueResultCarriesValue(t *testing.T) {
	res := Ok("hello")
	if res.IsFailure() || res.Value() != "hello" {
		t.Fatal("value result malformed")
	}
}

func TestPagesResultCounters(t *testing.T) {
	cases := []struct {
		total       int64
		page, size  int
		wantPages   int
		hasForward  bool
		hasPrevious bool
	}{
		{25, 1, 10, 3, true, false},
		{25, 2, 10, 3, true, true},
		{25, 3, 10, 3, false, true},
		{0, 1, 10, 0, false, false},
		{10, 1, 10, 1, false, false},
	}
	for _, tc := range cases {
		pr := NewPagesResult([]int{}, tc.page, tc.size, tc.total)
		if pr.TotalPages != tc.wantPages || pr.HasForward != tc.hasForward || pr.HasPrevious != tc.hasPrevious {
			t.Fatalf("total=%d page=%d: got pages=%d forward=%v previous=%v",
				tc.total, tc.page, pr.TotalPages, pr.HasForward, pr.HasPrevious)
		}
	}
}

func TestCommentFactory(t *testing.T) {
	task := validTask(t)
	dev := task.AssignedToDeveloperID
	if res := NewComment("  ", task.ID, dev); res.IsSuccess() || res.Err() != CommentErrors.InvalidContent {
		t.Fatalf("expected InvalidContent, got %+v", res.Err())
	}
	res := NewComment(" looks good ", task.ID, dev)
	if res.IsFailure() {
		t.Fatalf("valid comment rejected: %s", res.Err().Code)
	}
	c := res.Value()
	if c.Content != "looks good" {
		t.Fatalf("content not trimmed: %q", c.Content)
	}
	task.AddComment(c)
	if len(task.Comments) != 1 {
		t.Fatal("comment not attached to task")
	}
}
