package timeline

import (
	"errors"
	"testing"
)

func TestPriorityFromImportance(t *testing.T) {
	cases := map[int]Priority{
		1: PriorityLow,
		2: PriorityLow,
		3: PriorityMedium,
		4: PriorityHigh,
		5: PriorityHigh,
	}
	for in, want := range cases {
		if got := PriorityFromImportance(in); got != want {
			t.Errorf("PriorityFromImportance(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus("in_progress"); err != nil || s != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %q %v", s, err)
	}
	if _, err := ParseStatus("finished"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssigneeFor(t *testing.T) {
	if AssigneeFor(OwnerPlanner) != AssigneeTenant {
		t.Fatalf("planner templates belong to the tenant")
	}
	if AssigneeFor(OwnerClient) != AssigneeClient {
		t.Fatalf("client templates belong to the client")
	}
}

func TestTaskInstance_Validate(t *testing.T) {
	note := "note-1"
	base := func() TaskInstance {
		return TaskInstance{
			ClientID:        "client-1",
			Title:           "Call venue",
			Priority:        PriorityMedium,
			Status:          StatusTodo,
			AssigneeType:    AssigneeClient,
			AssigneeID:      "client-1",
			CreatedByUserID: "user-1",
			Source:          SourceManual,
		}
	}

	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]func(*TaskInstance){
		"empty title":           func(ti *TaskInstance) { ti.Title = " " },
		"no assignee":           func(ti *TaskInstance) { ti.AssigneeID = "" },
		"manual with note":      func(ti *TaskInstance) { ti.MeetingNoteID = &note },
		"meeting without note":  func(ti *TaskInstance) { ti.Source = SourceMeetingNote },
		"bad status":            func(ti *TaskInstance) { ti.Status = "LATER" },
		"bad assignee type":     func(ti *TaskInstance) { ti.AssigneeType = "VENDOR" },
		"missing creator":       func(ti *TaskInstance) { ti.CreatedByUserID = "" },
		"unknown source":        func(ti *TaskInstance) { ti.Source = "EMAIL" },
	}
	for name, mutate := range cases {
		ti := base()
		mutate(&ti)
		if err := ti.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}
