package types

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTaskValidation(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid task",
			task:    Task{ID: "20260101-abc123", Title: "Valid", Type: TypeTask, Status: StatusInbox, Priority: 2},
			wantErr: false,
		},
		{
			name:    "missing title",
			task:    Task{ID: "20260101-abc123", Type: TypeTask, Status: StatusInbox},
			wantErr: true,
			errMsg:  "title is required",
		},
		{
			name:    "title too long",
			task:    Task{ID: "20260101-abc123", Title: strings.Repeat("x", 501), Type: TypeTask, Status: StatusInbox},
			wantErr: true,
			errMsg:  "title must be 500 characters or less",
		},
		{
			name:    "invalid priority too low",
			task:    Task{ID: "20260101-abc123", Title: "T", Type: TypeTask, Status: StatusInbox, Priority: -1},
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name:    "invalid priority too high",
			task:    Task{ID: "20260101-abc123", Title: "T", Type: TypeTask, Status: StatusInbox, Priority: 5},
			wantErr: true,
			errMsg:  "priority must be between 0 and 4",
		},
		{
			name:    "invalid status",
			task:    Task{ID: "20260101-abc123", Title: "T", Type: TypeTask, Status: "someday"},
			wantErr: true,
			errMsg:  "invalid status",
		},
		{
			name:    "invalid type",
			task:    Task{ID: "20260101-abc123", Title: "T", Type: "epic", Status: StatusInbox},
			wantErr: true,
			errMsg:  "invalid task type",
		},
		{
			name:    "path traversal id",
			task:    Task{ID: "../etc/passwd", Title: "T", Type: TypeTask, Status: StatusInbox},
			wantErr: true,
			errMsg:  "invalid task id",
		},
		{
			name:    "self parent",
			task:    Task{ID: "x1", Parent: "x1", Title: "T", Type: TypeTask, Status: StatusInbox},
			wantErr: true,
			errMsg:  "cannot be its own parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"inbox", StatusInbox, false},
		{"ACTIVE", StatusActive, false},
		{"in-progress", StatusInProgress, false},
		{"in_progress", StatusInProgress, false},
		{"todo", StatusInbox, false},
		{"completed", StatusDone, false},
		{"closed", StatusDone, false},
		{"cancelled", StatusCancelled, false},
		{"wat", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTypeRejectsUnknown(t *testing.T) {
	for _, ok := range []string{"goal", "project", "task", "action"} {
		if _, err := ParseType(ok); err != nil {
			t.Errorf("ParseType(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "epic", "bug"} {
		if _, err := ParseType(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseType(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestStatusClasses(t *testing.T) {
	for _, s := range AllStatuses {
		eligible := s == StatusInbox || s == StatusActive
		if s.IsReadyEligible() != eligible {
			t.Errorf("%s.IsReadyEligible() = %v", s, s.IsReadyEligible())
		}
	}
	if !StatusDone.IsTerminal() || !StatusCancelled.IsTerminal() || StatusReview.IsTerminal() {
		t.Error("terminal status classification is wrong")
	}
}

func TestSetDefaultsNormalizesSets(t *testing.T) {
	task := &Task{DependsOn: []string{"a", " a ", "", "b"}, Tags: []string{}}
	task.SetDefaults()

	if task.Status != StatusInbox || task.Type != TypeTask {
		t.Errorf("defaults not applied: %s/%s", task.Status, task.Type)
	}
	if len(task.DependsOn) != 2 || task.DependsOn[0] != "a" || task.DependsOn[1] != "b" {
		t.Errorf("DependsOn = %v, want [a b]", task.DependsOn)
	}
	if task.Tags != nil {
		t.Errorf("empty tags should normalize to nil, got %#v", task.Tags)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	orig := &Task{ID: "a", DependsOn: []string{"b"}, Due: &due}
	c := orig.Clone()
	c.DependsOn[0] = "z"
	*c.Due = c.Due.Add(time.Hour)

	if orig.DependsOn[0] != "b" {
		t.Error("clone shares DependsOn backing array")
	}
	if !orig.Due.Equal(due) {
		t.Error("clone shares Due pointer")
	}
}

func TestClaimedBy(t *testing.T) {
	task := &Task{Status: StatusInProgress, Assignee: "user_a"}
	if got := task.ClaimedBy(); got != "user_a" {
		t.Errorf("ClaimedBy() = %q", got)
	}
	task.Status = StatusActive
	if got := task.ClaimedBy(); got != "" {
		t.Errorf("stale assignee should not count as a claim, got %q", got)
	}
}

func TestSortByReadiness(t *testing.T) {
	tasks := []*Task{
		{ID: "c", Title: "c", Priority: 2, Order: 0},
		{ID: "b", Title: "b", Priority: 1, Order: 1},
		{ID: "a", Title: "a", Priority: 1, Order: 1},
		{ID: "d", Title: "d", Priority: 1, Order: 0},
	}
	SortByReadiness(tasks)
	var got []string
	for _, t := range tasks {
		got = append(got, t.ID)
	}
	if strings.Join(got, ",") != "d,a,b,c" {
		t.Errorf("order = %v, want d,a,b,c", got)
	}
}
