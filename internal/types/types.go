// Package types defines core data structures for the task graph.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// ErrValidation is the sentinel wrapped by every structural validation
// failure (bad enum, missing title, malformed batch).
var ErrValidation = errors.New("validation error")

// Task is a single node in the task graph. One task is persisted per file.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Type          TaskType   `json:"type"`
	Status        Status     `json:"status"`
	Project       string     `json:"project,omitempty"` // empty routes to the inbox
	Parent        string     `json:"parent,omitempty"`
	DependsOn     []string   `json:"depends_on,omitempty"`      // hard: gates readiness
	SoftDependsOn []string   `json:"soft_depends_on,omitempty"` // informational only
	Tags          []string   `json:"tags,omitempty"`
	Priority      int        `json:"priority"` // No omitempty: 0 is valid (P0/critical)
	Due           *time.Time `json:"due,omitempty"`
	Created       time.Time  `json:"created"`
	Modified      time.Time  `json:"modified"`
	Depth         int        `json:"depth"`
	Order         int        `json:"order"`
	Leaf          bool       `json:"leaf"`
	Assignee      string     `json:"assignee,omitempty"` // meaningful only while in_progress
	Body          string     `json:"body,omitempty"`
}

// Clone returns a deep copy so callers can mutate without aliasing cached state.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.DependsOn = slices.Clone(t.DependsOn)
	c.SoftDependsOn = slices.Clone(t.SoftDependsOn)
	c.Tags = slices.Clone(t.Tags)
	if t.Due != nil {
		d := *t.Due
		c.Due = &d
	}
	return &c
}

// DependsOnID reports whether id is one of t's hard dependencies.
func (t *Task) DependsOnID(id string) bool {
	return slices.Contains(t.DependsOn, id)
}

// ClaimedBy returns the current claim owner, or "" when the task is not
// held. Ownership only counts while the task is in_progress.
func (t *Task) ClaimedBy() string {
	if t.Status != StatusInProgress {
		return ""
	}
	return t.Assignee
}

var idPattern = regexp.MustCompile(`^(\d{8}-)?[A-Za-z0-9_-]+$`)

// ValidID reports whether id is safe to use as a file name.
func ValidID(id string) bool {
	return id != "" && len(id) <= 128 && idPattern.MatchString(id)
}

// Validate checks if the task has valid field values
func (t *Task) Validate() error {
	if !ValidID(t.ID) {
		return fmt.Errorf("%w: invalid task id %q", ErrValidation, t.ID)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("%w: title must be 500 characters or less (got %d)", ErrValidation, len(t.Title))
	}
	if t.Priority < 0 || t.Priority > 4 {
		return fmt.Errorf("%w: priority must be between 0 and 4 (got %d)", ErrValidation, t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: invalid status: %s", ErrValidation, t.Status)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: invalid task type: %s", ErrValidation, t.Type)
	}
	if t.Depth < 0 {
		return fmt.Errorf("%w: depth cannot be negative", ErrValidation)
	}
	if t.Parent != "" && t.Parent == t.ID {
		return fmt.Errorf("%w: task %s cannot be its own parent", ErrValidation, t.ID)
	}
	return nil
}

// SetDefaults fills in fields omitted by callers or by hand-written files.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusInbox
	}
	if t.Type == "" {
		t.Type = TypeTask
	}
	t.DependsOn = normalizeSet(t.DependsOn)
	t.SoftDependsOn = normalizeSet(t.SoftDependsOn)
	t.Tags = normalizeSet(t.Tags)
}

// normalizeSet drops blanks and duplicates while keeping first-seen order.
// An empty result is nil.
func normalizeSet(in []string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Status represents the lifecycle state of a task
type Status string

// Task status constants
const (
	StatusInbox      Status = "inbox"
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
	StatusReview     Status = "review"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusInbox, StatusActive, StatusInProgress, StatusBlocked,
	StatusDone, StatusReview, StatusCancelled,
}

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusInbox, StatusActive, StatusInProgress, StatusBlocked, StatusDone, StatusReview, StatusCancelled:
		return true
	}
	return false
}

// IsReadyEligible reports whether a task in this status may appear in the
// ready set (subject to leaf and dependency checks).
func (s Status) IsReadyEligible() bool {
	return s == StatusInbox || s == StatusActive
}

// IsTerminal reports whether no further work is expected.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

var statusAliases = map[string]Status{
	"todo":        StatusInbox,
	"open":        StatusInbox,
	"in-progress": StatusInProgress,
	"complete":    StatusDone,
	"completed":   StatusDone,
	"closed":      StatusDone,
	"canceled":    StatusCancelled,
}

// ParseStatus parses s into a Status, accepting a handful of common aliases.
func ParseStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if st := Status(v); st.IsValid() {
		return st, nil
	}
	if st, ok := statusAliases[v]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: invalid status: %q", ErrValidation, s)
}

// TaskType categorizes a node in the hierarchy
type TaskType string

// Task type constants
const (
	TypeGoal    TaskType = "goal"
	TypeProject TaskType = "project"
	TypeTask    TaskType = "task"
	TypeAction  TaskType = "action"
)

// AllTypes lists every task type from broadest to narrowest.
var AllTypes = []TaskType{TypeGoal, TypeProject, TypeTask, TypeAction}

// IsValid checks if the task type value is valid
func (t TaskType) IsValid() bool {
	switch t {
	case TypeGoal, TypeProject, TypeTask, TypeAction:
		return true
	}
	return false
}

// ParseType parses s into a TaskType. Unknown values are rejected.
func ParseType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid task type: %q", ErrValidation, s)
	}
	return t, nil
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Project string
	Status  Status
	Type    TaskType
}

// Matches reports whether t passes every set predicate.
func (f Filter) Matches(t *Task) bool {
	if f.Project != "" && t.Project != f.Project {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

// CreateParams carries the caller-supplied fields for a new task.
type CreateParams struct {
	Title         string
	Type          TaskType
	Project       string
	Parent        string
	DependsOn     []string
	SoftDependsOn []string
	Tags          []string
	Priority      int
	Due           *time.Time
	Order         int
	Body          string
}

// ChildSpec describes one child in a decomposition batch. DependsOn entries
// may name an existing task id or the title of an earlier spec in the batch.
type ChildSpec struct {
	Title         string   `json:"title" yaml:"title" toml:"title"`
	Type          TaskType `json:"type,omitempty" yaml:"type,omitempty" toml:"type"`
	Order         *int     `json:"order,omitempty" yaml:"order,omitempty" toml:"order"`
	DependsOn     []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on"`
	SoftDependsOn []string `json:"soft_depends_on,omitempty" yaml:"soft_depends_on,omitempty" toml:"soft_depends_on"`
	Priority      *int     `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority"`
	Project       string   `json:"project,omitempty" yaml:"project,omitempty" toml:"project"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags"`
	Body          string   `json:"body,omitempty" yaml:"body,omitempty" toml:"body"`
}

// TreeNode is a task together with its recursively expanded children.
type TreeNode struct {
	Task     *Task       `json:"task"`
	Children []*TreeNode `json:"children"`
}

// Size counts the nodes in the subtree rooted at n.
func (n *TreeNode) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}
