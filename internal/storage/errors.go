package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/steveyegge/taskgraph/internal/types"
)

var (
	// ErrNotFound is returned by operations that require an existing task
	// (decompose parent, reparent target). Plain lookups return nil instead.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps bad enum values, malformed dates and ill-formed
	// decomposition batches.
	ErrValidation = types.ErrValidation

	// ErrClaimConflict is returned when another assignee holds the task.
	ErrClaimConflict = errors.New("claim conflict")

	// ErrIncompleteWork is returned when completion is blocked by markers
	// in the task body.
	ErrIncompleteWork = errors.New("incomplete work")
)

// ClaimConflictError names the current claimant and when the claim was
// taken (the task's last modification).
type ClaimConflictError struct {
	TaskID   string
	Assignee string
	Since    time.Time
}

func (e *ClaimConflictError) Error() string {
	return fmt.Sprintf("task %s already claimed by %s since %s",
		e.TaskID, e.Assignee, e.Since.UTC().Format(time.RFC3339))
}

func (e *ClaimConflictError) Unwrap() error { return ErrClaimConflict }

// ForceFlag is the override name surfaced in IncompleteWorkError messages.
const ForceFlag = "force"

// IncompleteWorkError lists the markers that blocked completion.
type IncompleteWorkError struct {
	TaskID  string
	Markers []string
}

func (e *IncompleteWorkError) Error() string {
	return fmt.Sprintf("task %s has incomplete markers: %s (pass %s=true to complete anyway)",
		e.TaskID, strings.Join(e.Markers, "; "), ForceFlag)
}

func (e *IncompleteWorkError) Unwrap() error { return ErrIncompleteWork }

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
