// Package taskgraph is the public entry point for programs that want to
// drive a task tree directly instead of through the tg CLI.
//
// Open a Service over a data root and call its operations; every call
// returns a Result envelope with Success, Message and the affected tasks.
package taskgraph

import (
	"log/slog"

	"github.com/steveyegge/taskgraph/internal/config"
	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/types"
)

// Core types
type (
	Task         = types.Task
	Status       = types.Status
	TaskType     = types.TaskType
	Filter       = types.Filter
	CreateParams = types.CreateParams
	ChildSpec    = types.ChildSpec
	TreeNode     = types.TreeNode
	Service      = service.Service
	Result       = service.Result
	UpdateParams = service.UpdateParams
)

// Status constants
const (
	StatusInbox      = types.StatusInbox
	StatusActive     = types.StatusActive
	StatusInProgress = types.StatusInProgress
	StatusBlocked    = types.StatusBlocked
	StatusDone       = types.StatusDone
	StatusReview     = types.StatusReview
	StatusCancelled  = types.StatusCancelled
)

// TaskType constants
const (
	TypeGoal    = types.TypeGoal
	TypeProject = types.TypeProject
	TypeTask    = types.TypeTask
	TypeAction  = types.TypeAction
)

// Open returns a Service over the task files under dataRoot. Settings not
// given here come from TG_* environment variables and the optional
// <dataRoot>/.taskgraph/config.yaml. A nil logger discards logs.
func Open(dataRoot string, logger *slog.Logger) (*Service, error) {
	v := config.New()
	v.Set("data-root", dataRoot)
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	return service.Open(cfg, logger)
}
