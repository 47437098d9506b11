package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/storage"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

// outputJSON writes v as indented JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// outputJSONError writes an error object to stderr and exits with status 1.
func outputJSONError(err error, code string) {
	errObj := map[string]string{"error": err.Error()}
	if code != "" {
		errObj["code"] = code
	}
	encoder := json.NewEncoder(os.Stderr)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(errObj)
	os.Exit(1)
}

// finish prints a service result. In JSON mode the whole envelope goes to
// stdout. Otherwise failures are fatal and render draws the success case.
// Either way a failed result exits with status 1.
func finish(res *service.Result, render func()) {
	if jsonOutput {
		outputJSON(res)
		if !res.Success {
			os.Exit(1)
		}
		return
	}
	if !res.Success {
		if hint := hintFor(res.Err); hint != "" {
			FatalErrorWithHint(res.Message, hint)
		}
		FatalError("%s", res.Message)
	}
	render()
}

func hintFor(err error) string {
	var claimErr *storage.ClaimConflictError
	var incomplete *storage.IncompleteWorkError
	switch {
	case errors.As(err, &claimErr):
		return "run 'tg ready' to find unclaimed work"
	case errors.As(err, &incomplete):
		return "finish the open items or pass --force"
	case errors.Is(err, storage.ErrNotFound):
		return "run 'tg list' to see task ids"
	}
	return ""
}

// printTasks prints one TaskLine per task, numbered when numbered is set.
func printTasks(tasks []*types.Task, numbered bool, empty string) {
	if len(tasks) == 0 {
		debug.PrintNormal("%s\n", empty)
		return
	}
	for i, t := range tasks {
		if numbered {
			fmt.Printf("%d. %s\n", i+1, ui.TaskLine(t))
			continue
		}
		fmt.Println(ui.TaskLine(t))
	}
}

// fatalInput rejects bad command-line input before any store access.
func fatalInput(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	if jsonOutput {
		outputJSONError(err, "invalid_input")
	}
	FatalError("%v", err)
}

// checkIDs rejects any positional argument that is not a valid task id.
func checkIDs(args []string) []string {
	for _, id := range args {
		if !types.ValidID(id) {
			fatalInput("invalid task id %q", id)
		}
	}
	return args
}
