package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update task fields",
	Long: `Update one or more fields of a task. Only flags that are given change.

Setting --status in_progress claims the task for --assignee (default: the
current actor) and fails if someone else holds it. Setting --status done
runs the completion check and unblocks dependents.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		p := updateParamsFromFlags(cmd)
		res := svc.Update(rootCtx, id, p)
		finish(res, func() {
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
			printUnblocked(res.Tasks)
		})
	},
}

func updateParamsFromFlags(cmd *cobra.Command) service.UpdateParams {
	f := cmd.Flags()
	var p service.UpdateParams

	if f.Changed("title") {
		v, _ := f.GetString("title")
		p.Title = &v
	}
	if f.Changed("type") {
		v, _ := f.GetString("type")
		typ, err := types.ParseType(v)
		if err != nil {
			fatalInput("%v", err)
		}
		p.Type = &typ
	}
	if f.Changed("status") {
		v, _ := f.GetString("status")
		st, err := types.ParseStatus(v)
		if err != nil {
			fatalInput("%v", err)
		}
		p.Status = &st
	}
	if f.Changed("project") {
		v, _ := f.GetString("project")
		p.Project = &v
	}
	if f.Changed("parent") {
		v, _ := f.GetString("parent")
		p.Parent = &v
	}
	if f.Changed("deps") {
		v, _ := f.GetStringSlice("deps")
		p.DependsOn = &v
	}
	if f.Changed("soft-deps") {
		v, _ := f.GetStringSlice("soft-deps")
		p.SoftDependsOn = &v
	}
	if f.Changed("tags") {
		v, _ := f.GetStringSlice("tags")
		p.Tags = &v
	}
	if f.Changed("priority") {
		v, _ := f.GetInt("priority")
		p.Priority = &v
	}
	if f.Changed("order") {
		v, _ := f.GetInt("order")
		p.Order = &v
	}
	if f.Changed("body") {
		v, _ := f.GetString("body")
		p.Body = &v
	}
	if f.Changed("assignee") {
		v, _ := f.GetString("assignee")
		p.Assignee = &v
	}
	if f.Changed("due") {
		v, _ := f.GetString("due")
		if v == "" {
			p.ClearDue = true
		} else {
			p.Due = parseDue(v)
		}
	}
	p.Force, _ = f.GetBool("force")
	return p
}

func printUnblocked(tasks []*types.Task) {
	for _, t := range tasks {
		fmt.Printf("  %s unblocked %s\n", ui.RenderAccent("→"), ui.TaskLine(t))
	}
}

func init() {
	f := updateCmd.Flags()
	f.String("title", "", "New title")
	f.StringP("type", "t", "", "New type")
	f.StringP("status", "s", "", "New status")
	f.StringP("project", "p", "", "Move to project (empty for inbox)")
	f.String("parent", "", "New parent id (empty to detach)")
	f.StringSlice("deps", nil, "Replace hard dependencies")
	f.StringSlice("soft-deps", nil, "Replace soft dependencies")
	f.StringSlice("tags", nil, "Replace tags")
	f.Int("priority", 2, "New priority")
	f.Int("order", 0, "New sibling order")
	f.StringP("body", "d", "", "Replace markdown body")
	f.String("assignee", "", "Assignee (used when claiming)")
	f.String("due", "", "New due date (empty to clear)")
	f.Bool("force", false, "Mark done even with open checklist items")
	rootCmd.AddCommand(updateCmd)
}
