package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/ui"
)

// listCommand builds one of the id-in, tasks-out hierarchy queries.
func listCommand(use, short, empty string, query func(*service.Service, context.Context, string) *service.Result) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id := checkIDs(args)[0]
			res := query(svc, rootCtx, id)
			finish(res, func() { printTasks(res.Tasks, false, empty) })
		},
	}
}

var (
	childrenCmd    = listCommand("children", "List direct children in sibling order", "No children.", (*service.Service).Children)
	descendantsCmd = listCommand("descendants", "List every task below a task", "No descendants.", (*service.Service).Descendants)
	ancestorsCmd   = listCommand("ancestors", "List the parent chain, nearest first", "No ancestors (top-level task).", (*service.Service).Ancestors)
)

var rootOfCmd = &cobra.Command{
	Use:   "root <id>",
	Short: "Show the topmost ancestor of a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.Root(rootCtx, id)
		finish(res, func() { fmt.Println(ui.TaskLine(res.Task)) })
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Show a task and everything below it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.Tree(rootCtx, id)
		finish(res, func() { fmt.Println(ui.RenderTree(res.Tree)) })
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <parent-id> <child-id>...",
	Short: "Set the sibling order of a task's children",
	Long: `Set the sibling order of a task's children. Listed children get order
0, 1, 2... in the order given; children not listed keep their relative order
after them.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ids := checkIDs(args)
		res := svc.Reorder(rootCtx, ids[0], ids[1:])
		finish(res, func() { printTasks(res.Tasks, true, "No children.") })
	},
}

var reparentCmd = &cobra.Command{
	Use:   "reparent <id> [new-parent-id]",
	Short: "Move a task under a new parent",
	Long:  `Move a task under a new parent. Without a new parent the task becomes top-level. Moving a task under its own descendant is refused.`,
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ids := checkIDs(args)
		newParent := ""
		if len(ids) == 2 {
			newParent = ids[1]
		}
		res := svc.Reparent(rootCtx, ids[0], newParent)
		finish(res, func() {
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
		})
	},
}

func init() {
	rootCmd.AddCommand(childrenCmd, descendantsCmd, ancestorsCmd, rootOfCmd, treeCmd, reorderCmd, reparentCmd)
}
