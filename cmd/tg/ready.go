package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var readyCmd = &cobra.Command{
	Use:   "ready",
	Short: "Show ready work (leaf tasks with every dependency done)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		limit, _ := cmd.Flags().GetInt("limit")

		res := svc.Ready(rootCtx, project)
		limitResult(res, limit)
		finish(res, func() {
			if len(res.Tasks) == 0 {
				debug.PrintNormal("%s No ready work found\n", ui.RenderWarn(ui.IconWarn))
				return
			}
			fmt.Printf("%s Ready work (%d tasks):\n\n", ui.RenderAccent("📋"), len(res.Tasks))
			printTasks(res.Tasks, true, "")
		})
	},
}

var blockedCmd = &cobra.Command{
	Use:   "blocked",
	Short: "Show open tasks waiting on unfinished dependencies",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res := svc.Blocked(rootCtx)
		finish(res, func() {
			if len(res.Tasks) == 0 {
				debug.PrintNormal("%s Nothing is blocked\n", ui.RenderPass(ui.IconPass))
				return
			}
			fmt.Printf("%s Blocked (%d tasks):\n\n", ui.RenderFail("🚫"), len(res.Tasks))
			for _, t := range res.Tasks {
				fmt.Println(ui.TaskLine(t))
				for _, dep := range t.DependsOn {
					fmt.Printf("    %s %s\n", ui.RenderMuted("waits on"), ui.RenderID(dep))
				}
			}
		})
	},
}

// limitResult trims a task list result to at most limit entries.
func limitResult(res *service.Result, limit int) {
	if !res.Success || limit <= 0 || len(res.Tasks) <= limit {
		return
	}
	res.Tasks = res.Tasks[:limit]
	n := limit
	res.Count = &n
}

func init() {
	readyCmd.Flags().StringP("project", "p", "", "Only tasks in this project")
	readyCmd.Flags().IntP("limit", "n", 0, "Maximum tasks to show (0 for all)")
	rootCmd.AddCommand(readyCmd, blockedCmd)
}
