package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var claimCmd = &cobra.Command{
	Use:   "claim [id]",
	Short: "Claim a task, or the best ready task when no id is given",
	Long: `Claim a task by moving it to in_progress under your name.

With an id, that task is claimed; this fails if someone else holds it.
Without an id, the highest-ranked ready task that nobody else holds is
claimed. Finding nothing to claim is not an error.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignee, _ := cmd.Flags().GetString("assignee")
		project, _ := cmd.Flags().GetString("project")

		var res *service.Result
		if len(args) == 1 {
			id := checkIDs(args)[0]
			status := types.StatusInProgress
			p := service.UpdateParams{Status: &status}
			if assignee != "" {
				p.Assignee = &assignee
			}
			res = svc.Update(rootCtx, id, p)
		} else {
			res = svc.ClaimNext(rootCtx, assignee, project)
		}

		finish(res, func() {
			if res.Task == nil {
				debug.PrintNormal("%s No ready work to claim\n", ui.RenderWarn(ui.IconWarn))
				return
			}
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
			fmt.Printf("  %s\n", ui.TaskLine(res.Task))
		})
	},
}

func init() {
	claimCmd.Flags().String("assignee", "", "Claim on behalf of this name (default: actor)")
	claimCmd.Flags().StringP("project", "p", "", "When picking, only consider this project")
	rootCmd.AddCommand(claimCmd)
}
