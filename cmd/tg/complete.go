package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/completion"
	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var completeCmd = &cobra.Command{
	Use:     "complete <id> [id...]",
	Aliases: []string{"done", "close"},
	Short:   "Mark tasks done and unblock their dependents",
	Long: `Mark one or more tasks done. A task whose body still shows open work
(unchecked "- [ ]" items, a "Remaining" section, "WIP", "60% complete")
is refused unless --force is given.

Dependents whose last unmet dependency was completed are moved to active.
With several ids each is completed independently.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ids := checkIDs(args)
		force, _ := cmd.Flags().GetBool("force")

		if len(ids) == 1 {
			res := svc.Complete(rootCtx, ids[0], force)
			finish(res, func() {
				fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
				printUnblocked(res.Tasks)
			})
			return
		}

		res := svc.CompleteBulk(rootCtx, ids, force)
		if jsonOutput {
			finish(res, func() {})
			return
		}
		bulk, _ := res.Stats.(*completion.BulkResult)
		if bulk == nil {
			finish(res, func() {})
			return
		}
		for _, item := range bulk.Results {
			if item.Success {
				msg := "completed " + item.ID
				if item.Message != "" {
					msg = item.ID + " " + item.Message
				}
				fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), msg)
				printUnblocked(item.Unblocked)
				continue
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", ui.RenderFail(ui.IconFail), item.ID, item.Message)
		}
		debug.PrintNormal("%s\n", res.Message)
		if !res.Success {
			os.Exit(1)
		}
	},
}

func init() {
	completeCmd.Flags().Bool("force", false, "Complete even with open checklist items")
	rootCmd.AddCommand(completeCmd)
}
