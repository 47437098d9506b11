package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/ui"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task file",
	Long: `Delete a task file. Children and dependents are left in place and will
report the missing task as an unmet dependency or dangling parent.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.Delete(rootCtx, id)
		finish(res, func() {
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
		})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
