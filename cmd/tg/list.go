package main

import (
	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/types"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		statusStr, _ := cmd.Flags().GetString("status")
		typeStr, _ := cmd.Flags().GetString("type")

		var filter types.Filter
		filter.Project = project
		if statusStr != "" {
			st, err := types.ParseStatus(statusStr)
			if err != nil {
				fatalInput("%v", err)
			}
			filter.Status = st
		}
		if typeStr != "" {
			typ, err := types.ParseType(typeStr)
			if err != nil {
				fatalInput("%v", err)
			}
			filter.Type = typ
		}

		res := svc.List(rootCtx, filter)
		finish(res, func() { printTasks(res.Tasks, false, "No tasks found.") })
	},
}

func init() {
	listCmd.Flags().StringP("project", "p", "", "Only tasks in this project")
	listCmd.Flags().StringP("status", "s", "", "Only tasks with this status")
	listCmd.Flags().StringP("type", "t", "", "Only tasks of this type")
	rootCmd.AddCommand(listCmd)
}
