package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/ui"
	"github.com/steveyegge/taskgraph/internal/workspace"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace <id>",
	Aliases: []string{"ws"},
	Short:   "Create (or locate) the working directory for a task",
	Long: `Create the working directory for a task and print its path.

When workspace.repo is configured the directory is a git worktree on
branch task/<id>. Concurrent calls for the same task are serialized; the
second caller gets the existing path.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.SetupWorkspace(rootCtx, id)
		finish(res, func() {
			ws, _ := res.Stats.(*workspace.Workspace)
			if ws == nil || debug.IsQuiet() {
				fmt.Println(res.Message)
				return
			}
			verb := "Using existing"
			if ws.Created {
				verb = "Created"
			}
			fmt.Printf("%s %s workspace for %s\n", ui.RenderPass(ui.IconPass), verb, ui.RenderID(id))
			if ws.Branch != "" {
				fmt.Printf("  branch: %s\n", ws.Branch)
			}
			fmt.Println(ws.Path)
		})
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
}
