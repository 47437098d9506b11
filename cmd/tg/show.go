package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.Get(rootCtx, id)
		finish(res, func() { printTaskDetail(res.Task) })
	},
}

func printTaskDetail(t *types.Task) {
	fmt.Printf("%s %s\n", ui.RenderID(t.ID), ui.RenderAccent(t.Title))
	fmt.Println(ui.RenderSeparator())

	field := func(label, value string) {
		if value != "" {
			fmt.Printf("%-12s %s\n", ui.RenderCategory(label+":"), value)
		}
	}
	field("Status", ui.RenderStatus(t.Status))
	field("Type", string(t.Type))
	field("Priority", ui.RenderPriority(t.Priority))
	field("Project", t.Project)
	field("Parent", t.Parent)
	field("Depends on", strings.Join(t.DependsOn, ", "))
	field("Soft deps", strings.Join(t.SoftDependsOn, ", "))
	field("Tags", strings.Join(t.Tags, ", "))
	field("Assignee", t.ClaimedBy())
	if t.Due != nil {
		field("Due", formatTime(*t.Due))
	}
	field("Created", formatTime(t.Created))
	field("Modified", formatTime(t.Modified))
	field("Depth", fmt.Sprint(t.Depth))
	if !t.Leaf {
		field("Leaf", "no")
	}

	if strings.TrimSpace(t.Body) != "" {
		fmt.Println()
		fmt.Print(ui.RenderMarkdown(t.Body))
	}
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func init() {
	rootCmd.AddCommand(showCmd)
}
