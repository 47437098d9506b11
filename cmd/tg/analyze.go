package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/topology"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [scope]",
	Short: "Aggregate counts over the task graph",
	Long: `Aggregate counts over all tasks, one project, or one subtree.

Scope is "all" (default), "project:<name>", or a task id.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		scope := ""
		if len(args) == 1 {
			scope = args[0]
		}
		res := svc.Metrics(rootCtx, scope)
		finish(res, func() {
			if m, ok := res.Stats.(topology.Metrics); ok {
				printMetrics(&m)
			}
		})
	},
}

func printMetrics(m *topology.Metrics) {
	fmt.Printf("%s %s\n", ui.RenderAccent("Scope:"), scopeLabel(m.Scope))
	fmt.Println(ui.RenderSeparator())
	fmt.Printf("Total tasks:   %d\n", m.TotalTasks)
	fmt.Printf("Roots:         %d (orphans %d)\n", m.RootCount, m.OrphanCount)
	fmt.Printf("Leaves:        %d\n", m.LeafCount)
	fmt.Printf("Depth:         max %d, avg %.2f\n", m.MaxDepth, m.AvgDepth)
	fmt.Println()

	fmt.Println(ui.RenderCategory("By status"))
	for _, st := range types.AllStatuses {
		if n := m.TasksByStatus[st]; n > 0 {
			fmt.Printf("  %s\t%d\n", ui.RenderStatus(st), n)
		}
	}
	fmt.Println(ui.RenderCategory("By type"))
	for _, typ := range types.AllTypes {
		if n := m.TasksByType[typ]; n > 0 {
			fmt.Printf("  %-12s %d\n", typ, n)
		}
	}
	fmt.Println()

	d := m.Dependencies
	fmt.Printf("Dependencies:  %d edges, max in %d, max out %d\n", d.TotalEdges, d.MaxInDegree, d.MaxOutDegree)
	for _, e := range d.HighOutDegree {
		fmt.Printf("  %s %s (%d deps)\n", ui.RenderID(e.ID), e.Title, e.OutDegree)
	}
	r := m.Readiness
	fmt.Printf("Readiness:     %d ready, %d blocked, %d in progress\n", r.Ready, r.Blocked, r.InProgress)
}

func scopeLabel(s topology.Scope) string {
	if s.ID == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.ID
}

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Per-task position in the graph",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		f := topology.Filter{}
		f.Project, _ = cmd.Flags().GetString("project")
		f.MinDepth, _ = cmd.Flags().GetInt("min-depth")
		f.MinBlockingCount, _ = cmd.Flags().GetInt("min-blocking")
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			st, err := types.ParseStatus(s)
			if err != nil {
				fatalInput("%v", err)
			}
			f.Status = st
		}

		res := svc.Topology(rootCtx, f)
		finish(res, func() {
			tops, _ := res.Stats.([]topology.TaskTopology)
			if len(tops) == 0 {
				debug.PrintNormal("No tasks found.\n")
				return
			}
			for _, tt := range tops {
				ready := "-"
				if tt.ReadyDays != nil {
					ready = fmt.Sprintf("%dd", *tt.ReadyDays)
				}
				fmt.Printf("%s %s [%s] depth=%d children=%d blocks=%d waits=%d ready=%s\n",
					ui.RenderID(tt.ID), tt.Title, ui.RenderStatus(tt.Status),
					tt.Depth, tt.ChildCount, tt.BlockingCount, tt.BlockedByCount, ready)
			}
		})
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Review snapshot: metrics, recent changes, staleness, velocity",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		since, _ := cmd.Flags().GetInt("since")
		res := svc.Snapshot(rootCtx, since)
		finish(res, func() {
			s, ok := res.Stats.(topology.Snapshot)
			if !ok {
				return
			}
			printMetrics(&s.Metrics)
			fmt.Println()
			fmt.Printf("%s (last %d days)\n", ui.RenderCategory("Changes"), s.SinceDays)
			fmt.Printf("  created:   %s\n", joinOrNone(s.ChangesSince.Created))
			fmt.Printf("  completed: %s\n", joinOrNone(s.ChangesSince.Completed))
			fmt.Printf("  modified:  %s\n", joinOrNone(s.ChangesSince.Modified))
			fmt.Println(ui.RenderCategory("Staleness"))
			fmt.Printf("  oldest ready:       %s\n", staleLabel(s.Staleness.OldestReady))
			fmt.Printf("  oldest in progress: %s\n", staleLabel(s.Staleness.OldestInProgress))
			fmt.Println(ui.RenderCategory("Velocity (7 days)"))
			fmt.Printf("  %d completed, %d created\n", s.Velocity.CompletedLast7Days, s.Velocity.CreatedLast7Days)
		})
	},
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return ui.RenderMuted("none")
	}
	return strings.Join(ids, ", ")
}

func staleLabel(st *topology.StaleTask) string {
	if st == nil {
		return ui.RenderMuted("none")
	}
	return fmt.Sprintf("%s %s (%d days)", ui.RenderID(st.ID), st.Title, st.Days)
}

var scoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "Raw prioritization inputs for candidate tasks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		opts := topology.DefaultScoringOptions()
		all, _ := cmd.Flags().GetBool("all")
		opts.ReadyOnly = !all
		opts.IncludeDone, _ = cmd.Flags().GetBool("include-done")
		opts.Limit, _ = cmd.Flags().GetInt("limit")

		res := svc.ScoringFactors(rootCtx, opts)
		finish(res, func() {
			fs, _ := res.Stats.([]topology.Factors)
			if len(fs) == 0 {
				debug.PrintNormal("No candidate tasks.\n")
				return
			}
			for _, f := range fs {
				fmt.Printf("%s %s %s age=%dd blocks=%d waits=%d children=%d body=%d criteria=%t\n",
					ui.RenderID(f.ID), ui.RenderPriority(f.Priority), f.Title,
					f.CreatedAgeDays, f.BlockingCount, f.BlockedByCount, f.ChildCount, f.BodyLength, f.HasAcceptanceCriteria)
			}
		})
	},
}

var neighborhoodCmd = &cobra.Command{
	Use:   "neighborhood <id>",
	Short: "Everything adjacent to a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.Neighborhood(rootCtx, id)
		finish(res, func() {
			n, _ := res.Stats.(*topology.Neighborhood)
			if n == nil {
				return
			}
			fmt.Println(ui.TaskLine(n.Task))
			fmt.Println(ui.RenderSeparator())
			if n.Parent != nil {
				printSection("Parent", []*types.Task{n.Parent})
			}
			printSection("Children", n.Children)
			printSection("Depends on", n.DependsOn)
			printSection("Blocks", n.Blocks)
			printSection("Soft blocks", n.SoftBlocks)
			printSection("Same project", n.SameProject)
			printSection("Orphans", n.Orphans)
		})
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <id>",
	Short: "What a caller needs to decompose a task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := checkIDs(args)[0]
		res := svc.DecompositionContext(rootCtx, id)
		finish(res, func() {
			dc, _ := res.Stats.(*topology.DecompositionContext)
			if dc == nil {
				return
			}
			printTaskDetail(dc.Task)
			fmt.Println()
			if dc.Parent != nil {
				printSection("Parent", []*types.Task{dc.Parent})
			}
			printSection("Existing children", dc.ExistingChildren)
			printSection("Siblings", dc.Siblings)
			printSection("Open project tasks", dc.ProjectTasks)
		})
	},
}

func printSection(title string, tasks []*types.Task) {
	if len(tasks) == 0 {
		return
	}
	sorted := append([]*types.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	fmt.Printf("%s (%d)\n", ui.RenderCategory(title), len(sorted))
	for _, t := range sorted {
		fmt.Printf("  %s\n", ui.TaskLine(t))
	}
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rescan task files into the index",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res := svc.RebuildIndex(rootCtx)
		finish(res, func() {
			fmt.Printf("%s %s\n", ui.RenderPass(ui.IconPass), res.Message)
		})
	},
}

func init() {
	topologyCmd.Flags().StringP("project", "p", "", "Only tasks in this project")
	topologyCmd.Flags().StringP("status", "s", "", "Only tasks with this status")
	topologyCmd.Flags().Int("min-depth", 0, "Only tasks at least this deep")
	topologyCmd.Flags().Int("min-blocking", 0, "Only tasks blocking at least this many others")

	snapshotCmd.Flags().Int("since", topology.DefaultSinceDays, "Window for recent changes, in days")

	scoringCmd.Flags().Bool("all", false, "Include tasks that are not ready")
	scoringCmd.Flags().Bool("include-done", false, "Include done and cancelled tasks")
	scoringCmd.Flags().IntP("limit", "n", topology.DefaultScoringLimit, "Maximum tasks to return")

	rootCmd.AddCommand(metricsCmd, topologyCmd, snapshotCmd, scoringCmd, neighborhoodCmd, contextCmd, reindexCmd)
}
