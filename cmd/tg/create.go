package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/timeparsing"
	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

var createCmd = &cobra.Command{
	Use:     "create [title]",
	Aliases: []string{"new"},
	Short:   "Create a new task",
	Long: `Create a new task. Without --project the task lands in the inbox.

Due dates accept absolute times (2026-03-01, RFC3339), compact offsets
(+3d, -2w) or phrases like "next friday".`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		form, _ := cmd.Flags().GetBool("form")
		var p types.CreateParams
		if form {
			p = runCreateForm()
		} else {
			if len(args) == 0 {
				fatalInput("title is required (or use --form)")
			}
			p = createParamsFromFlags(cmd, args[0])
		}

		res := svc.Create(rootCtx, p)
		finish(res, func() {
			fmt.Printf("%s Created %s: %s\n", ui.RenderPass(ui.IconPass), ui.RenderID(res.Task.ID), res.Task.Title)
		})
	},
}

func createParamsFromFlags(cmd *cobra.Command, title string) types.CreateParams {
	f := cmd.Flags()
	typ, _ := f.GetString("type")
	project, _ := f.GetString("project")
	parent, _ := f.GetString("parent")
	deps, _ := f.GetStringSlice("deps")
	soft, _ := f.GetStringSlice("soft-deps")
	tags, _ := f.GetStringSlice("tags")
	priority, _ := f.GetInt("priority")
	order, _ := f.GetInt("order")
	body, _ := f.GetString("body")
	due, _ := f.GetString("due")

	p := types.CreateParams{
		Title:         title,
		Type:          types.TaskType(typ),
		Project:       project,
		Parent:        parent,
		DependsOn:     deps,
		SoftDependsOn: soft,
		Tags:          tags,
		Priority:      priority,
		Order:         order,
		Body:          body,
	}
	if due != "" {
		p.Due = parseDue(due)
	}
	return p
}

func parseDue(s string) *time.Time {
	t, err := timeparsing.ParseRelativeTime(s, time.Now())
	if err != nil {
		fatalInput("invalid --due: %v", err)
	}
	return &t
}

// runCreateForm collects CreateParams through an interactive terminal form.
func runCreateForm() types.CreateParams {
	if !ui.IsTerminal() {
		fatalInput("--form needs an interactive terminal")
	}
	var (
		title, body, typ          string
		priorityStr               string
		project, parent, tagsText string
		depsText, due             string
		confirmed                 bool
	)
	typ = string(types.TypeTask)
	priorityStr = "2"

	if err := newCreateForm(&title, &body, &typ, &priorityStr, &project, &parent, &tagsText, &depsText, &due, &confirmed).Run(); err != nil {
		FatalError("form: %v", err)
	}
	if !confirmed {
		debug.PrintNormal("Cancelled.\n")
		os.Exit(0)
	}

	p := types.CreateParams{
		Title:     strings.TrimSpace(title),
		Type:      types.TaskType(typ),
		Project:   strings.TrimSpace(project),
		Parent:    strings.TrimSpace(parent),
		DependsOn: splitList(depsText),
		Tags:      splitList(tagsText),
		Body:      body,
	}
	p.Priority, _ = strconv.Atoi(priorityStr)
	if strings.TrimSpace(due) != "" {
		p.Due = parseDue(due)
	}
	return p
}

func newCreateForm(title, body, typ, priority, project, parent, tags, deps, due *string, confirmed *bool) *huh.Form {
	typeOptions := make([]huh.Option[string], 0, len(types.AllTypes))
	for _, t := range types.AllTypes {
		typeOptions = append(typeOptions, huh.NewOption(string(t), string(t)))
	}
	priorityOptions := []huh.Option[string]{
		huh.NewOption("P0 - Critical", "0"),
		huh.NewOption("P1 - High", "1"),
		huh.NewOption("P2 - Medium (default)", "2"),
		huh.NewOption("P3 - Low", "3"),
		huh.NewOption("P4 - Backlog", "4"),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description("What needs doing (required)").
				Value(title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),

			huh.NewText().
				Title("Body").
				Description("Markdown notes; '- [ ]' items gate completion").
				CharLimit(10000).
				Value(body),

			huh.NewSelect[string]().
				Title("Type").
				Options(typeOptions...).
				Value(typ),

			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(priority),
		),

		huh.NewGroup(
			huh.NewInput().
				Title("Project").
				Description("Leave empty for the inbox").
				Value(project).
				Validate(func(s string) error {
					if s = strings.TrimSpace(s); s != "" && !types.ValidID(s) {
						return fmt.Errorf("invalid project name")
					}
					return nil
				}),

			huh.NewInput().
				Title("Parent").
				Description("Parent task id (optional)").
				Value(parent),

			huh.NewInput().
				Title("Tags").
				Description("Comma-separated (optional)").
				Value(tags),

			huh.NewInput().
				Title("Depends on").
				Description("Comma-separated task ids (optional)").
				Value(deps),

			huh.NewInput().
				Title("Due").
				Description("e.g. +3d, 2026-03-01, next friday (optional)").
				Value(due),
		),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Create this task?").
				Affirmative("Create").
				Negative("Cancel").
				Value(confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	f := createCmd.Flags()
	f.StringP("type", "t", "", "Task type (goal|project|task|action)")
	f.StringP("project", "p", "", "Project name (default: inbox)")
	f.String("parent", "", "Parent task id")
	f.StringSlice("deps", nil, "Hard dependencies (comma-separated ids)")
	f.StringSlice("soft-deps", nil, "Soft dependencies (comma-separated ids)")
	f.StringSlice("tags", nil, "Tags (comma-separated)")
	f.Int("priority", 2, "Priority (0-4, 0 is highest)")
	f.Int("order", 0, "Sibling order")
	f.StringP("body", "d", "", "Markdown body")
	f.String("due", "", "Due date")
	f.Bool("form", false, "Fill the task in with an interactive form")
	rootCmd.AddCommand(createCmd)
}
