package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/taskgraph/internal/types"
	"github.com/steveyegge/taskgraph/internal/ui"
)

// decomposePlan is the on-disk shape of a decomposition batch.
type decomposePlan struct {
	Children []types.ChildSpec `json:"children" yaml:"children" toml:"children"`
}

var decomposeCmd = &cobra.Command{
	Use:   "decompose <parent-id>",
	Short: "Create a batch of children under a task",
	Long: `Create several children under a parent in one step.

Children come from --child (one title each) or from a plan file given with
--file. Plan files are TOML, YAML or JSON, chosen by extension ("-" reads
YAML from stdin):

  [[children]]
  title = "Write parser"

  [[children]]
  title = "Wire parser"
  depends_on = ["Write parser"]

depends_on entries may name an existing task id or the title of an earlier
child in the same batch. Children default to type action.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parent := checkIDs(args)[0]
		file, _ := cmd.Flags().GetString("file")
		titles, _ := cmd.Flags().GetStringArray("child")

		var specs []types.ChildSpec
		if file != "" {
			plan, err := readPlan(file)
			if err != nil {
				fatalInput("%v", err)
			}
			specs = plan.Children
		}
		for _, title := range titles {
			specs = append(specs, types.ChildSpec{Title: title})
		}
		if len(specs) == 0 {
			fatalInput("nothing to create: pass --child or --file")
		}

		res := svc.Decompose(rootCtx, parent, specs)
		finish(res, func() {
			fmt.Printf("%s Created %d children under %s\n", ui.RenderPass(ui.IconPass), len(res.Tasks), ui.RenderID(parent))
			for _, t := range res.Tasks {
				fmt.Printf("  %s\n", ui.TaskLine(t))
			}
		})
	},
}

func readPlan(path string) (*decomposePlan, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path) // #nosec G304 - user-supplied plan file
	}
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return decodePlan(data, filepath.Ext(path))
}

func decodePlan(data []byte, ext string) (*decomposePlan, error) {
	var plan decomposePlan
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		_, err = toml.Decode(string(data), &plan)
	case ".json":
		err = json.Unmarshal(data, &plan)
	default:
		err = yaml.Unmarshal(data, &plan)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &plan, nil
}

func init() {
	decomposeCmd.Flags().StringP("file", "f", "", "Plan file (.toml, .yaml, .json, or - for stdin)")
	decomposeCmd.Flags().StringArray("child", nil, "Child title (repeatable)")
	rootCmd.AddCommand(decomposeCmd)
}
