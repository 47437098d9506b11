package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/config"
	"github.com/steveyegge/taskgraph/internal/debug"
	"github.com/steveyegge/taskgraph/internal/service"
	"github.com/steveyegge/taskgraph/internal/telemetry"
)

var (
	// Version is overridden by ldflags at build time.
	Version = "0.1.0"
	// Build can be set via ldflags at compile time.
	Build = "dev"
)

var settings = config.New()

var (
	cfg *config.Config
	svc *service.Service

	rootCtx    context.Context
	rootCancel context.CancelFunc

	jsonOutput  bool
	verboseFlag bool
	quietFlag   bool
)

// Commands that run without a data root.
var noStoreCommands = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func isNoStoreCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if noStoreCommands[c.Name()] {
			return true
		}
	}
	return false
}

var rootCmd = &cobra.Command{
	Use:           "tg",
	Short:         "tg - hierarchical task graph",
	Long:          `Tasks as markdown files arranged in a tree with dependency edges. Shows which leaves are ready to work on and who holds each claim.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		debug.SetVerbose(verboseFlag)
		debug.SetQuiet(quietFlag)

		if isNoStoreCommand(cmd) {
			return
		}

		var err error
		cfg, err = config.Load(settings)
		if err != nil {
			FatalErrorWithHint(err.Error(), "set TG_DATA_ROOT or pass --data-root")
		}
		jsonOutput = cfg.JSON

		if err := telemetry.Init(rootCtx, "tg", Version); err != nil {
			WarnError("telemetry disabled: %v", err)
		}

		svc, err = service.Open(cfg, newLogger())
		if err != nil {
			FatalError("opening task store: %v", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if svc != nil {
			telemetry.Shutdown(context.Background())
		}
		if rootCancel != nil {
			rootCancel()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(map[string]string{"version": Version, "build": Build})
			return
		}
		fmt.Printf("tg version %s (%s)\n", Version, Build)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("data-root", "", "Root directory holding task files (env: TG_DATA_ROOT)")
	pf.String("actor", "", "Actor name for claims and the event log (env: TG_ACTOR, default: $USER)")
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	pf.BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")
	pf.Duration("lock-timeout", 0, "How long to wait for workspace locks")

	for _, name := range []string{"data-root", "actor", "json", "lock-timeout"} {
		_ = settings.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger writes structured logs to stderr: debug level with -v or
// TG_DEBUG, warnings otherwise.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if debug.Enabled() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		FatalError("%v", err)
	}
}
