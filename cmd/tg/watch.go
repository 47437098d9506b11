package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/taskgraph/internal/ui"
)

const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index whenever task files change and show ready work",
	Long: `Watch the data root for task file changes. After each burst of changes
the index is rebuilt and the ready list is printed again. Ctrl+C stops.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			FatalError("creating watcher: %v", err)
		}
		defer func() { _ = watcher.Close() }()

		// The root itself is watched so new project directories get picked up.
		for _, dir := range append([]string{cfg.DataRoot}, taskDirs(cfg.DataRoot)...) {
			if err := watcher.Add(dir); err != nil {
				WarnError("watching %s: %v", dir, err)
			}
		}

		refresh := func() {
			if res := svc.RebuildIndex(rootCtx); !res.Success {
				WarnError("%s", res.Message)
				return
			}
			displayReady(project)
			fmt.Fprintf(os.Stderr, "\nWatching for changes... (Press Ctrl+C to exit)\n")
		}
		refresh()

		var (
			debounce *time.Timer
			fire     <-chan time.Time
		)
		for {
			select {
			case <-rootCtx.Done():
				fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					addIfTaskDir(watcher, cfg.DataRoot, event.Name)
				}
				if !isTaskFileEvent(event) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.NewTimer(watchDebounce)
				fire = debounce.C
			case <-fire:
				fire = nil
				refresh()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				WarnError("watcher: %v", err)
			}
		}
	},
}

func displayReady(project string) {
	res := svc.Ready(rootCtx, project)
	if jsonOutput {
		outputJSON(res)
		return
	}
	if !res.Success {
		WarnError("%s", res.Message)
		return
	}
	fmt.Printf("%s %s: %d ready\n", ui.RenderMuted(time.Now().Format("15:04:05")), ui.RenderAccent("tasks"), len(res.Tasks))
	printTasks(res.Tasks, true, "")
}

// taskDirs lists the directories that can hold task files under root:
// tasks/inbox and every <project>/tasks.
func taskDirs(root string) []string {
	var dirs []string
	if isDir(filepath.Join(root, "tasks", "inbox")) {
		dirs = append(dirs, filepath.Join(root, "tasks", "inbox"))
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == "tasks" {
			continue
		}
		if dir := filepath.Join(root, e.Name(), "tasks"); isDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// addIfTaskDir starts watching a directory created while the watch runs,
// along with any task directories already inside it.
func addIfTaskDir(w *fsnotify.Watcher, root, path string) {
	if !isDir(path) {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, ".") {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) == 1:
		_ = w.Add(path)
		if dir := filepath.Join(path, "tasks"); isDir(dir) {
			_ = w.Add(dir)
		}
		if dir := filepath.Join(path, "inbox"); parts[0] == "tasks" && isDir(dir) {
			_ = w.Add(dir)
		}
	case len(parts) == 2 && (parts[1] == "tasks" || (parts[0] == "tasks" && parts[1] == "inbox")):
		_ = w.Add(path)
	}
}

// isTaskFileEvent reports whether ev touched a task file. Lock files and
// editor temp files are ignored.
func isTaskFileEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	return strings.HasSuffix(base, ".md") && !strings.HasPrefix(base, ".")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func init() {
	watchCmd.Flags().StringP("project", "p", "", "Only show ready tasks in this project")
	rootCmd.AddCommand(watchCmd)
}
