// Package debug carries the process-wide verbosity switches and the
// append-only event log kept under <data-root>/.taskgraph/events.log.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// EventLogName is the event log file inside the metadata directory.
const EventLogName = "events.log"

// MetaDir is the per-data-root metadata directory.
const MetaDir = ".taskgraph"

var (
	enabled     = os.Getenv("TG_DEBUG") != ""
	verboseMode = false
	quietMode   = false
	logMutex    sync.Mutex

	stderr io.Writer = os.Stderr
	stdout io.Writer = os.Stdout
	now              = time.Now
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet suppresses non-essential output
func SetQuiet(quiet bool) {
	quietMode = quiet
}

func IsQuiet() bool {
	return quietMode
}

// Logf writes to stderr when debugging is on.
func Logf(format string, args ...any) {
	if Enabled() {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints unless quiet mode is enabled.
func PrintNormal(format string, args ...any) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}

// LogEvent appends one line to the event log under dataRoot.
// Format: TIMESTAMP|EVENT_CODE|TASK_ID|ACTOR|SESSION_ID|DETAILS
//
// Failures are swallowed; the log is advisory and must never fail an
// operation.
func LogEvent(dataRoot, eventCode, taskID, details string) {
	if dataRoot == "" {
		return
	}
	if taskID == "" {
		taskID = "none"
	}
	actor := cmpOr(os.Getenv("TG_ACTOR"), os.Getenv("USER"), "unknown")
	session := cmpOr(os.Getenv("TG_SESSION_ID"), strconv.FormatInt(now().Unix(), 10))

	// Keep one event per line.
	details = strings.ReplaceAll(details, "\n", " ")
	entry := fmt.Sprintf("%s|%s|%s|%s|%s|%s\n",
		now().UTC().Format(time.RFC3339), eventCode, taskID, actor, session, details)

	logMutex.Lock()
	defer logMutex.Unlock()

	logPath := filepath.Join(dataRoot, MetaDir, EventLogName)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(entry)
}

func cmpOr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
