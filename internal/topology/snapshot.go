package topology

import (
	"time"

	"github.com/steveyegge/taskgraph/internal/graph"
	"github.com/steveyegge/taskgraph/internal/types"
)

// DefaultSinceDays is the review window when none is given.
const DefaultSinceDays = 1

const velocityWindow = 7 * day

// Snapshot is a periodic review of the whole graph.
type Snapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	SinceDays    int       `json:"since_days"`
	Metrics      Metrics   `json:"metrics"`
	ChangesSince Changes   `json:"changes_since"`
	Staleness    Staleness `json:"staleness"`
	Velocity     Velocity  `json:"velocity"`
}

// Changes lists task ids touched inside the review window.
type Changes struct {
	Created   []string `json:"tasks_created"`
	Completed []string `json:"tasks_completed"`
	Modified  []string `json:"tasks_modified"`
}

// Staleness names the longest-waiting work.
type Staleness struct {
	OldestReady      *StaleTask `json:"oldest_ready_task"`
	OldestInProgress *StaleTask `json:"oldest_in_progress"`
}

// StaleTask is a task with the number of whole days it has waited.
type StaleTask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Days  int    `json:"days"`
}

// Velocity counts throughput over the last seven days.
type Velocity struct {
	CompletedLast7Days int `json:"completed_last_7_days"`
	CreatedLast7Days   int `json:"created_last_7_days"`
}

// Snapshot reviews g over the last sinceDays days. Values below 1 fall
// back to DefaultSinceDays.
func (a *Analyzer) Snapshot(g *graph.Graph, sinceDays int) Snapshot {
	if sinceDays < 1 {
		sinceDays = DefaultSinceDays
	}
	now := a.now().UTC()
	cutoff := now.Add(-time.Duration(sinceDays) * day)
	weekAgo := now.Add(-velocityWindow)

	s := Snapshot{
		Timestamp: now,
		SinceDays: sinceDays,
		Metrics:   a.Metrics(g, Scope{Kind: ScopeAll}),
		ChangesSince: Changes{
			Created:   []string{},
			Completed: []string{},
			Modified:  []string{},
		},
	}

	var oldestReady, oldestActive time.Time
	for _, t := range g.All() {
		if !t.Created.Before(cutoff) {
			s.ChangesSince.Created = append(s.ChangesSince.Created, t.ID)
		}
		if t.Status.IsTerminal() && !t.Modified.Before(cutoff) {
			s.ChangesSince.Completed = append(s.ChangesSince.Completed, t.ID)
		}
		if !t.Modified.Before(cutoff) {
			s.ChangesSince.Modified = append(s.ChangesSince.Modified, t.ID)
		}

		if !t.Created.Before(weekAgo) {
			s.Velocity.CreatedLast7Days++
		}
		if t.Status.IsTerminal() && !t.Modified.Before(weekAgo) {
			s.Velocity.CompletedLast7Days++
		}

		if since, ok := ReadySince(g, t); ok && (s.Staleness.OldestReady == nil || since.Before(oldestReady)) {
			oldestReady = since
			s.Staleness.OldestReady = &StaleTask{ID: t.ID, Title: t.Title, Days: daysBetween(since, now)}
		}
		if t.Status == types.StatusInProgress && (s.Staleness.OldestInProgress == nil || t.Modified.Before(oldestActive)) {
			oldestActive = t.Modified
			s.Staleness.OldestInProgress = &StaleTask{ID: t.ID, Title: t.Title, Days: daysBetween(t.Modified, now)}
		}
	}
	return s
}
