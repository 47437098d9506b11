package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/taskgraph/internal/types"
)

func TestShouldUseColor(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want bool
	}{
		{"NO_COLOR disables", map[string]string{"NO_COLOR": "1"}, false},
		{"CLICOLOR=0 disables", map[string]string{"CLICOLOR": "0"}, false},
		{"CLICOLOR_FORCE enables", map[string]string{"CLICOLOR_FORCE": "1"}, true},
		{"NO_COLOR beats CLICOLOR_FORCE", map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLICOLOR", "")
			t.Setenv("CLICOLOR_FORCE", "")
			t.Setenv("NO_COLOR", "")
			unsetForTest(t, "NO_COLOR")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, ShouldUseColor())
		})
	}
}

func TestRenderMarkdownPlainWhenNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	body := "## Notes\n\n- [ ] write tests"
	assert.Equal(t, body, RenderMarkdown(body))
}

func TestRenderTree(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	mk := func(id, title string) *types.Task {
		return &types.Task{ID: id, Title: title, Status: types.StatusInbox, Priority: 2}
	}
	root := &types.TreeNode{Task: mk("g", "Ship compiler"), Children: []*types.TreeNode{
		{Task: mk("c1", "Parser"), Children: []*types.TreeNode{{Task: mk("s1", "Lexer")}}},
		{Task: mk("c2", "Codegen")},
	}}

	out := RenderTree(root)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Ship compiler")
	assert.Contains(t, lines[1], "Parser")
	assert.Contains(t, lines[2], "Lexer")
	assert.Contains(t, lines[3], "Codegen")
	assert.Empty(t, RenderTree(nil))
}

func TestTaskLine(t *testing.T) {
	task := &types.Task{ID: "20260105-abc123", Title: "Write parser", Status: types.StatusInProgress,
		Priority: 1, Project: "compiler", Assignee: "alice"}
	line := TaskLine(task)
	for _, want := range []string{"20260105-abc123", "P1", "Write parser", "in_progress", "@compiler", "alice"} {
		assert.Contains(t, line, want)
	}
}

// unsetForTest removes key for the duration of the test; t.Setenv cannot
// express an unset variable.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}
