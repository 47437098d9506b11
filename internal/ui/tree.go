package ui

import (
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/steveyegge/taskgraph/internal/types"
)

// RenderTree draws a task subtree with rounded connectors, one TaskLine
// per node.
func RenderTree(root *types.TreeNode) string {
	if root == nil {
		return ""
	}
	return buildTree(root).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(MutedStyle).
		String()
}

func buildTree(n *types.TreeNode) *tree.Tree {
	t := tree.Root(TaskLine(n.Task))
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			t.Child(TaskLine(c.Task))
			continue
		}
		t.Child(buildTree(c))
	}
	return t
}
