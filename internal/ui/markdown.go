// Package ui provides terminal styling for tg CLI output.
package ui

import (
	"github.com/charmbracelet/glamour"
)

// maxReadableWidth caps word wrap for task bodies.
const maxReadableWidth = 100

// RenderMarkdown renders a task body with glamour. The input is returned
// unchanged when output is not a color terminal, in agent mode, or when
// rendering fails.
func RenderMarkdown(markdown string) string {
	if IsAgentMode() || !ShouldUseColor() {
		return markdown
	}
	return renderMarkdown(markdown, min(TerminalWidth(80), maxReadableWidth))
}

func renderMarkdown(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
