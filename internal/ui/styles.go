package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/taskgraph/internal/types"
)

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	// Semantic status colors (Ayu theme - adaptive light/dark)
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99", // ayu light muted
		Dark:  "#6c7680", // ayu dark muted
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
)

// Status styles - consistent across all commands
var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
)

// CategoryStyle for section headers - bold with accent color
var CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

// Status icons - consistent semantic indicators
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
)

const separator = "──────────────────────────────────────────"

// RenderPass renders text with pass (green) styling
func RenderPass(s string) string {
	return PassStyle.Render(s)
}

// RenderWarn renders text with warning (yellow) styling
func RenderWarn(s string) string {
	return WarnStyle.Render(s)
}

// RenderFail renders text with fail (red) styling
func RenderFail(s string) string {
	return FailStyle.Render(s)
}

// RenderMuted renders text with muted (gray) styling
func RenderMuted(s string) string {
	return MutedStyle.Render(s)
}

// RenderAccent renders text with accent (blue) styling
func RenderAccent(s string) string {
	return AccentStyle.Render(s)
}

// RenderCategory renders a category header in uppercase with accent color
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the separator line in muted color
func RenderSeparator() string {
	return MutedStyle.Render(separator)
}

// RenderStatus colors a task status by how close it is to finished.
func RenderStatus(s types.Status) string {
	switch s {
	case types.StatusDone:
		return PassStyle.Render(IconPass + " " + string(s))
	case types.StatusBlocked, types.StatusReview:
		return WarnStyle.Render(string(s))
	case types.StatusCancelled:
		return MutedStyle.Render(IconFail + " " + string(s))
	case types.StatusInProgress:
		return AccentStyle.Render(string(s))
	default:
		return string(s)
	}
}

// RenderPriority renders P0..P4; P0 and P1 stand out.
func RenderPriority(p int) string {
	label := fmt.Sprintf("P%d", p)
	switch {
	case p == 0:
		return FailStyle.Bold(true).Render(label)
	case p == 1:
		return WarnStyle.Render(label)
	default:
		return MutedStyle.Render(label)
	}
}

// RenderID renders a task id in muted color.
func RenderID(id string) string {
	return MutedStyle.Render(id)
}

// TaskLine is the one-line summary used by list-style commands.
func TaskLine(t *types.Task) string {
	parts := []string{RenderID(t.ID), RenderPriority(t.Priority), t.Title, "[" + RenderStatus(t.Status) + "]"}
	if t.Project != "" {
		parts = append(parts, MutedStyle.Render("@"+t.Project))
	}
	if a := t.ClaimedBy(); a != "" {
		parts = append(parts, AccentStyle.Render("→ "+a))
	}
	return strings.Join(parts, " ")
}
