package completion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const maxPreviewItems = 5

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.TaskList))

	percentDone  = regexp.MustCompile(`(?i)\b(\d{1,3})%\s+complete\b`)
	wipPhrase    = regexp.MustCompile(`(?i)\b(WIP|work[- ]in[- ]progress|in[- ]progress)\b`)
	checkboxText = regexp.MustCompile(`^\[[ xX]\]\s*`)
)

// ScanMarkers returns human-readable descriptions of everything in body
// that suggests the work is not finished. An empty result means the body
// is clean.
func ScanMarkers(body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	src := []byte(body)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var markers []string
	remaining := false
	var unchecked []string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if strings.HasPrefix(strings.ToLower(blockText(node, src)), "remaining") {
				remaining = true
			}
		case *east.TaskCheckBox:
			if !node.IsChecked {
				if item := blockText(node.Parent(), src); item != "" {
					unchecked = append(unchecked, item)
				}
			}
		}
		return ast.WalkContinue, nil
	})

	if remaining {
		markers = append(markers, "Remaining: section")
	}
	for _, m := range percentDone.FindAllStringSubmatch(body, -1) {
		if pct, err := strconv.Atoi(m[1]); err == nil && pct < 100 {
			markers = append(markers, m[0])
		}
	}
	if len(unchecked) > 0 {
		markers = append(markers, describeUnchecked(unchecked))
	}
	if m := wipPhrase.FindString(body); m != "" {
		markers = append(markers, fmt.Sprintf("work-in-progress marker (%q)", m))
	}
	return markers
}

func describeUnchecked(items []string) string {
	noun := "item"
	if len(items) != 1 {
		noun = "items"
	}
	preview := items
	suffix := ""
	if len(items) > maxPreviewItems {
		preview = items[:maxPreviewItems]
		suffix = fmt.Sprintf(", and %d more", len(items)-maxPreviewItems)
	}
	return fmt.Sprintf("%d unchecked TODO %s: %s%s", len(items), noun, strings.Join(preview, ", "), suffix)
}

// blockText returns the first source line of a block, minus any checkbox.
func blockText(n ast.Node, src []byte) string {
	if n == nil || n.Lines() == nil || n.Lines().Len() == 0 {
		return ""
	}
	seg := n.Lines().At(0)
	line := strings.TrimSpace(string(seg.Value(src)))
	return strings.TrimSpace(checkboxText.ReplaceAllString(line, ""))
}
