// Package taskfile encodes and decodes the on-disk task format: a YAML
// frontmatter block delimited by "---" lines, followed by an H1 title and a
// free-form markdown body.
package taskfile

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/taskgraph/internal/types"
)

// Ext is the file extension of task files.
const Ext = ".md"

const delimiter = "---"

// ErrMalformed is returned for files that are not valid task documents.
var ErrMalformed = fmt.Errorf("%w: malformed task file", types.ErrValidation)

// frontmatter is the persisted header. Field order is the on-disk key order.
type frontmatter struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Type          string   `yaml:"type"`
	Status        string   `yaml:"status"`
	Project       *string  `yaml:"project"`
	Parent        *string  `yaml:"parent"`
	DependsOn     []string `yaml:"depends_on"`
	SoftDependsOn []string `yaml:"soft_depends_on"`
	Tags          []string `yaml:"tags"`
	Priority      int      `yaml:"priority"`
	Due           *string  `yaml:"due"`
	Created       string   `yaml:"created"`
	Modified      string   `yaml:"modified"`
	Depth         int      `yaml:"depth"`
	Order         int      `yaml:"order"`
	Leaf          bool     `yaml:"leaf"`
	Assignee      *string  `yaml:"assignee"`
}

// Encode renders t in the persisted format.
func Encode(t *types.Task) ([]byte, error) {
	fm := frontmatter{
		ID:            t.ID,
		Title:         t.Title,
		Type:          string(t.Type),
		Status:        string(t.Status),
		Project:       optional(t.Project),
		Parent:        optional(t.Parent),
		DependsOn:     nonNil(t.DependsOn),
		SoftDependsOn: nonNil(t.SoftDependsOn),
		Tags:          nonNil(t.Tags),
		Priority:      t.Priority,
		Created:       FormatTime(t.Created),
		Modified:      FormatTime(t.Modified),
		Depth:         t.Depth,
		Order:         t.Order,
		Leaf:          t.Leaf,
		Assignee:      optional(t.Assignee),
	}
	if t.Due != nil {
		due := FormatTime(*t.Due)
		fm.Due = &due
	}

	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&fm); err != nil {
		return nil, fmt.Errorf("encode frontmatter for %s: %w", t.ID, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter for %s: %w", t.ID, err)
	}
	buf.WriteString(delimiter + "\n\n")

	body := NormalizeBody(t.Body)
	if !strings.HasPrefix(body, "# ") {
		buf.WriteString("# " + t.Title + "\n")
		if body != "" {
			buf.WriteString("\n")
		}
	}
	if body != "" {
		buf.WriteString(body + "\n")
	}
	return buf.Bytes(), nil
}

// Decode parses a task document. The H1 title line written by Encode is
// stripped so that Body round-trips.
func Decode(data []byte) (*types.Task, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	header, rest, err := split(text)
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fm.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	if fm.Title == "" {
		return nil, fmt.Errorf("%w: %s: missing title", ErrMalformed, fm.ID)
	}

	t := &types.Task{
		ID:            fm.ID,
		Title:         fm.Title,
		Project:       deref(fm.Project),
		Parent:        deref(fm.Parent),
		DependsOn:     fm.DependsOn,
		SoftDependsOn: fm.SoftDependsOn,
		Tags:          fm.Tags,
		Priority:      fm.Priority,
		Depth:         fm.Depth,
		Order:         fm.Order,
		Leaf:          fm.Leaf,
		Assignee:      deref(fm.Assignee),
		Body:          stripTitle(rest, fm.Title),
	}

	if fm.Type != "" {
		if t.Type, err = types.ParseType(fm.Type); err != nil {
			return nil, fmt.Errorf("%s: %w", fm.ID, err)
		}
	}
	if fm.Status != "" {
		if t.Status, err = types.ParseStatus(fm.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", fm.ID, err)
		}
	}
	if t.Created, err = parseRequiredTime(fm.ID, "created", fm.Created); err != nil {
		return nil, err
	}
	if t.Modified, err = parseRequiredTime(fm.ID, "modified", fm.Modified); err != nil {
		return nil, err
	}
	if t.Modified.IsZero() {
		t.Modified = t.Created
	}
	if fm.Due != nil && strings.TrimSpace(*fm.Due) != "" {
		due, err := ParseTime(*fm.Due)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: due: %v", types.ErrValidation, fm.ID, err)
		}
		t.Due = &due
	}

	t.SetDefaults()
	return t, nil
}

func split(text string) (header, rest string, err error) {
	if !strings.HasPrefix(text, delimiter+"\n") {
		return "", "", fmt.Errorf("%w: missing frontmatter", ErrMalformed)
	}
	lines := strings.SplitAfter(text[len(delimiter)+1:], "\n")
	var hdr strings.Builder
	for i, line := range lines {
		if strings.TrimRight(line, " \t\n") == delimiter {
			return hdr.String(), strings.Join(lines[i+1:], ""), nil
		}
		hdr.WriteString(line)
	}
	return "", "", fmt.Errorf("%w: unterminated frontmatter", ErrMalformed)
}

// stripTitle drops a leading "# <title>" heading.
func stripTitle(rest, title string) string {
	body := NormalizeBody(rest)
	first, after, _ := strings.Cut(body, "\n")
	if strings.TrimSpace(first) == "# "+title {
		return NormalizeBody(after)
	}
	return body
}

// NormalizeBody trims leading and trailing blank lines.
func NormalizeBody(s string) string {
	return strings.Trim(s, "\r\n")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 timestamps and a few looser forms found in
// hand-edited files. Results are UTC at second precision.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTime renders t as UTC RFC 3339 at second precision.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseRequiredTime(id, field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %s: %v", types.ErrValidation, id, field, err)
	}
	return t, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
