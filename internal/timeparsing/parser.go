// Package timeparsing turns user-entered due dates into timestamps.
//
// Layers are tried in order:
//  1. Compact duration (+6h, -1d, +2w)
//  2. Absolute timestamp (RFC3339, date-only), as accepted in task files
//  3. Natural language (tomorrow, next monday, in 3 days)
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/steveyegge/taskgraph/internal/taskfile"
	"github.com/steveyegge/taskgraph/internal/types"
)

// compactDurationRe matches compact duration patterns: [+-]?(\d+)([hdwmy])
// Examples: +6h, -1d, +2w, 3m, 1y
var compactDurationRe = regexp.MustCompile(`^([+-]?)(\d+)([hdwmy])$`)

// ParseCompactDuration parses compact duration syntax and returns the resulting time.
//
// Format: [+-]?(\d+)([hdwmy])
//
// Units:
//   - h = hours
//   - d = days
//   - w = weeks
//   - m = months
//   - y = years
//
// Examples:
//   - "+6h" -> now + 6 hours
//   - "-1d" -> now - 1 day
//   - "+2w" -> now + 2 weeks
//   - "3m"  -> now + 3 months (no sign = positive)
//   - "1y"  -> now + 1 year
//
// Returns error if input doesn't match the compact duration pattern.
func ParseCompactDuration(s string, now time.Time) (time.Time, error) {
	matches := compactDurationRe.FindStringSubmatch(s)
	if matches == nil {
		return time.Time{}, fmt.Errorf("not a compact duration: %q", s)
	}

	sign := matches[1]
	amountStr := matches[2]
	unit := matches[3]

	amount, err := strconv.Atoi(amountStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid duration amount: %q", amountStr)
	}

	if sign == "-" {
		amount = -amount
	}

	return applyDuration(now, amount, unit), nil
}

// applyDuration applies the given amount and unit to the base time.
func applyDuration(base time.Time, amount int, unit string) time.Time {
	switch unit {
	case "h":
		return base.Add(time.Duration(amount) * time.Hour)
	case "d":
		return base.AddDate(0, 0, amount)
	case "w":
		return base.AddDate(0, 0, amount*7)
	case "m":
		return base.AddDate(0, amount, 0)
	case "y":
		return base.AddDate(amount, 0, 0)
	default:
		return base
	}
}

// IsCompactDuration returns true if the string matches compact duration syntax.
func IsCompactDuration(s string) bool {
	return compactDurationRe.MatchString(s)
}

var (
	parserOnce sync.Once
	nlp        *when.Parser
)

func nlpParser() *when.Parser {
	parserOnce.Do(func() {
		nlp = when.New(nil)
		nlp.Add(en.All...)
		nlp.Add(common.All...)
	})
	return nlp
}

// ParseNaturalLanguage parses English expressions such as "tomorrow",
// "next friday" or "in 2 weeks" relative to now. The whole input need not
// match; the first recognized expression wins.
func ParseNaturalLanguage(s string, now time.Time) (time.Time, error) {
	r, err := nlpParser().Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("no date found in %q", s)
	}
	return r.Time, nil
}

// ParseRelativeTime tries each layer in turn and returns the first match
// in UTC, truncated to whole seconds like every stored timestamp.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", types.ErrValidation)
	}
	if IsCompactDuration(s) {
		t, err := ParseCompactDuration(s, now)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC().Truncate(time.Second), nil
	}
	if t, err := taskfile.ParseTime(s); err == nil {
		return t, nil
	}
	t, err := ParseNaturalLanguage(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unrecognized date %q", types.ErrValidation, s)
	}
	return t.UTC().Truncate(time.Second), nil
}
