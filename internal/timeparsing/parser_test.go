package timeparsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/taskgraph/internal/types"
)

func TestParseRelativeTime(t *testing.T) {
	// Wednesday.
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"compact", "+2d", time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC)},
		{"date only", "2026-04-01", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2026-04-01T09:30:00+02:00", time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)},
		{"padded", "  +6h ", time.Date(2026, 3, 11, 16, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRelativeTimeNaturalLanguage(t *testing.T) {
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

	got, err := ParseRelativeTime("tomorrow", now)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Day())
	assert.Equal(t, time.March, got.Month())

	got, err = ParseRelativeTime("in 3 days", now)
	require.NoError(t, err)
	assert.Equal(t, 14, got.Day())
}

func TestParseRelativeTimeErrors(t *testing.T) {
	now := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "   ", "whenever you like"} {
		_, err := ParseRelativeTime(in, now)
		assert.ErrorIs(t, err, types.ErrValidation, "input %q", in)
	}
}
