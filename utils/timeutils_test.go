package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIso8601Now(t *testing.T) {
	before := time.Now().UTC().Add(-1 * time.Second)
	parsed, err := time.Parse(time.RFC3339, Iso8601Now())
	require.NoError(t, err)
	assert.True(t, parsed.After(before))
}

func TestIso8601FromTime(t *testing.T) {
	assert.Equal(t, "", Iso8601FromTime(time.Time{}))
	loc := time.FixedZone("CEST", 2*3600)
	assert.Equal(t, "2024-05-01T06:30:00Z", Iso8601FromTime(time.Date(2024, 5, 1, 8, 30, 0, 0, loc)))
}

func TestParseISO8601(t *testing.T) {
	want := time.Date(2024, 5, 1, 6, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "utc", input: "2024-05-01T06:30:00Z", ok: true},
		{name: "offset", input: "2024-05-01T08:30:00+02:00", ok: true},
		{name: "fractional", input: "2024-05-01T08:30:00.000+02:00", ok: true},
		{name: "colonless offset", input: "2024-05-01T08:30:00+0200", ok: true},
		{name: "no offset", input: "2024-05-01T06:30:00", ok: true},
		{name: "garbage", input: "soon", ok: false},
		{name: "empty", input: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseISO8601(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %v", got)
		})
	}
}
