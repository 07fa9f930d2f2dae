package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeWindow(t *testing.T) {
	window, err := ParseTimeWindow("22:00-06:30")
	require.NoError(t, err)
	require.Equal(t, 22*time.Hour, window.Start)
	require.Equal(t, 6*time.Hour+30*time.Minute, window.End)
	require.Equal(t, "22:00-06:30", window.String())

	window, err = ParseTimeWindow("")
	require.NoError(t, err)
	require.Nil(t, window)

	_, err = ParseTimeWindow("22:00")
	require.Error(t, err)
	_, err = ParseTimeWindow("25:00-01:00")
	require.Error(t, err)
}

func TestParseTimeWindowErrors(t *testing.T) {
	_, err := ParseTimeWindow("2200")
	require.ErrorContains(t, err, `time window "2200": expected HH:MM-HH:MM`)

	_, err = ParseTimeWindow("22:00-6pm")
	require.ErrorContains(t, err, `time window "22:00-6pm"`)
	var parseErr *time.ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestTimeWindowContains(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2024, 5, 1, hour, minute, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		window string
		at     time.Time
		want   bool
	}{
		{"inside plain", "09:00-18:00", at(12, 0), true},
		{"start inclusive", "09:00-18:00", at(9, 0), true},
		{"end exclusive", "09:00-18:00", at(18, 0), false},
		{"before plain", "09:00-18:00", at(8, 59), false},
		{"wrap late evening", "22:00-06:00", at(23, 30), true},
		{"wrap early morning", "22:00-06:00", at(5, 59), true},
		{"wrap midday", "22:00-06:00", at(12, 0), false},
		{"same start end", "10:00-10:00", at(3, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := ParseTimeWindow(tt.window)
			require.NoError(t, err)
			require.Equal(t, tt.want, window.Contains(tt.at))
		})
	}
}

func TestConstraintSetJSON(t *testing.T) {
	window, err := ParseTimeWindow("01:00-02:00")
	require.NoError(t, err)
	cs := ConstraintSet{PriceMax: 100, AllowKeywords: []string{"bear"}, Window: window}

	data, err := json.Marshal(cs)
	require.NoError(t, err)
	require.Contains(t, string(data), `"window":"01:00-02:00"`)

	var decoded ConstraintSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, cs, decoded)

	clone := cs.Clone()
	clone.AllowKeywords[0] = "cake"
	clone.Window.Start = 0
	require.Equal(t, "bear", cs.AllowKeywords[0])
	require.Equal(t, time.Hour, cs.Window.Start)
}
