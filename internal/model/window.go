package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RajshekharX12/as/internal/pkg/errs"
)

// TimeWindow - активный интервал суток вида HH:MM-HH:MM.
// Start > End означает переход через полночь, Start == End - круглые сутки.
type TimeWindow struct {
	Start time.Duration
	End   time.Duration
}

// ParseTimeWindow разбирает строку "HH:MM-HH:MM". Пустая строка - окна нет.
func ParseTimeWindow(s string) (*TimeWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return nil, errs.Newf("time window %q: expected HH:MM-HH:MM", s)
	}
	start, err := parseClock(startStr)
	if err != nil {
		return nil, errs.Wrapf(err, "time window %q", s)
	}
	end, err := parseClock(endStr)
	if err != nil {
		return nil, errs.Wrapf(err, "time window %q", s)
	}
	return &TimeWindow{Start: start, End: end}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains проверяет время суток t в его собственной зоне.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.Start == w.End {
		return true
	}
	tod := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	if w.Start < w.End {
		return tod >= w.Start && tod < w.End
	}
	// через полночь
	return tod >= w.Start || tod < w.End
}

func (w TimeWindow) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func (w TimeWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *TimeWindow) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeWindow(s)
	if err != nil {
		return err
	}
	if parsed == nil {
		*w = TimeWindow{}
		return nil
	}
	*w = *parsed
	return nil
}
