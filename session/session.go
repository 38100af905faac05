// Package session gates when a symbol may be traded at all.
//
// The gate is a pre-filter in front of every broker and AI call: outside the
// configured weekdays and UTC windows the trading cycle skips the symbol
// without any network traffic. It is a pure function of the clock, so it can
// be asked about any instant, not just now.
package session

import (
	"fmt"
	"strings"
	"time"
)

// Window is one daily UTC trading window. Start is inclusive, end exclusive,
// both in minutes from midnight. A window whose end is not after its start
// wraps past midnight (22:00-02:00).
type Window struct {
	Start int
	End   int
}

// ParseWindow reads "HH:MM-HH:MM".
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("session: window %q must be HH:MM-HH:MM", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("session: window %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("session: window %q: %w", s, err)
	}
	if start == end {
		return Window{}, fmt.Errorf("session: window %q is zero-width", s)
	}
	return Window{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether the UTC instant falls inside the window.
func (w Window) Contains(at time.Time) bool {
	m := at.UTC().Hour()*60 + at.UTC().Minute()
	if w.Start < w.End {
		return m >= w.Start && m < w.End
	}
	// Wraps midnight.
	return m >= w.Start || m < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts short and long English day names, any case.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("session: unknown weekday %q", s)
}

// Gate answers "may this instant trade?". An empty weekday list admits every
// day; an empty window list admits the whole day. The zero Gate is therefore
// always open.
type Gate struct {
	weekdays map[time.Weekday]bool
	windows  []Window
}

// New builds a gate from config strings: weekday names and "HH:MM-HH:MM"
// UTC windows.
func New(weekdays, windows []string) (*Gate, error) {
	g := &Gate{}

	if len(weekdays) > 0 {
		g.weekdays = make(map[time.Weekday]bool, len(weekdays))
		for _, s := range weekdays {
			d, err := ParseWeekday(s)
			if err != nil {
				return nil, err
			}
			g.weekdays[d] = true
		}
	}

	for _, s := range windows {
		w, err := ParseWindow(s)
		if err != nil {
			return nil, err
		}
		g.windows = append(g.windows, w)
	}
	return g, nil
}

// Open reports whether trading is admitted at the given instant, evaluated
// in UTC.
func (g *Gate) Open(at time.Time) bool {
	at = at.UTC()

	if g.weekdays != nil && !g.weekdays[at.Weekday()] {
		return false
	}
	if len(g.windows) == 0 {
		return true
	}
	for _, w := range g.windows {
		if w.Contains(at) {
			return true
		}
	}
	return false
}

// OpenNow is Open at the wall clock.
func (g *Gate) OpenNow() bool {
	return g.Open(time.Now())
}
