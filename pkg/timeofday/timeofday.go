// Package timeofday handles wall-clock times and the daily service window.
package timeofday

import (
	"fmt"
	"strings"
	"time"
)

// Clock is seconds since midnight.
type Clock int

// Parse accepts HH:MM or HH:MM:SS.
func Parse(value string) (Clock, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", value)
}

// MustParse is Parse for constants.
func MustParse(value string) Clock {
	c, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Of returns the wall-clock part of t in t's own location.
func Of(t time.Time) Clock {
	return Clock(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

// On places c on the calendar day of date in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/3600, int(c)%3600/60, int(c)%60, 0, loc)
}

// String renders HH:MM:SS.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(c)/3600, int(c)%3600/60, int(c)%60)
}

// Window is an inclusive daily range.
type Window struct {
	Start Clock
	End   Clock
}

// DefaultWindow is 08:00 to 20:00.
var DefaultWindow = Window{Start: MustParse("08:00"), End: MustParse("20:00")}

// ParseWindow builds a window from config strings.
func ParseWindow(start, end string) (Window, error) {
	s, err := Parse(start)
	if err != nil {
		return Window{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return Window{}, err
	}
	if s >= e {
		return Window{}, fmt.Errorf("window start %s must be before end %s", s, e)
	}
	return Window{Start: s, End: e}, nil
}

// Contains reports whether c falls inside the window, both ends included.
func (w Window) Contains(c Clock) bool {
	return c >= w.Start && c <= w.End
}

// ContainsTime checks t's wall clock in its own location.
func (w Window) ContainsTime(t time.Time) bool {
	return w.Contains(Of(t))
}

// String renders "HH:MM:SS-HH:MM:SS".
func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}
