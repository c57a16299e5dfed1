package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
)

const minutesPerDay = 24 * 60

// Appointment statuses as the remote reports them, with the fixed color
// the dashboard renders for each. Unknown statuses fall back to gray.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
	StatusShowed    = "showed"
	StatusNoShow    = "noshow"
	StatusBlocked   = "blocked"
)

var statusColors = map[string]string{
	StatusConfirmed: "#22c55e",
	StatusPending:   "#eab308",
	StatusCancelled: "#ef4444",
	StatusShowed:    "#3b82f6",
	StatusNoShow:    "#f97316",
	StatusBlocked:   "#6b7280",
}

func StatusColor(status string) string {
	if color, ok := statusColors[status]; ok {
		return color
	}
	return "#9ca3af"
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// Interval is a busy block in clock minutes from midnight of the slot's
// day, in the calendar's timezone.
type Interval struct {
	Start int
	End   int
}

func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// FilterBusy drops slot start minutes whose slot interval overlaps any
// busy block.
func FilterBusy(starts []int, duration int, busy []Interval) []int {
	filtered := make([]int, 0, len(starts))
	for _, start := range starts {
		current := Interval{Start: start, End: start + duration}
		overlap := false
		for _, b := range busy {
			if Overlaps(current, b) {
				overlap = true
				break
			}
		}
		if !overlap {
			filtered = append(filtered, start)
		}
	}
	return filtered
}

// minutesOfDay converts an instant to clock minutes in loc, relative to
// that instant's own day.
func minutesOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
