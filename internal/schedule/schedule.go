package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultOpenHour  = 9
	DefaultCloseHour = 17
)

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidWindow   = errors.New("invalid working window")
)

// Window is the salon's working-hours span in whole hours, e.g. 9 to 17.
type Window struct {
	OpenHour  int
	CloseHour int
}

func DefaultWindow() Window {
	return Window{OpenHour: DefaultOpenHour, CloseHour: DefaultCloseHour}
}

func (w Window) valid() bool {
	return w.OpenHour >= 0 && w.CloseHour <= 24 && w.OpenHour < w.CloseHour
}

// Generate produces the candidate slot grid for a service of the given
// duration: labels from the window start in duration-minute steps. A slot is
// included as long as it starts before closing time, so the last slot of the
// day may run past closing. That tail slot is deliberate booking behavior,
// not an off-by-one.
func Generate(w Window, durationMinutes int) ([]string, error) {
	if !w.valid() {
		return nil, ErrInvalidWindow
	}
	if durationMinutes < 1 {
		return nil, ErrInvalidDuration
	}

	openMin := w.OpenHour * 60
	closeMin := w.CloseHour * 60

	slots := make([]string, 0, (closeMin-openMin)/durationMinutes+1)
	for cursor := openMin; cursor < closeMin; cursor += durationMinutes {
		slots = append(slots, MinutesToClock(cursor))
	}
	return slots, nil
}

// Contains reports whether timeStr is one of the grid slots for the window
// and duration.
func Contains(w Window, durationMinutes int, timeStr string) (bool, error) {
	slots, err := Generate(w, durationMinutes)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s == timeStr {
			return true, nil
		}
	}
	return false, nil
}

// FilterBooked removes slots whose label is claimed. Order is preserved.
func FilterBooked(slots []string, booked map[string]bool) []string {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		if !booked[s] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse("15:04", timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := ParseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}

	parsed, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
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

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	startToday := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

func IsSlotPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := ParseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}

func IsToday(dateStr string, loc *time.Location, now time.Time) bool {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false
	}
	n := now.In(loc)
	return date.Year() == n.Year() && date.YearDay() == n.YearDay()
}

// FilterPast drops slots that already started today. Dates other than today
// are left alone; past dates are rejected before slot math ever runs.
func FilterPast(dateStr string, slots []string, loc *time.Location, now time.Time) ([]string, error) {
	filtered := make([]string, 0, len(slots))
	for _, s := range slots {
		past, err := IsSlotPast(dateStr, s, loc, now)
		if err != nil {
			return nil, err
		}
		if !past {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}
