package legacymigrate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/campstaff/internal/app/system/normalize"
	"github.com/dalemusser/campstaff/internal/domain/models"
)

// SummerCampProject is the project code of the seasonal summer camp.
const SummerCampProject = 4

// Window is a fixed calendar range for a seasonal project.
type Window struct {
	Start time.Time
	End   time.Time
}

// DatePolicy derives assignment dates for migrated entries. Seasonal projects
// get their fixed window; every other project inherits the worker's
// employment window, or starts today open-ended when the worker has none.
type DatePolicy struct {
	Seasonal map[int]Window
	Today    func() time.Time
}

// DefaultPolicy maps the summer camp project to July 1 through August 31 of
// year.
func DefaultPolicy(year int) DatePolicy {
	return DatePolicy{
		Seasonal: map[int]Window{
			SummerCampProject: {
				Start: time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(year, time.August, 31, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}

// ErrNoDateRange means the worker's own dates cannot yield a valid range:
// the end date precedes the start date, or there is no start date and the
// end date is already past.
var ErrNoDateRange = errors.New("worker dates give no valid assignment range")

// Dates returns the start and optional end date for an entry of project
// belonging to w. A worker with an end date but no start date starts today
// and keeps the end date.
func (p DatePolicy) Dates(project int, w models.Worker) (time.Time, *time.Time, error) {
	if win, ok := p.Seasonal[project]; ok {
		end := normalize.Date(win.End)
		return normalize.Date(win.Start), &end, nil
	}
	end := normalize.DatePtr(w.EndDate)
	if w.StartDate != nil {
		start := normalize.Date(*w.StartDate)
		if end != nil && end.Before(start) {
			return time.Time{}, nil, ErrNoDateRange
		}
		return start, end, nil
	}
	now := time.Now
	if p.Today != nil {
		now = p.Today
	}
	today := normalize.Date(now())
	if end != nil && end.Before(today) {
		return time.Time{}, nil, ErrNoDateRange
	}
	return today, end, nil
}

// ParseSeason parses "project:YYYY-MM-DD:YYYY-MM-DD".
func ParseSeason(s string) (int, Window, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, Window{}, fmt.Errorf("season %q: want project:YYYY-MM-DD:YYYY-MM-DD", s)
	}
	project, err := strconv.Atoi(parts[0])
	if err != nil || project <= 0 {
		return 0, Window{}, fmt.Errorf("season %q: project must be a positive integer", s)
	}
	start, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return 0, Window{}, fmt.Errorf("season %q: start: %w", s, err)
	}
	end, err := time.Parse("2006-01-02", parts[2])
	if err != nil {
		return 0, Window{}, fmt.Errorf("season %q: end: %w", s, err)
	}
	if end.Before(start) {
		return 0, Window{}, fmt.Errorf("season %q: end before start", s)
	}
	return project, Window{Start: start, End: end}, nil
}

// WindowFromMonthDay builds a window in year from "MM-DD" bounds.
func WindowFromMonthDay(year int, start, end string) (Window, error) {
	s, err := time.Parse("01-02", strings.TrimSpace(start))
	if err != nil {
		return Window{}, fmt.Errorf("window start %q: %w", start, err)
	}
	e, err := time.Parse("01-02", strings.TrimSpace(end))
	if err != nil {
		return Window{}, fmt.Errorf("window end %q: %w", end, err)
	}
	w := Window{
		Start: time.Date(year, s.Month(), s.Day(), 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, e.Month(), e.Day(), 0, 0, 0, 0, time.UTC),
	}
	if w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("window %s..%s: end before start", start, end)
	}
	return w, nil
}
