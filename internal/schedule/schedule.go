// Package schedule answers questions about the station's weekly program grid
package schedule

import (
	"fmt"
	"sort"
	"time"
)

// Program is a single recurring slot in the weekly grid. Start and End are local
// wall-clock times formatted HH:MM; a slot never crosses midnight.
type Program struct {
	Id          int
	Day         time.Weekday
	Start       string
	End         string
	Name        string
	Host        string
	Description string
	Icon        string
}

// Schedule is the full weekly grid
type Schedule []Program

// ForDay returns the programs airing on the given day, ordered by start time
func (s Schedule) ForDay(day time.Weekday) []Program {
	programs := make([]Program, 0)
	for _, p := range s {
		if p.Day == day {
			programs = append(programs, p)
		}
	}
	sort.SliceStable(programs, func(i, j int) bool {
		return minutes(programs[i].Start) < minutes(programs[j].Start)
	})
	return programs
}

// NowPlaying returns the program on air at the given time. Both ends of a slot are
// inclusive, so at a boundary minute the earlier program wins.
func (s Schedule) NowPlaying(now time.Time) (Program, bool) {
	for _, p := range s.ForDay(now.Weekday()) {
		if p.IsLive(now) {
			return p, true
		}
	}
	return Program{}, false
}

// IsLive reports whether the program is on air at the given time
func (p Program) IsLive(now time.Time) bool {
	if now.Weekday() != p.Day {
		return false
	}
	current := now.Hour()*60 + now.Minute()
	return current >= minutes(p.Start) && current <= minutes(p.End)
}

// Validate checks that every program has well-formed, ordered times
func (s Schedule) Validate() error {
	for _, p := range s {
		start, err := parseClock(p.Start)
		if err != nil {
			return fmt.Errorf("program %d: invalid start: %w", p.Id, err)
		}
		end, err := parseClock(p.End)
		if err != nil {
			return fmt.Errorf("program %d: invalid end: %w", p.Id, err)
		}
		if end < start {
			return fmt.Errorf("program %d: ends (%s) before it starts (%s)", p.Id, p.End, p.Start)
		}
	}
	return nil
}

// minutes converts HH:MM to minutes past midnight; malformed values sort first
func minutes(hhmm string) int {
	m, err := parseClock(hhmm)
	if err != nil {
		return -1
	}
	return m
}

func parseClock(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// DayLabels lists the days in the order the grid displays them, Monday first
var DayLabels = []struct {
	Day   time.Weekday
	Label string
}{
	{time.Monday, "Lun"},
	{time.Tuesday, "Mar"},
	{time.Wednesday, "Mié"},
	{time.Thursday, "Jue"},
	{time.Friday, "Vie"},
	{time.Saturday, "Sáb"},
	{time.Sunday, "Dom"},
}
