package sla

import "time"

// Calendar describes the working window used when accruing SLA time: a daily
// start/end hour applied uniformly to every working day.
type Calendar struct {
	StartHour int
	EndHour   int
	WorkDays  map[time.Weekday]struct{}
}

// DefaultCalendar returns the process-wide business calendar, 08:00-18:00
// Monday through Friday. Kept behind an accessor so per-company calendars can
// be introduced without touching call sites.
func DefaultCalendar() Calendar {
	return Calendar{
		StartHour: 8,
		EndHour:   18,
		WorkDays: map[time.Weekday]struct{}{
			time.Monday:    {},
			time.Tuesday:   {},
			time.Wednesday: {},
			time.Thursday:  {},
			time.Friday:    {},
		},
	}
}

func (c Calendar) workday(d time.Weekday) bool {
	_, ok := c.WorkDays[d]
	return ok
}

// dayWindow returns the business window for the calendar day containing t.
func (c Calendar) dayWindow(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, c.StartHour, 0, 0, 0, t.Location())
	end = time.Date(y, m, d, c.EndHour, 0, 0, 0, t.Location())
	return start, end
}

// IsBusinessInstant reports whether t falls inside the working window.
func (c Calendar) IsBusinessInstant(t time.Time) bool {
	if !c.workday(t.Weekday()) {
		return false
	}
	start, end := c.dayWindow(t)
	return !t.Before(start) && t.Before(end)
}

// NextBusinessInstant returns t unchanged when it is already a business
// instant, otherwise the next instant at which business time starts accruing.
func (c Calendar) NextBusinessInstant(t time.Time) time.Time {
	if c.IsBusinessInstant(t) {
		return t
	}
	start, _ := c.dayWindow(t)
	if c.workday(t.Weekday()) && t.Before(start) {
		return start
	}
	day := start
	for {
		day = day.AddDate(0, 0, 1)
		if c.workday(day.Weekday()) {
			return day
		}
	}
}

// BusinessDuration returns the amount of business time between start and end.
// Inverted or empty intervals yield zero.
func (c Calendar) BusinessDuration(start, end time.Time) time.Duration {
	if !end.After(start) {
		return 0
	}
	total := time.Duration(0)
	cur := start
	for cur.Before(end) {
		y, m, d := cur.Date()
		dayStart := time.Date(y, m, d, 0, 0, 0, 0, cur.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)
		if !c.workday(dayStart.Weekday()) {
			cur = dayEnd
			continue
		}
		bhStart, bhEnd := c.dayWindow(cur)
		if cur.Before(bhStart) {
			cur = bhStart
		}
		if !cur.Before(bhEnd) {
			cur = dayEnd
			continue
		}
		e := minTime(end, bhEnd)
		if e.After(cur) {
			total += e.Sub(cur)
		}
		cur = e
		if cur.Equal(bhEnd) {
			cur = dayEnd
		}
	}
	return total
}

// AddBusinessDuration advances start by d units of business time, skipping
// nights, weekends and non-working days. It is the inverse of
// BusinessDuration: BusinessDuration(start, AddBusinessDuration(start, d))
// equals d for any d > 0.
func (c Calendar) AddBusinessDuration(start time.Time, d time.Duration) time.Time {
	cur := c.NextBusinessInstant(start)
	for d > 0 {
		_, bhEnd := c.dayWindow(cur)
		avail := bhEnd.Sub(cur)
		if avail >= d {
			return cur.Add(d)
		}
		d -= avail
		cur = c.NextBusinessInstant(bhEnd)
	}
	return cur
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
