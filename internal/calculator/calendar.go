package calculator

import (
	"time"

	"InsiderSignal/internal/model"
)

// IsBusinessDay reports whether d is a US exchange trading day.
func IsBusinessDay(d time.Time) bool {
	d = model.Day(d)
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return false
	}
	return !IsMarketHoliday(d)
}

// PrevBusinessDay returns the closest business day strictly before d.
func PrevBusinessDay(d time.Time) time.Time {
	prev := model.Day(d).AddDate(0, 0, -1)
	for !IsBusinessDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// NextBusinessDay returns the closest business day strictly after d.
func NextBusinessDay(d time.Time) time.Time {
	next := model.Day(d).AddDate(0, 0, 1)
	for !IsBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// AddBusinessDays moves d by n business days (negative n moves backwards).
// A non-business start day counts from its position in the calendar, so
// Saturday + 1 is Monday and Saturday - 1 is Friday.
func AddBusinessDays(d time.Time, n int) time.Time {
	d = model.Day(d)
	for ; n > 0; n-- {
		d = NextBusinessDay(d)
	}
	for ; n < 0; n++ {
		d = PrevBusinessDay(d)
	}
	return d
}

// IsMarketHoliday reports whether d is one of the fixed US market holidays.
func IsMarketHoliday(d time.Time) bool {
	d = model.Day(d)
	for _, h := range holidaysFor(d.Year()) {
		if h.Equal(d) {
			return true
		}
	}
	return false
}

// holidaysFor returns the observed holiday dates for a year: New Year, MLK,
// Presidents, Good Friday, Memorial, Independence, Labor, Thanksgiving,
// Christmas and (from 2022) Juneteenth. A Saturday New Year is not observed.
func holidaysFor(year int) []time.Time {
	date := func(m time.Month, day int) time.Time {
		return time.Date(year, m, day, 0, 0, 0, 0, time.UTC)
	}
	hs := []time.Time{
		observedNewYear(year),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		easter(year).AddDate(0, 0, -2),
		lastWeekday(year, time.May, time.Monday),
		observed(date(time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		observed(date(time.December, 25)),
	}
	if year >= 2022 {
		hs = append(hs, observed(date(time.June, 19)))
	}
	return hs
}

func observedNewYear(year int) time.Time {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

func nthWeekday(year int, m time.Month, wd time.Weekday, n int) time.Time {
	d := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d.AddDate(0, 0, 7*(n-1))
}

func lastWeekday(year int, m time.Month, wd time.Weekday) time.Time {
	d := time.Date(year, m+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// easter returns Easter Sunday (anonymous Gregorian algorithm).
func easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
