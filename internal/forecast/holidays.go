package forecast

import "time"

// US retail holiday calendar. Each holiday becomes an indicator regressor in
// the seasonal model so demand spikes around fixed retail events are fitted
// separately from the smooth seasonal curve.

var holidayNames = []string{
	"new_years_day",
	"mlk_day",
	"presidents_day",
	"memorial_day",
	"independence_day",
	"labor_day",
	"thanksgiving",
	"black_friday",
	"christmas_eve",
	"christmas_day",
}

// holidayName returns the holiday a date falls on, if any.
func holidayName(date time.Time) (string, bool) {
	y, m, d := date.Date()

	switch {
	case m == time.January && d == 1:
		return "new_years_day", true
	case m == time.July && d == 4:
		return "independence_day", true
	case m == time.December && d == 24:
		return "christmas_eve", true
	case m == time.December && d == 25:
		return "christmas_day", true
	}

	switch {
	case sameDay(date, nthWeekday(y, time.January, time.Monday, 3)):
		return "mlk_day", true
	case sameDay(date, nthWeekday(y, time.February, time.Monday, 3)):
		return "presidents_day", true
	case sameDay(date, lastWeekday(y, time.May, time.Monday)):
		return "memorial_day", true
	case sameDay(date, nthWeekday(y, time.September, time.Monday, 1)):
		return "labor_day", true
	case sameDay(date, thanksgiving(y)):
		return "thanksgiving", true
	case sameDay(date, thanksgiving(y).AddDate(0, 0, 1)):
		return "black_friday", true
	}

	return "", false
}

func thanksgiving(year int) time.Time {
	return nthWeekday(year, time.November, time.Thursday, 4)
}

// nthWeekday returns the nth occurrence of a weekday in a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7

	return first.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last occurrence of a weekday in a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	last := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7

	return last.AddDate(0, 0, -offset)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()

	return ay == by && am == bm && ad == bd
}
