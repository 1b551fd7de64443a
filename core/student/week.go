package student

import "fmt"

// CurrentWeekIndex returns the index of the current week in weeks:
// the first attended week, or 0 (week 1) when no week was attended yet.
// Array order is week order, so the first attended week is also the lowest attended week number.
// It returns -1 only when weeks is empty.
func CurrentWeekIndex(weeks []WeekRecord) int {
	if len(weeks) == 0 {
		return -1
	}
	for i, wr := range weeks {
		if wr.Attended {
			return i
		}
	}
	return 0
}

// CurrentWeek returns the WeekRecord selected by CurrentWeekIndex.
// A student without week records reports an unattended week 1.
func (s Student) CurrentWeek() WeekRecord {
	idx := CurrentWeekIndex(s.Weeks)
	if idx < 0 {
		return WeekRecord{Week: 1, HWDone: HomeworkNone}
	}
	return s.Weeks[idx]
}

// Week returns the record of the given week number (1-based).
func (s Student) Week(week int) (WeekRecord, bool) {
	if !ValidWeek(week) || week > len(s.Weeks) {
		return WeekRecord{}, false
	}
	return s.Weeks[week-1], true
}

func ValidWeek(week int) bool {
	return week >= 1 && week <= WeekCount
}

// WeekLabel formats a week number the way the dashboard shows it, e.g. "week 03".
func WeekLabel(week int) string {
	return fmt.Sprintf("week %02d", week)
}

// NormalizeWeeks repairs a stored week sequence so that it holds exactly WeekCount records
// with weeks[i].Week == i+1. Existing records are kept at their position; missing ones are zeroed.
func NormalizeWeeks(weeks []WeekRecord) []WeekRecord {
	normalized := NewWeeks()
	for _, wr := range weeks {
		if ValidWeek(wr.Week) {
			wr.HWDone = wr.HWDone.OrDefault()
			normalized[wr.Week-1] = wr
		}
	}
	return normalized
}
