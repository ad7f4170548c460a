package pattern

import (
	"strconv"
	"strings"
	"time"
)

// DayGroup is a calendar bucket stores commonly tie events to.
type DayGroup string

const (
	// GroupMultipleOfFive: the 5th, 10th, 15th...
	GroupMultipleOfFive DayGroup = "multiple_of_five"
	// GroupRepdigit: the 11th and 22nd.
	GroupRepdigit DayGroup = "repdigit"
	// GroupMonthDay: day of month equals month number (7/7, 8/8).
	GroupMonthDay DayGroup = "month_day"
	// GroupEventDigit: day of month contains a 3, 6 or 7.
	GroupEventDigit DayGroup = "event_digit"
)

// GroupsOf returns every calendar group a date belongs to. A date may belong
// to several groups at once.
func GroupsOf(t time.Time) []DayGroup {
	day := t.Day()
	var groups []DayGroup

	if day%5 == 0 {
		groups = append(groups, GroupMultipleOfFive)
	}
	if day == 11 || day == 22 {
		groups = append(groups, GroupRepdigit)
	}
	if day == int(t.Month()) {
		groups = append(groups, GroupMonthDay)
	}
	if containsEventDigit(day) {
		groups = append(groups, GroupEventDigit)
	}
	return groups
}

func containsEventDigit(day int) bool {
	s := strconv.Itoa(day)
	return strings.ContainsAny(s, "367")
}

// IsSpecialDay reports whether the date falls in any group.
func IsSpecialDay(t time.Time) bool {
	return len(GroupsOf(t)) > 0
}
