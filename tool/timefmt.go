package tool

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of date-only arguments.
const DateLayout = "2006-01-02"

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime reads an oracle supplied timestamp. RFC 3339 values keep their
// instant; offset-less values are read in loc. The result is in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ParseDate reads a YYYY-MM-DD argument as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t, nil
}

// DayRange returns [00:00, next 00:00) of the calendar day containing t.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

var koreanWeekdays = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// FormatKorean renders t like "10월 18일 (토) 오후 3:30".
func FormatKorean(t time.Time) string {
	meridiem := "오전"
	hour := t.Hour()
	if hour >= 12 {
		meridiem = "오후"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d월 %d일 (%s) %s %d:%02d",
		int(t.Month()), t.Day(), koreanWeekdays[t.Weekday()], meridiem, hour, t.Minute())
}
