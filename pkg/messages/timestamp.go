package messages

import (
	"regexp"
	"strconv"
	"time"
)

// Three timestamp surface patterns are recognized, in this priority order.
// First match wins per text run.
var (
	timeOnlyRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	dayTimeRegex  = regexp.MustCompile(`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s+(\d{1,2}):(\d{2})$`)
	dateTimeRegex = regexp.MustCompile(`^(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+at\s+(\d{1,2}):(\d{2})$`)

	// A text run qualifies as a username only if it is all letters and
	// whitespace and mentions no calendar word. The "at" check is a plain
	// substring test, matching the historical behavior.
	usernameRegex  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	calendarRegex  = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday|January|February|March|April|May|June|July|August|September|October|November|December|at)`)
)

var weekdayIndex = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

var monthIndex = map[string]time.Month{
	"January":   time.January,
	"February":  time.February,
	"March":     time.March,
	"April":     time.April,
	"May":       time.May,
	"June":      time.June,
	"July":      time.July,
	"August":    time.August,
	"September": time.September,
	"October":   time.October,
	"November":  time.November,
	"December":  time.December,
}

// ParseTimestamp classifies a text run as one of the timestamp surface
// patterns and normalizes it to "YYYY-MM-DD HHMM" relative to now. The
// second return is false when the text is not a timestamp at all.
//
// A bare time is today unless that would be in the future, then yesterday.
// A weekday time is the most recent past occurrence of that weekday. A
// day-month time is this year unless in the future, then last year.
func ParseTimestamp(text string, now time.Time) (string, bool) {
	if match := timeOnlyRegex.FindStringSubmatch(text); match != nil {
		hours, _ := strconv.Atoi(match[1])
		minutes, _ := strconv.Atoi(match[2])

		target := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
		if target.After(now) {
			target = target.AddDate(0, 0, -1)
		}
		return formatTimestamp(target), true
	}

	if match := dayTimeRegex.FindStringSubmatch(text); match != nil {
		day := weekdayIndex[match[1]]
		hours, _ := strconv.Atoi(match[2])
		minutes, _ := strconv.Atoi(match[3])

		daysBack := (int(now.Weekday()) - int(day) + 7) % 7
		if daysBack == 0 {
			todayTime := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location())
			if todayTime.After(now) {
				daysBack = 7
			}
		}

		target := time.Date(now.Year(), now.Month(), now.Day(), hours, minutes, 0, 0, now.Location()).AddDate(0, 0, -daysBack)
		return formatTimestamp(target), true
	}

	if match := dateTimeRegex.FindStringSubmatch(text); match != nil {
		day, _ := strconv.Atoi(match[1])
		month := monthIndex[match[2]]
		hours, _ := strconv.Atoi(match[3])
		minutes, _ := strconv.Atoi(match[4])

		year := now.Year()
		target := time.Date(year, month, day, hours, minutes, 0, 0, now.Location())
		if target.After(now) {
			year--
			target = time.Date(year, month, day, hours, minutes, 0, 0, now.Location())
		}
		return formatTimestamp(target), true
	}

	return "", false
}

// IsUsername reports whether a text run qualifies as a sender display name:
// not a timestamp, length strictly between 2 and 50, letters and whitespace
// only, no calendar words.
func IsUsername(text string, now time.Time) bool {
	if len(text) <= 2 || len(text) >= 50 {
		return false
	}
	if _, isTimestamp := ParseTimestamp(text, now); isTimestamp {
		return false
	}
	return usernameRegex.MatchString(text) && !calendarRegex.MatchString(text)
}

// formatTimestamp renders the normalized "YYYY-MM-DD HHMM" form
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 1504")
}
