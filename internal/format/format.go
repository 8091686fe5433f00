// Package format builds the human-readable birthday messages sent to chats.
// All functions are pure; month grammar follows Russian genitive declension
// ("15 мая"), which is the case used when a month name follows a day number.
package format

import (
	"fmt"
	"strings"

	"bdaybot/internal/database"
)

// Months is the fixed vocabulary of lowercase Russian month names, in
// calendar order. The spreadsheet's month column must use these exact values.
var Months = []string{
	"январь",
	"февраль",
	"март",
	"апрель",
	"май",
	"июнь",
	"июль",
	"август",
	"сентябрь",
	"октябрь",
	"ноябрь",
	"декабрь",
}

// Message headers prepended to the today/upcoming blocks.
const (
	HeaderToday  = "#деньрождения сегодня:\n"
	HeaderFuture = "#деньрождения завтра и следующие два дня:\n"
)

// MonthIndex resolves a lowercase Russian month name to its 1-based calendar
// index. Unrecognized names resolve to 1 (январь).
func MonthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i + 1
		}
	}
	return 1
}

// MonthName is the inverse of MonthIndex. Out-of-range indices resolve to
// "январь".
func MonthName(index int) string {
	if index < 1 || index > len(Months) {
		return "январь"
	}
	return Months[index-1]
}

// DaysInMonth reports the number of selectable days for a month name.
// February always offers 29 since the record year is normalized and leap
// status is unknown at entry time. Unknown names report 30.
func DaysInMonth(name string) int {
	switch name {
	case "январь", "март", "май", "июль", "август", "октябрь", "декабрь":
		return 31
	case "апрель", "июнь", "сентябрь", "ноябрь":
		return 30
	case "февраль":
		return 29
	default:
		return 30
	}
}

// Genitive declines a nominative month name into genitive case:
// "март" -> "марта", "апрель" -> "апреля". Empty input declines the default
// month, "января".
func Genitive(month string) string {
	if month == "" {
		return "января"
	}
	if strings.HasSuffix(month, "т") {
		return month + "а"
	}
	runes := []rune(month)
	return string(runes[:len(runes)-1]) + "я"
}

// Record renders one birthday as "{day} {month-in-genitive}, {name}".
func Record(b database.Birthday) string {
	month := Genitive(MonthName(int(b.Date.Month())))
	return fmt.Sprintf("%d %s, %s", b.Date.Day(), month, b.Name)
}

// List renders a sequence of birthdays as newline-joined Record lines,
// preserving input order.
func List(birthdays []database.Birthday) string {
	lines := make([]string, 0, len(birthdays))
	for _, b := range birthdays {
		lines = append(lines, Record(b))
	}
	return strings.Join(lines, "\n")
}

// Digest renders a header-prefixed message block for a sequence of birthdays.
// The today flag selects the header. An empty sequence yields an empty string
// so callers can detect "nothing to send".
func Digest(birthdays []database.Birthday, today bool) string {
	if len(birthdays) == 0 {
		return ""
	}
	header := HeaderFuture
	if today {
		header = HeaderToday
	}
	return header + List(birthdays)
}
