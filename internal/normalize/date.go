package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet day serials count from 1899-12-30; 25569 is the serial of 1970-01-01.
// Using this offset keeps the legacy 1900 leap-year quirk of spreadsheet tools.
const spreadsheetEpochOffset = 25569

// serial of 9999-12-31, the last day spreadsheets can represent
const maxSpreadsheetSerial = 2958465

var (
	serialPattern = regexp.MustCompile(`^\d+$`)
	isoPattern    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	frPattern     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// Date parses a day from one of three encodings, tried in order:
// a spreadsheet day serial, an ISO-8601 prefixed string, DD/MM/YYYY.
// The result is midnight UTC.
func Date(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serialPattern.MatchString(s) {
		if serial, err := strconv.Atoi(s); err == nil && serial <= maxSpreadsheetSerial {
			unix := time.Unix(0, 0).UTC()
			return unix.AddDate(0, 0, serial-spreadsheetEpochOffset), true
		}
	}

	if isoPattern.MatchString(s) {
		if t, ok := parseISO(s); ok {
			return t, true
		}
	}

	if m := frPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		t, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%02d-%02d", m[3], month, day))
		if err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
