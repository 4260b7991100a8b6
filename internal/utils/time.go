package utils

import (
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
	layoutLong     = "January 02, 2006"
	layoutStamp    = "20060102_150405"
)

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(layoutDateTime)
}

// FormatLongDate renders "January 02, 2006" for documents.
func FormatLongDate(t time.Time) string {
	return t.In(time.Local).Format(layoutLong)
}

// FileStamp renders "20060102_150405" for file names.
func FileStamp(t time.Time) string {
	return t.In(time.Local).Format(layoutStamp)
}

// DayStamp renders "20060102".
func DayStamp(t time.Time) string {
	return t.In(time.Local).Format("20060102")
}
