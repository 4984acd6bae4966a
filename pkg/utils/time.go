package utils

import "time"

// FormatSortable formats a timestamp so that lexicographic order matches
// chronological order, which is what the message sort keys rely on.
func FormatSortable(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}
