package translate

import (
	"time"

	"github.com/MrWong99/soulsync/internal/timeline"
)

// Display limits for history entries.
const (
	InputPreviewLen  = 60
	OutputPreviewLen = 80
)

// Entry is the display form of a [Record].
type Entry struct {
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	Ago       string    `json:"ago"`
}

// Truncate shortens s to n runes and appends "..." when it was longer.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Describe returns display entries for records relative to now.
func Describe(records []Record, now time.Time) []Entry {
	out := make([]Entry, len(records))
	for i, r := range records {
		out[i] = Entry{
			Input:     Truncate(r.Input, InputPreviewLen),
			Output:    Truncate(r.Output, OutputPreviewLen),
			Category:  r.Category,
			CreatedAt: r.CreatedAt,
			Ago:       timeline.FormatAgo(r.CreatedAt, now),
		}
	}
	return out
}
