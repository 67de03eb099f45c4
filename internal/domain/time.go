package domain

import "time"

// DateOnly truncates a timestamp to midnight UTC. All dormancy comparisons
// work on calendar dates; times of day and zones never influence a verdict.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
