// Package models defines the data types for Memory Box
package models

import "time"

// TimeLayout is the stored timestamp format: UTC with fixed-width
// fractional seconds, so lexicographic order equals chronological order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime renders a timestamp in the stored layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. Failure marks the record corrupt.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Command represents a stored shell command with its metadata and tag set.
type Command struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	OS          *string    `json:"os,omitempty"`
	ProjectType *string    `json:"project_type,omitempty"`
	Context     *string    `json:"context,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Status      *string    `json:"status,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	UseCount    int        `json:"use_count"`
}

// CommandInput carries the caller-supplied fields for a new command.
// The command text here is raw; it is redacted before it is stored.
type CommandInput struct {
	Command     string   `json:"command"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	OS          *string  `json:"os,omitempty"`
	ProjectType *string  `json:"project_type,omitempty"`
	Context     *string  `json:"context,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Status      *string  `json:"status,omitempty"`
}
