package models

import "time"

// SourceStatusDone is the source status that maps to a completed destination task.
const SourceStatusDone = "Done"

// Destination task statuses.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// SourceTask is a task read from the Notion database.
type SourceTask struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	DueDate *time.Time `json:"dueDate,omitempty"`
	Status  string     `json:"status"`
}

// DestinationTask is a task in a Google Tasks list.
type DestinationTask struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Due    string `json:"due,omitempty"`
	Status string `json:"status"`
}

// TaskList is a Google Tasks list the user can pick as sync target.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IDMapping links a created destination task to the source task it came from.
type IDMapping struct {
	DestinationID string `json:"destinationId"`
	SourceID      string `json:"sourceId"`
}
