package models

import "time"

// UserRecord is the per-user state kept between requests.
type UserRecord struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	TasksListID  string     `json:"tasksListId,omitempty"`
	DatabaseID   string     `json:"databaseId,omitempty"`
	LastSyncedAt *time.Time `json:"lastSynced,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Linked reports whether both sides of the sync are configured.
func (u *UserRecord) Linked() bool {
	return u != nil && u.TasksListID != "" && u.DatabaseID != ""
}
