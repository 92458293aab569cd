package domain

import "time"

// Category is owned by the catalog collaborator. Only its rate matters here,
// and only at the instant a session starts.
type Category struct {
	ID         string
	Name       string
	HourlyRate *Money
	UpdatedAt  time.Time
}

// Task is owned by the catalog collaborator and scoped to one user.
type Task struct {
	ID         string
	UserID     string
	Title      string
	CategoryID *string
	CreatedAt  time.Time
}

// OwnedBy reports whether the task belongs to userID.
func (t *Task) OwnedBy(userID string) bool {
	return t != nil && t.UserID == userID
}
