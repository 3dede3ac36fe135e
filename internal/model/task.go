package model

import "time"

type Task struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Completed     bool   `json:"completed"`
	IsFocusing    bool   `json:"isFocusing"`
	FocusSessions int    `json:"focusSessions"`
}

// Archived returns the snapshot stored in the local archive.
func (t Task) Archived() Task {
	t.Completed = true
	t.IsFocusing = false
	return t
}

// StoredTask is the collaborator's row for an active task.
type StoredTask struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Title         string    `json:"title"`
	FocusSessions int       `json:"focusSessions"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s StoredTask) Task() Task {
	return Task{
		ID:            s.ID,
		Title:         s.Title,
		FocusSessions: s.FocusSessions,
	}
}
