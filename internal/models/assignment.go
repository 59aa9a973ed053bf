package models

import "time"

// Assignment attaches one volunteer to one shift. The (shift_id, user_id)
// pair is unique; deleting either endpoint cascades to the assignment.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	ShiftID   string    `db:"shift_id" json:"shift_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
