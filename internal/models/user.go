package models

import "time"

// User represents a volunteer stored in the users table. Users are
// created on first successful login and never deleted.
type User struct {
	ID             string     `db:"id" json:"id"`
	RemoteID       string     `db:"remote_id" json:"remote_id"`
	Name           string     `db:"name" json:"name"`
	Email          string     `db:"email" json:"email"`
	ShiftsExpected int        `db:"shifts_expected" json:"shifts_expected"`
	IsAdmin        bool       `db:"is_admin" json:"is_admin"`
	ArrivalDate    *time.Time `db:"arrival_date" json:"arrival_date,omitempty"`
	DepartureDate  *time.Time `db:"departure_date" json:"departure_date,omitempty"`
	ArrivalTime    *string    `db:"arrival_time" json:"arrival_time,omitempty"`
	DepartureTime  *string    `db:"departure_time" json:"departure_time,omitempty"`
	HasSeenIntro   bool       `db:"has_seen_intro" json:"has_seen_intro"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// DogMood is the satisfaction tier derived from a volunteer's actual vs.
// expected shift count.
type DogMood string

const (
	MoodHappy    DogMood = "happy"
	MoodMediocre DogMood = "mediocre"
	MoodSad      DogMood = "sad"
)

// ComputeDogMood derives the satisfaction tier. A zero quota yields a
// zero ratio, so volunteers with shifts_expected = 0 always read as sad.
func ComputeDogMood(shiftCount, shiftsExpected int) DogMood {
	var ratio float64
	if shiftsExpected > 0 {
		ratio = float64(shiftCount) / float64(shiftsExpected)
	}
	switch {
	case ratio >= 1:
		return MoodHappy
	case ratio >= 0.5:
		return MoodMediocre
	default:
		return MoodSad
	}
}

// UserSummary is the minimal identity shown on shift rosters.
type UserSummary struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// UserDetail enriches a user with derived participation state.
type UserDetail struct {
	User
	ShiftCount int     `db:"shift_count" json:"shift_count"`
	DogMood    DogMood `json:"dog_mood"`
}
