package models

import (
	"fmt"
	"time"
)

// Shift represents a scheduled, time-boxed work slot with a target headcount.
type Shift struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Date           time.Time `db:"date" json:"date"`
	StartTime      string    `db:"start_time" json:"start_time"`
	EndTime        string    `db:"end_time" json:"end_time"`
	RequiredPeople int       `db:"required_people" json:"required_people"`
	Description    string    `db:"description" json:"description,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Capacity is the derived fulfillment state of a shift. It is computed
// fresh from the assignment count on every read, never stored.
type Capacity struct {
	AssignedCount  int  `json:"assigned_count"`
	SpotsAvailable int  `json:"spots_available"`
	IsFull         bool `json:"is_full"`
}

// ComputeCapacity derives the capacity state from the required headcount
// and the current number of assignments. Over-subscription (assigned >
// required after an admin lowered the headcount) floors spots at zero.
func ComputeCapacity(requiredPeople, assignedCount int) Capacity {
	spots := requiredPeople - assignedCount
	if spots < 0 {
		spots = 0
	}
	return Capacity{
		AssignedCount:  assignedCount,
		SpotsAvailable: spots,
		IsFull:         assignedCount >= requiredPeople,
	}
}

// CapacityLabel is the categorical fulfillment state used by roster views.
type CapacityLabel string

const (
	CapacityFull    CapacityLabel = "FULL"
	CapacityPartial CapacityLabel = "PARTIAL"
	CapacityEmpty   CapacityLabel = "EMPTY"
)

// ComputeCapacityLabel classifies a shift as FULL, PARTIAL or EMPTY.
func ComputeCapacityLabel(requiredPeople, assignedCount int) CapacityLabel {
	switch {
	case assignedCount >= requiredPeople:
		return CapacityFull
	case assignedCount > 0:
		return CapacityPartial
	default:
		return CapacityEmpty
	}
}

const wallClockLayout = "15:04"

// ParseWallClock validates an HH:MM wall-clock value.
func ParseWallClock(value string) (time.Time, error) {
	t, err := time.Parse(wallClockLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t, nil
}

// StartAt returns the absolute start of the shift in the given location.
func (s *Shift) StartAt(loc *time.Location) (time.Time, error) {
	return combine(s.Date, s.StartTime, loc)
}

// EndAt returns the absolute end of the shift. A shift whose end time is
// not after its start time spans midnight and ends the following day.
func (s *Shift) EndAt(loc *time.Location) (time.Time, error) {
	end, err := combine(s.Date, s.EndTime, loc)
	if err != nil {
		return time.Time{}, err
	}
	start, err := combine(s.Date, s.StartTime, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return end, nil
}

// IsOvernight reports whether the shift spans midnight.
func (s *Shift) IsOvernight() bool {
	return s.EndTime <= s.StartTime
}

func combine(date time.Time, wallClock string, loc *time.Location) (time.Time, error) {
	t, err := ParseWallClock(wallClock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// ShiftDetail enriches a shift with its derived capacity and assignees.
type ShiftDetail struct {
	Shift
	Capacity
	IsAssigned bool          `json:"is_assigned"`
	Users      []UserSummary `json:"users"`
}

// ShiftFilter narrows shift listings.
type ShiftFilter struct {
	// WeekStart limits results to the seven days beginning at this date.
	WeekStart *time.Time
	UserID    string
}
