package models

import "time"

// EventStats are the event-wide fulfillment aggregates shown on every
// dashboard. They are cheap to cache because they change only when
// shifts or assignments change.
type EventStats struct {
	TotalShifts      int       `json:"total_shifts"`
	TotalSpots       int       `json:"total_spots"`
	TotalAssignments int       `json:"total_assignments"`
	FillRatio        float64   `json:"fill_ratio"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// VolunteerStatus is the personal block of the dashboard: how the
// viewer is doing against their own quota.
type VolunteerStatus struct {
	ShiftCount     int     `json:"shift_count"`
	ShiftsExpected int     `json:"shifts_expected"`
	DogMood        DogMood `json:"dog_mood"`
}

// DashboardOverview is the landing-page payload.
type DashboardOverview struct {
	Stats          EventStats      `json:"stats"`
	Me             VolunteerStatus `json:"me"`
	UpcomingShifts []Shift         `json:"upcoming_shifts"`
	UnfilledShifts []ShiftDetail   `json:"unfilled_shifts"`
}
