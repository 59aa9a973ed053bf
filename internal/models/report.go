package models

// ReportShift is one roster line on the print report.
type ReportShift struct {
	Shift
	Label         CapacityLabel `json:"label"`
	AssignedCount int           `json:"assigned_count"`
	Users         []UserSummary `json:"users"`
}

// ReportDay groups the roster by calendar day.
type ReportDay struct {
	Date   string        `json:"date"`
	Shifts []ReportShift `json:"shifts"`
}
