package events

import "time"

const (
	LeaveLifecycleTopic = "ems.leave.lifecycle.v1"

	EventLeaveReviewed = "leave_reviewed"
)

type LeaveReviewedEvent struct {
	EventType     string    `json:"event_type"`
	EmployeeEmail string    `json:"employee_email"`
	LeaveID       string    `json:"leave_id"`
	LeaveType     string    `json:"leave_type"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Status        string    `json:"status"`
	ReviewedBy    string    `json:"reviewed_by"`
	OccurredAt    time.Time `json:"occurred_at"`
}
