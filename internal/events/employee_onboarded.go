package events

import "time"

const (
	EmployeeLifecycleTopic = "ems.employee.lifecycle.v1"

	EventEmployeeOnboarded = "employee_onboarded"
)

type EmployeeOnboardedEvent struct {
	EventType  string    `json:"event_type"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}
