package events

import "time"

const (
	MirrorLagTopic = "ems.leave.mirror.v1"

	EventMirrorLag = "leave.mirror_lag"
)

// Mirror lag scopes: which part of the admin view fell behind.
const (
	MirrorScopeLeave   = "leave"
	MirrorScopeProfile = "profile"
)

// MirrorLagEvent is emitted when the authoritative employee view was written
// but the admin view could not be updated.
type MirrorLagEvent struct {
	EventType     string    `json:"event_type"`
	EmployeeEmail string    `json:"employee_email"`
	Scope         string    `json:"scope"`
	Ref           string    `json:"ref,omitempty"`
	Operation     string    `json:"operation"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}
