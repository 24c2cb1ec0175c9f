package leave

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format stored for start and end dates.
const DateLayout = "2006-01-02"

type LeaveType string

const (
	TypeWFH       LeaveType = "WFH"
	TypeOnDuty    LeaveType = "On Duty"
	TypePrivilege LeaveType = "Privilege"
	TypeCasual    LeaveType = "Casual"
	TypeMaternity LeaveType = "Maternity"
)

var leaveTypes = map[string]LeaveType{
	"wfh":       TypeWFH,
	"on duty":   TypeOnDuty,
	"onduty":    TypeOnDuty,
	"privilege": TypePrivilege,
	"casual":    TypeCasual,
	"maternity": TypeMaternity,
}

// ParseLeaveType accepts the closed set case-insensitively; "OnDuty" is an
// alias of "On Duty".
func ParseLeaveType(s string) (LeaveType, bool) {
	t, ok := leaveTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusAccepted  Status = "Accepted"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
)

// NormalizeStatus maps legacy spellings found in older documents.
func NormalizeStatus(s Status) Status {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "pending", "":
		return StatusPending
	case "accepted", "approved":
		return StatusAccepted
	case "rejected":
		return StatusRejected
	case "cancelled", "canceled":
		return StatusCancelled
	default:
		return s
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func ParseDecision(s string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionAccept:
		return DecisionAccept, true
	case DecisionReject:
		return DecisionReject, true
	}
	return "", false
}

func (d Decision) Status() Status {
	if d == DecisionAccept {
		return StatusAccepted
	}
	return StatusRejected
}

// LeaveRecord is one element of an employee's leaveRecords array. Version is
// the optimistic concurrency token; every mutation increments it.
type LeaveRecord struct {
	LeaveID    string     `bson:"leaveId"`
	LeaveType  LeaveType  `bson:"leaveType"`
	StartDate  string     `bson:"startDate"`
	EndDate    string     `bson:"endDate"`
	Reason     string     `bson:"reason"`
	AppliedAt  time.Time  `bson:"appliedAt"`
	Status     Status     `bson:"status"`
	Version    int64      `bson:"version"`
	ReviewedBy string     `bson:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `bson:"reviewedAt,omitempty"`
}

func (r LeaveRecord) normalized() LeaveRecord {
	r.Status = NormalizeStatus(r.Status)
	if t, ok := ParseLeaveType(string(r.LeaveType)); ok {
		r.LeaveType = t
	}
	return r
}

// Consistency reports whether the admin view caught up with a write.
type Consistency string

const (
	ConsistencyConsistent Consistency = "consistent"
	ConsistencyMirrorLag  Consistency = "mirror_lag"
)

// PendingLeave is a pending record together with its owner.
type PendingLeave struct {
	EmployeeEmail string
	EmployeeName  string
	Record        LeaveRecord
}
