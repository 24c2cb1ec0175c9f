package leave

import "time"

type SubmitLeaveRequest struct {
	LeaveType string `json:"leave_type" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

// ReviewLeaveRequest carries the decision and, optionally, the version the
// reviewer saw. A stale version is rejected with CONFLICT.
type ReviewLeaveRequest struct {
	Decision string `json:"decision" binding:"required"`
	Version  *int64 `json:"version"`
}

type LeaveResponse struct {
	LeaveID    string     `json:"leave_id"`
	LeaveType  string     `json:"leave_type"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Reason     string     `json:"reason"`
	AppliedAt  time.Time  `json:"applied_at"`
	Status     string     `json:"status"`
	Version    int64      `json:"version"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

type PendingLeaveResponse struct {
	EmployeeEmail string        `json:"employee_email"`
	EmployeeName  string        `json:"employee_name,omitempty"`
	Leave         LeaveResponse `json:"leave"`
}

// LeaveResult is returned by every mutation so callers can tell a fully
// consistent write from one whose admin mirror lags.
type LeaveResult struct {
	Leave       LeaveResponse `json:"leave"`
	Consistency Consistency   `json:"consistency"`
}

func mapToResponse(r LeaveRecord) LeaveResponse {
	return LeaveResponse{
		LeaveID:    r.LeaveID,
		LeaveType:  string(r.LeaveType),
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Reason:     r.Reason,
		AppliedAt:  r.AppliedAt,
		Status:     string(r.Status),
		Version:    r.Version,
		ReviewedBy: r.ReviewedBy,
		ReviewedAt: r.ReviewedAt,
	}
}

func mapToListResponse(records []LeaveRecord) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(records))
	for _, r := range records {
		out = append(out, mapToResponse(r))
	}
	return out
}

func mapToPendingResponse(items []PendingLeave) []PendingLeaveResponse {
	out := make([]PendingLeaveResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PendingLeaveResponse{
			EmployeeEmail: p.EmployeeEmail,
			EmployeeName:  p.EmployeeName,
			Leave:         mapToResponse(p.Record),
		})
	}
	return out
}
