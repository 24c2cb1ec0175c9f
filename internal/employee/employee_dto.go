package employee

import (
	"time"

	"go-ems/internal/leave"
)

type OnboardEmployeeRequest struct {
	Name    string  `json:"name" binding:"required,alphaspace,min=3,max=50"`
	Email   string  `json:"email" binding:"required,email"`
	Work    string  `json:"work" binding:"required,min=2,max=100"`
	Salary  float64 `json:"salary" binding:"required,gt=0"`
	Phone   string  `json:"phone" binding:"required,len=10,numeric"`
	Address string  `json:"address" binding:"required,min=10,max=200"`
	Project string  `json:"project" binding:"required,min=3,max=50"`
	// Hint seeds the initial password, name@hint.
	Hint string `json:"hint" binding:"required,min=3,max=20"`
}

type UpdateEmployeeRequest struct {
	Name    string  `json:"name" binding:"required,alphaspace,min=3,max=50"`
	Work    string  `json:"work" binding:"required,min=2,max=100"`
	Salary  float64 `json:"salary" binding:"required,gt=0"`
	Phone   string  `json:"phone" binding:"required,len=10,numeric"`
	Address string  `json:"address" binding:"required,min=10,max=200"`
	Project string  `json:"project" binding:"required,min=3,max=50"`
}

type EmployeeResponse struct {
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Work       string    `json:"work,omitempty"`
	Salary     float64   `json:"salary,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Address    string    `json:"address,omitempty"`
	Project    string    `json:"project,omitempty"`
	LeaveCount int       `json:"leave_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// EmployeeResult pairs a written profile with the state of its admin mirror.
type EmployeeResult struct {
	Employee    EmployeeResponse  `json:"employee"`
	Consistency leave.Consistency `json:"consistency"`
}

func (r UpdateEmployeeRequest) fields() ProfileFields {
	return ProfileFields{
		Name:    r.Name,
		Work:    r.Work,
		Salary:  r.Salary,
		Phone:   r.Phone,
		Address: r.Address,
		Project: r.Project,
	}
}

func mapToResponse(p Profile) EmployeeResponse {
	return EmployeeResponse{
		Email:      p.Email,
		Name:       p.Name,
		Work:       p.Work,
		Salary:     p.Salary,
		Phone:      p.Phone,
		Address:    p.Address,
		Project:    p.Project,
		LeaveCount: len(p.LeaveRecords),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func mapToListResponse(profiles []Profile) []EmployeeResponse {
	res := make([]EmployeeResponse, len(profiles))
	for i, p := range profiles {
		res[i] = mapToResponse(p)
	}
	return res
}
