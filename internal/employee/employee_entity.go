package employee

import (
	"time"

	"go-ems/internal/leave"
)

// Profile is the employee document. The same shape is stored in the
// authoritative employee view and in the admin mirror, keyed by the
// normalized email.
type Profile struct {
	ID           string              `bson:"_id"`
	Name         string              `bson:"name"`
	Email        string              `bson:"email"`
	Work         string              `bson:"work"`
	Salary       float64             `bson:"salary"`
	Phone        string              `bson:"phone"`
	Address      string              `bson:"address"`
	Project      string              `bson:"project"`
	LeaveRecords []leave.LeaveRecord `bson:"leaveRecords"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

// ProfileFields are the scalar fields an admin may change. Leave records are
// owned by the leave module and never touched here.
type ProfileFields struct {
	Name    string
	Work    string
	Salary  float64
	Phone   string
	Address string
	Project string
}
