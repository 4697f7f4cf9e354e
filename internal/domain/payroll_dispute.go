package domain

import (
	"context"
	"time"
)

// DisputeStatus of a payroll dispute
type DisputeStatus string

const (
	DisputeStatusPending  DisputeStatus = "Pending"
	DisputeStatusApproved DisputeStatus = "Approved"
	DisputeStatusRejected DisputeStatus = "Rejected"
)

// Valid reports enum membership.
func (s DisputeStatus) Valid() bool {
	switch s {
	case DisputeStatusPending, DisputeStatusApproved, DisputeStatusRejected:
		return true
	}
	return false
}

// PayrollDispute is an employee's objection to a payslip.
type PayrollDispute struct {
	ID                    string        `bson:"_id,omitempty" json:"id"`
	Reference             string        `bson:"reference" json:"reference"`
	EmployeeID            string        `bson:"employee_id" json:"employeeId"`
	PayslipID             string        `bson:"payslip_id" json:"payslipId"`
	Reason                string        `bson:"reason" json:"reason"`
	Description           string        `bson:"description,omitempty" json:"description,omitempty"`
	Status                DisputeStatus `bson:"status" json:"status"`
	HRComment             string        `bson:"hr_comment,omitempty" json:"hrComment,omitempty"`
	PayrollManagerComment string        `bson:"payroll_manager_comment,omitempty" json:"payrollManagerComment,omitempty"`
	CreatedAt             time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time     `bson:"updated_at" json:"updatedAt"`
}

func (d *PayrollDispute) Validate() error {
	v := &ValidationError{}
	requireObjectID(v, "employeeId", d.EmployeeID)
	requireObjectID(v, "payslipId", d.PayslipID)
	requireText(v, "reason", d.Reason)
	if d.Status != "" && !d.Status.Valid() {
		v.Add("status", "status must be one of Pending, Approved, Rejected")
	}
	return v.OrNil()
}

// DisputeReview is a reviewer's status change plus comments.
// Empty comment fields leave the stored comment untouched.
type DisputeReview struct {
	Status                DisputeStatus `json:"status"`
	HRComment             string        `json:"hrComment,omitempty"`
	PayrollManagerComment string        `json:"payrollManagerComment,omitempty"`
}

// PayrollListFilter narrows list queries; empty fields match everything.
type PayrollListFilter struct {
	EmployeeID string
	Status     string
}

type PayrollDisputeRepository interface {
	Create(ctx context.Context, dispute *PayrollDispute) error
	GetByID(ctx context.Context, id string) (*PayrollDispute, error)
	List(ctx context.Context, filter PayrollListFilter) ([]*PayrollDispute, error)
	ApplyReview(ctx context.Context, id string, review DisputeReview) (*PayrollDispute, error)
}
