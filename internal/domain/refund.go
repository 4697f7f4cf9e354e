package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RefundStatus of a refund
type RefundStatus string

const (
	RefundStatusPending            RefundStatus = "Pending"
	RefundStatusProcessed          RefundStatus = "Processed"
	RefundStatusAddedToNextPayroll RefundStatus = "AddedToNextPayroll"
)

func (s RefundStatus) Valid() bool {
	switch s {
	case RefundStatusPending, RefundStatusProcessed, RefundStatusAddedToNextPayroll:
		return true
	}
	return false
}

// Refund repays an employee after an approved dispute or claim.
type Refund struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	EmployeeID       string          `json:"employeeId"`
	RelatedDisputeID string          `json:"relatedDisputeId,omitempty"`
	RelatedClaimID   string          `json:"relatedClaimId,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Status           RefundStatus    `json:"status"`
	ProcessedBy      string          `json:"processedBy,omitempty"`
	ProcessedAt      *time.Time      `json:"processedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (r *Refund) Validate() error {
	v := &ValidationError{}
	requireObjectID(v, "employeeId", r.EmployeeID)
	optionalObjectID(v, "relatedDisputeId", r.RelatedDisputeID)
	optionalObjectID(v, "relatedClaimId", r.RelatedClaimID)
	requireAmount(v, "amount", r.Amount)
	if r.Status != "" && !r.Status.Valid() {
		v.Add("status", "status must be one of Pending, Processed, AddedToNextPayroll")
	}
	return v.OrNil()
}

// RefundUpdate moves a refund to a new status. ProcessedBy/At are set by the service.
type RefundUpdate struct {
	Status      RefundStatus
	ProcessedBy string
	ProcessedAt *time.Time
}

type RefundRepository interface {
	Create(ctx context.Context, refund *Refund) error
	GetByID(ctx context.Context, id string) (*Refund, error)
	List(ctx context.Context, filter PayrollListFilter) ([]*Refund, error)
	ApplyUpdate(ctx context.Context, id string, update RefundUpdate) (*Refund, error)
}

