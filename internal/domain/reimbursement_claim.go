package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ClaimStatus of a reimbursement claim
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "Pending"
	ClaimStatusApproved ClaimStatus = "Approved"
	ClaimStatusRejected ClaimStatus = "Rejected"
	ClaimStatusPaid     ClaimStatus = "Paid"
)

func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimStatusPending, ClaimStatusApproved, ClaimStatusRejected, ClaimStatusPaid:
		return true
	}
	return false
}

// ReimbursementClaim is an out-of-pocket expense the employee wants repaid.
type ReimbursementClaim struct {
	ID                    string          `json:"id"`
	Reference             string          `json:"reference"`
	EmployeeID            string          `json:"employeeId"`
	ExpenseType           string          `json:"expenseType"` // e.g. Travel, Supplies
	Amount                decimal.Decimal `json:"amount"`
	ReceiptURL            string          `json:"receiptUrl,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	Status                ClaimStatus     `json:"status"`
	PayrollManagerComment string          `json:"payrollManagerComment,omitempty"`
	FinanceComment        string          `json:"financeComment,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func (c *ReimbursementClaim) Validate() error {
	v := &ValidationError{}
	requireObjectID(v, "employeeId", c.EmployeeID)
	requireText(v, "expenseType", c.ExpenseType)
	requireAmount(v, "amount", c.Amount)
	if c.Status != "" && !c.Status.Valid() {
		v.Add("status", "status must be one of Pending, Approved, Rejected, Paid")
	}
	return v.OrNil()
}

// ClaimReview is a reviewer's status change plus comments.
type ClaimReview struct {
	Status                ClaimStatus `json:"status"`
	PayrollManagerComment string      `json:"payrollManagerComment,omitempty"`
	FinanceComment        string      `json:"financeComment,omitempty"`
}

type ReimbursementClaimRepository interface {
	Create(ctx context.Context, claim *ReimbursementClaim) error
	GetByID(ctx context.Context, id string) (*ReimbursementClaim, error)
	List(ctx context.Context, filter PayrollListFilter) ([]*ReimbursementClaim, error)
	ApplyReview(ctx context.Context, id string, review ClaimReview) (*ReimbursementClaim, error)
	SetReceiptURL(ctx context.Context, id string, url string) error
}
