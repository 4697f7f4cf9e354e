package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Reference prefixes shown to employees and payroll staff
const (
	disputeRefPrefix = "DSP-"
	claimRefPrefix   = "CLM-"
	refundRefPrefix  = "RFD-"
)

// PayrollService manages disputes, reimbursement claims and refunds
type PayrollService struct {
	disputes domain.PayrollDisputeRepository
	claims   domain.ReimbursementClaimRepository
	refunds  domain.RefundRepository
	receipts domain.ReceiptStore
	now      func() time.Time
}

// NewPayrollService creates a new payroll service. receipts may be nil when no
// object store is configured; receipt uploads then fail.
func NewPayrollService(
	disputes domain.PayrollDisputeRepository,
	claims domain.ReimbursementClaimRepository,
	refunds domain.RefundRepository,
	receipts domain.ReceiptStore,
) *PayrollService {
	return &PayrollService{
		disputes: disputes,
		claims:   claims,
		refunds:  refunds,
		receipts: receipts,
		now:      time.Now,
	}
}

// --- Disputes ---

// CreateDisputeInput is what an employee submits
type CreateDisputeInput struct {
	PayslipID   string `json:"payslipId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

func (s *PayrollService) CreateDispute(ctx context.Context, employeeID string, in CreateDisputeInput) (*domain.PayrollDispute, error) {
	dispute := &domain.PayrollDispute{
		Reference:   disputeRefPrefix + ulid.Make().String(),
		EmployeeID:  employeeID,
		PayslipID:   in.PayslipID,
		Reason:      strings.TrimSpace(in.Reason),
		Description: in.Description,
		Status:      domain.DisputeStatusPending,
	}
	if err := dispute.Validate(); err != nil {
		return nil, err
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}
	return dispute, nil
}

func (s *PayrollService) ListDisputes(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.PayrollDispute, error) {
	if filter.Status != "" && !domain.DisputeStatus(filter.Status).Valid() {
		return nil, statusError(filter.Status)
	}
	return s.disputes.List(ctx, filter)
}

func (s *PayrollService) ReviewDispute(ctx context.Context, id string, review domain.DisputeReview) (*domain.PayrollDispute, error) {
	if !review.Status.Valid() {
		return nil, statusError(string(review.Status))
	}
	return s.disputes.ApplyReview(ctx, id, review)
}

// --- Reimbursement claims ---

// CreateClaimInput is what an employee submits
type CreateClaimInput struct {
	ExpenseType string          `json:"expenseType"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       string          `json:"notes"`
}

func (s *PayrollService) CreateClaim(ctx context.Context, employeeID string, in CreateClaimInput) (*domain.ReimbursementClaim, error) {
	claim := &domain.ReimbursementClaim{
		Reference:   claimRefPrefix + ulid.Make().String(),
		EmployeeID:  employeeID,
		ExpenseType: strings.TrimSpace(in.ExpenseType),
		Amount:      in.Amount,
		Notes:       in.Notes,
		Status:      domain.ClaimStatusPending,
	}
	if err := claim.Validate(); err != nil {
		return nil, err
	}
	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

func (s *PayrollService) ListClaims(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.ReimbursementClaim, error) {
	if filter.Status != "" && !domain.ClaimStatus(filter.Status).Valid() {
		return nil, statusError(filter.Status)
	}
	return s.claims.List(ctx, filter)
}

func (s *PayrollService) ReviewClaim(ctx context.Context, id string, review domain.ClaimReview) (*domain.ReimbursementClaim, error) {
	if !review.Status.Valid() {
		return nil, statusError(string(review.Status))
	}
	return s.claims.ApplyReview(ctx, id, review)
}

// AttachReceipt uploads a receipt for a claim owned by employeeID and records its URL.
func (s *PayrollService) AttachReceipt(ctx context.Context, employeeID, claimID string, file []byte, filename, contentType string) (*domain.ReimbursementClaim, error) {
	if s.receipts == nil {
		return nil, fmt.Errorf("receipt storage is not configured")
	}

	claim, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.EmployeeID != employeeID {
		return nil, domain.ErrForbidden
	}

	key := fmt.Sprintf("receipts/%s/%s/%s%s", employeeID, claimID, ulid.Make().String(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.receipts.Upload(ctx, file, key, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.claims.SetReceiptURL(ctx, claimID, url); err != nil {
		return nil, err
	}

	claim.ReceiptURL = url
	return claim, nil
}

// --- Refunds ---

// CreateRefundInput is what payroll staff submit
type CreateRefundInput struct {
	EmployeeID       string          `json:"employeeId"`
	RelatedDisputeID string          `json:"relatedDisputeId"`
	RelatedClaimID   string          `json:"relatedClaimId"`
	Amount           decimal.Decimal `json:"amount"`
}

// CreateRefund records a pending refund. A related dispute or claim must
// belong to the same employee.
func (s *PayrollService) CreateRefund(ctx context.Context, in CreateRefundInput) (*domain.Refund, error) {
	refund := &domain.Refund{
		Reference:        refundRefPrefix + ulid.Make().String(),
		EmployeeID:       in.EmployeeID,
		RelatedDisputeID: in.RelatedDisputeID,
		RelatedClaimID:   in.RelatedClaimID,
		Amount:           in.Amount,
		Status:           domain.RefundStatusPending,
	}
	if err := refund.Validate(); err != nil {
		return nil, err
	}

	if refund.RelatedDisputeID != "" {
		dispute, err := s.disputes.GetByID(ctx, refund.RelatedDisputeID)
		if err := relatedCheck(err, "relatedDisputeId", dispute != nil && dispute.EmployeeID == refund.EmployeeID); err != nil {
			return nil, err
		}
	}
	if refund.RelatedClaimID != "" {
		claim, err := s.claims.GetByID(ctx, refund.RelatedClaimID)
		if err := relatedCheck(err, "relatedClaimId", claim != nil && claim.EmployeeID == refund.EmployeeID); err != nil {
			return nil, err
		}
	}

	if err := s.refunds.Create(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *PayrollService) ListRefunds(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.Refund, error) {
	if filter.Status != "" && !domain.RefundStatus(filter.Status).Valid() {
		return nil, statusError(filter.Status)
	}
	return s.refunds.List(ctx, filter)
}

// UpdateRefundStatus moves a refund to status; Processed also stamps who and when.
func (s *PayrollService) UpdateRefundStatus(ctx context.Context, id string, status domain.RefundStatus, actorID string) (*domain.Refund, error) {
	if !status.Valid() {
		return nil, statusError(string(status))
	}

	update := domain.RefundUpdate{Status: status}
	if status == domain.RefundStatusProcessed {
		now := s.now()
		update.ProcessedBy = actorID
		update.ProcessedAt = &now
	}
	return s.refunds.ApplyUpdate(ctx, id, update)
}

// --- Self-service summary ---

// PayrollSummary counts an employee's documents per status
type PayrollSummary struct {
	Disputes map[string]int `json:"disputes"`
	Claims   map[string]int `json:"claims"`
	Refunds  map[string]int `json:"refunds"`
}

// Summary loads the three collections concurrently.
func (s *PayrollService) Summary(ctx context.Context, employeeID string) (*PayrollSummary, error) {
	filter := domain.PayrollListFilter{EmployeeID: employeeID}
	summary := &PayrollSummary{
		Disputes: map[string]int{},
		Claims:   map[string]int{},
		Refunds:  map[string]int{},
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		disputes, err := s.disputes.List(gCtx, filter)
		if err != nil {
			return err
		}
		for _, d := range disputes {
			summary.Disputes[string(d.Status)]++
		}
		return nil
	})

	g.Go(func() error {
		claims, err := s.claims.List(gCtx, filter)
		if err != nil {
			return err
		}
		for _, c := range claims {
			summary.Claims[string(c.Status)]++
		}
		return nil
	})

	g.Go(func() error {
		refunds, err := s.refunds.List(gCtx, filter)
		if err != nil {
			return err
		}
		for _, r := range refunds {
			summary.Refunds[string(r.Status)]++
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build payroll summary: %w", err)
	}
	return summary, nil
}

func statusError(status string) error {
	v := &domain.ValidationError{}
	v.Add("status", fmt.Sprintf("unknown status %q", status))
	return v
}

func relatedCheck(lookupErr error, field string, sameEmployee bool) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, domain.ErrNotFound) || errors.Is(lookupErr, domain.ErrInvalidID) {
			v := &domain.ValidationError{}
			v.Add(field, field+" does not exist")
			return v
		}
		return lookupErr
	}
	if !sameEmployee {
		v := &domain.ValidationError{}
		v.Add(field, field+" belongs to another employee")
		return v
	}
	return nil
}
