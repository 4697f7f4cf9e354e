package handler

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/mansoorceksport/payroll-backoffice/internal/middleware"
	"github.com/mansoorceksport/payroll-backoffice/internal/service"
	"github.com/mansoorceksport/payroll-backoffice/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// PayrollManager is the payroll surface the handler needs
type PayrollManager interface {
	CreateDispute(ctx context.Context, employeeID string, in service.CreateDisputeInput) (*domain.PayrollDispute, error)
	ListDisputes(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.PayrollDispute, error)
	ReviewDispute(ctx context.Context, id string, review domain.DisputeReview) (*domain.PayrollDispute, error)

	CreateClaim(ctx context.Context, employeeID string, in service.CreateClaimInput) (*domain.ReimbursementClaim, error)
	ListClaims(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.ReimbursementClaim, error)
	ReviewClaim(ctx context.Context, id string, review domain.ClaimReview) (*domain.ReimbursementClaim, error)
	AttachReceipt(ctx context.Context, employeeID, claimID string, file []byte, filename, contentType string) (*domain.ReimbursementClaim, error)

	CreateRefund(ctx context.Context, in service.CreateRefundInput) (*domain.Refund, error)
	ListRefunds(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.Refund, error)
	UpdateRefundStatus(ctx context.Context, id string, status domain.RefundStatus, actorID string) (*domain.Refund, error)

	Summary(ctx context.Context, employeeID string) (*service.PayrollSummary, error)
}

// PayrollHandler serves self-service (/v1/me) and back-office (/v1/payroll) payroll routes
type PayrollHandler struct {
	payroll     PayrollManager
	maxUploadMB int64
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(payroll PayrollManager, maxUploadMB int64) *PayrollHandler {
	return &PayrollHandler{
		payroll:     payroll,
		maxUploadMB: maxUploadMB,
	}
}

// --- /v1/me ---

// CreateMyDispute handles POST /v1/me/disputes
func (h *PayrollHandler) CreateMyDispute(c *fiber.Ctx) error {
	var in service.CreateDisputeInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	dispute, err := h.payroll.CreateDispute(c.UserContext(), middleware.EmployeeID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": dispute})
}

// ListMyDisputes handles GET /v1/me/disputes
func (h *PayrollHandler) ListMyDisputes(c *fiber.Ctx) error {
	disputes, err := h.payroll.ListDisputes(c.UserContext(), h.ownFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, disputes)
}

// CreateMyClaim handles POST /v1/me/claims
func (h *PayrollHandler) CreateMyClaim(c *fiber.Ctx) error {
	var in service.CreateClaimInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	claim, err := h.payroll.CreateClaim(c.UserContext(), middleware.EmployeeID(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": claim})
}

// ListMyClaims handles GET /v1/me/claims
func (h *PayrollHandler) ListMyClaims(c *fiber.Ctx) error {
	claims, err := h.payroll.ListClaims(c.UserContext(), h.ownFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, claims)
}

// UploadReceipt handles POST /v1/me/claims/:id/receipt
func (h *PayrollHandler) UploadReceipt(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		return badRequest("missing 'receipt' field in form data")
	}

	maxBytes := h.maxUploadMB * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return badRequest(fmt.Sprintf("file size exceeds maximum of %dMB", h.maxUploadMB))
	}

	contentType, ok := receiptContentType(fileHeader)
	if !ok {
		return badRequest("invalid file type, only JPEG, PNG and PDF receipts are allowed")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read uploaded file: %w", err)
	}

	telemetry.SetSpanAttribute(c, "claim.id", c.Params("id"))
	telemetry.AddSpanEvent(c, "receipt.received",
		attribute.String("content_type", contentType),
		attribute.Int64("size_bytes", fileHeader.Size))

	claim, err := h.payroll.AttachReceipt(c.UserContext(), middleware.EmployeeID(c), c.Params("id"), data, fileHeader.Filename, contentType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": claim})
}

// ListMyRefunds handles GET /v1/me/refunds
func (h *PayrollHandler) ListMyRefunds(c *fiber.Ctx) error {
	refunds, err := h.payroll.ListRefunds(c.UserContext(), h.ownFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, refunds)
}

// MySummary handles GET /v1/me/payroll-summary
func (h *PayrollHandler) MySummary(c *fiber.Ctx) error {
	summary, err := h.payroll.Summary(c.UserContext(), middleware.EmployeeID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": summary})
}

// --- /v1/payroll ---

// ListDisputes handles GET /v1/payroll/disputes
func (h *PayrollHandler) ListDisputes(c *fiber.Ctx) error {
	disputes, err := h.payroll.ListDisputes(c.UserContext(), staffFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, disputes)
}

// ReviewDispute handles PATCH /v1/payroll/disputes/:id
func (h *PayrollHandler) ReviewDispute(c *fiber.Ctx) error {
	var review domain.DisputeReview
	if err := c.BodyParser(&review); err != nil {
		return badRequest("invalid request body")
	}

	dispute, err := h.payroll.ReviewDispute(c.UserContext(), c.Params("id"), review)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dispute})
}

// ListClaims handles GET /v1/payroll/claims
func (h *PayrollHandler) ListClaims(c *fiber.Ctx) error {
	claims, err := h.payroll.ListClaims(c.UserContext(), staffFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, claims)
}

// ReviewClaim handles PATCH /v1/payroll/claims/:id
func (h *PayrollHandler) ReviewClaim(c *fiber.Ctx) error {
	var review domain.ClaimReview
	if err := c.BodyParser(&review); err != nil {
		return badRequest("invalid request body")
	}

	claim, err := h.payroll.ReviewClaim(c.UserContext(), c.Params("id"), review)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": claim})
}

// CreateRefund handles POST /v1/payroll/refunds
func (h *PayrollHandler) CreateRefund(c *fiber.Ctx) error {
	var in service.CreateRefundInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	refund, err := h.payroll.CreateRefund(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": refund})
}

// ListRefunds handles GET /v1/payroll/refunds
func (h *PayrollHandler) ListRefunds(c *fiber.Ctx) error {
	refunds, err := h.payroll.ListRefunds(c.UserContext(), staffFilter(c))
	if err != nil {
		return err
	}
	return listResponse(c, refunds)
}

// UpdateRefund handles PATCH /v1/payroll/refunds/:id
func (h *PayrollHandler) UpdateRefund(c *fiber.Ctx) error {
	var body struct {
		Status domain.RefundStatus `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest("invalid request body")
	}

	refund, err := h.payroll.UpdateRefundStatus(c.UserContext(), c.Params("id"), body.Status, middleware.EmployeeID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": refund})
}

// Self-service lists are always scoped to the caller.
func (h *PayrollHandler) ownFilter(c *fiber.Ctx) domain.PayrollListFilter {
	return domain.PayrollListFilter{
		EmployeeID: middleware.EmployeeID(c),
		Status:     c.Query("status"),
	}
}

func staffFilter(c *fiber.Ctx) domain.PayrollListFilter {
	return domain.PayrollListFilter{
		EmployeeID: c.Query("employeeId"),
		Status:     c.Query("status"),
	}
}

func listResponse[T any](c *fiber.Ctx, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"count":   len(items),
	})
}

// receiptContentType accepts JPEG, PNG and PDF by declared type or extension.
func receiptContentType(file *multipart.FileHeader) (string, bool) {
	switch ct := file.Header.Get("Content-Type"); ct {
	case "image/jpeg", "image/png", "application/pdf":
		return ct, true
	case "image/jpg":
		return "image/jpeg", true
	}

	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", true
	case ".png":
		return "image/png", true
	case ".pdf":
		return "application/pdf", true
	}
	return "", false
}
