package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories mirroring the unique-index and not-found behavior of the mongo ones.

type memProfiles struct {
	mu       sync.Mutex
	byID     map[string]*domain.EmployeeProfile
	failFind error
}

func newMemProfiles() *memProfiles {
	return &memProfiles{byID: map[string]*domain.EmployeeProfile{}}
}

func (m *memProfiles) Create(_ context.Context, p *domain.EmployeeProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.NationalID == p.NationalID || existing.EmployeeNumber == p.EmployeeNumber {
			return domain.ErrDuplicateIdentity
		}
	}
	p.ID = primitive.NewObjectID().Hex()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) GetByNationalID(_ context.Context, nationalID string) (*domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.NationalID == nationalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) FindByNationalIDOrEmployeeNumber(_ context.Context, nationalID, employeeNumber string) (*domain.EmployeeProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind != nil {
		return nil, m.failFind
	}
	for _, p := range m.byID {
		if p.NationalID == nationalID || p.EmployeeNumber == employeeNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memProfiles) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memProfiles) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

type memRoles struct {
	mu          sync.Mutex
	assignments []*domain.EmployeeSystemRole
	failCreate  error
}

func (m *memRoles) Create(_ context.Context, a *domain.EmployeeSystemRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	a.ID = primitive.NewObjectID().Hex()
	cp := *a
	m.assignments = append(m.assignments, &cp)
	return nil
}

func (m *memRoles) GetActiveByEmployeeID(_ context.Context, employeeID string) (*domain.EmployeeSystemRole, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.EmployeeProfileID == employeeID && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRoles) SetRoles(_ context.Context, employeeID string, roles []domain.SystemRole, permissions []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.EmployeeProfileID == employeeID && a.IsActive {
			a.Roles = roles
			a.Permissions = permissions
			return nil
		}
	}
	m.assignments = append(m.assignments, &domain.EmployeeSystemRole{
		ID:                primitive.NewObjectID().Hex(),
		EmployeeProfileID: employeeID,
		Roles:             roles,
		Permissions:       permissions,
		IsActive:          true,
	})
	return nil
}

type memDisputes struct {
	mu   sync.Mutex
	rows []*domain.PayrollDispute
	err  error
}

func (m *memDisputes) Create(_ context.Context, d *domain.PayrollDispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = primitive.NewObjectID().Hex()
	cp := *d
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memDisputes) GetByID(_ context.Context, id string) (*domain.PayrollDispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memDisputes) List(_ context.Context, f domain.PayrollListFilter) ([]*domain.PayrollDispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.PayrollDispute
	for _, d := range m.rows {
		if matches(f, d.EmployeeID, string(d.Status)) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memDisputes) ApplyReview(_ context.Context, id string, r domain.DisputeReview) (*domain.PayrollDispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.rows {
		if d.ID == id {
			d.Status = r.Status
			if r.HRComment != "" {
				d.HRComment = r.HRComment
			}
			if r.PayrollManagerComment != "" {
				d.PayrollManagerComment = r.PayrollManagerComment
			}
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memClaims struct {
	mu   sync.Mutex
	rows []*domain.ReimbursementClaim
}

func (m *memClaims) Create(_ context.Context, c *domain.ReimbursementClaim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID().Hex()
	cp := *c
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memClaims) GetByID(_ context.Context, id string) (*domain.ReimbursementClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClaims) List(_ context.Context, f domain.PayrollListFilter) ([]*domain.ReimbursementClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ReimbursementClaim
	for _, c := range m.rows {
		if matches(f, c.EmployeeID, string(c.Status)) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memClaims) ApplyReview(_ context.Context, id string, r domain.ClaimReview) (*domain.ReimbursementClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			c.Status = r.Status
			if r.PayrollManagerComment != "" {
				c.PayrollManagerComment = r.PayrollManagerComment
			}
			if r.FinanceComment != "" {
				c.FinanceComment = r.FinanceComment
			}
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memClaims) SetReceiptURL(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ID == id {
			c.ReceiptURL = url
			return nil
		}
	}
	return domain.ErrNotFound
}

type memRefunds struct {
	mu   sync.Mutex
	rows []*domain.Refund
}

func (m *memRefunds) Create(_ context.Context, r *domain.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = primitive.NewObjectID().Hex()
	cp := *r
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRefunds) GetByID(_ context.Context, id string) (*domain.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memRefunds) List(_ context.Context, f domain.PayrollListFilter) ([]*domain.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Refund
	for _, r := range m.rows {
		if matches(f, r.EmployeeID, string(r.Status)) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRefunds) ApplyUpdate(_ context.Context, id string, u domain.RefundUpdate) (*domain.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			r.Status = u.Status
			if u.ProcessedBy != "" {
				r.ProcessedBy = u.ProcessedBy
				r.ProcessedAt = u.ProcessedAt
			}
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memReceipts struct {
	keys []string
	err  error
}

func (m *memReceipts) Upload(_ context.Context, _ []byte, key, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "http://receipts.local/" + key, nil
}

func matches(f domain.PayrollListFilter, employeeID, status string) bool {
	if f.EmployeeID != "" && f.EmployeeID != employeeID {
		return false
	}
	if f.Status != "" && f.Status != status {
		return false
	}
	return true
}

var errStoreDown = errors.New("store unavailable")
