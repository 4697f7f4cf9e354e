package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mansoorceksport/payroll-backoffice/internal/service"

// AuthService registers employees and authenticates them by national ID + password
type AuthService struct {
	profiles domain.EmployeeProfileRepository
	roles    domain.SystemRoleRepository
	hasher   *PasswordHasher
	tokens   *TokenService
	now      func() time.Time

	loginAttempts    metric.Int64Counter
	registerAttempts metric.Int64Counter
}

// NewAuthService creates a new auth service
func NewAuthService(
	profiles domain.EmployeeProfileRepository,
	roles domain.SystemRoleRepository,
	hasher *PasswordHasher,
	tokens *TokenService,
) *AuthService {
	meter := otel.Meter(instrumentationName)
	// Counter creation only fails on invalid names; a noop counter is returned alongside the error
	loginAttempts, _ := meter.Int64Counter("auth.login.attempts",
		metric.WithDescription("Login attempts by outcome"))
	registerAttempts, _ := meter.Int64Counter("auth.register.attempts",
		metric.WithDescription("Registration attempts by outcome"))

	return &AuthService{
		profiles:         profiles,
		roles:            roles,
		hasher:           hasher,
		tokens:           tokens,
		now:              time.Now,
		loginAttempts:    loginAttempts,
		registerAttempts: registerAttempts,
	}
}

// Register creates an employee profile plus its default role assignment.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (principal *domain.Principal, err error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "AuthService.Register")
	defer func() {
		s.registerAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
		endSpan(span, err)
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.profiles.FindByNationalIDOrEmployeeNumber(ctx, req.NationalID, req.EmployeeNumber)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing identity: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	profile := &domain.EmployeeProfile{
		NationalID:     req.NationalID,
		EmployeeNumber: req.EmployeeNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		FullName:       req.FirstName + " " + req.LastName,
		PasswordHash:   hash,
		Status:         domain.EmployeeStatusActive,
		WorkEmail:      req.WorkEmail,
		PersonalEmail:  req.PersonalEmail,
		DateOfHire:     now,
	}
	// A concurrent registration that slipped past the lookup is rejected here by the unique index
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	assignment := &domain.EmployeeSystemRole{
		EmployeeProfileID: profile.ID,
		Roles:             append([]domain.SystemRole(nil), domain.DefaultRoles...),
		Permissions:       []string{},
		IsActive:          true,
	}
	if err := s.roles.Create(ctx, assignment); err != nil {
		// Undo the identity so the caller can retry with the same identifiers
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if delErr := s.profiles.Delete(cleanupCtx, profile.ID); delErr != nil {
			zerolog.Ctx(ctx).Error().Err(delErr).Str("employee_id", profile.ID).
				Msg("orphaned employee profile: role assignment and rollback both failed")
		}
		return nil, fmt.Errorf("failed to create default role: %w", err)
	}

	zerolog.Ctx(ctx).Info().Str("employee_id", profile.ID).Msg("employee registered")

	return &domain.Principal{
		EmployeeID:  profile.ID,
		NationalID:  profile.NationalID,
		Roles:       domain.RoleNames(assignment.Roles),
		Permissions: assignment.Permissions,
	}, nil
}

// ValidateUser checks a national ID + password pair and resolves the active roles.
// Unknown identities and wrong passwords both yield domain.ErrInvalidCredentials.
func (s *AuthService) ValidateUser(ctx context.Context, nationalID, password string) (principal *domain.Principal, err error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "AuthService.ValidateUser")
	defer func() {
		s.loginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
		endSpan(span, err)
	}()

	profile, err := s.profiles.GetByNationalID(ctx, nationalID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if profile == nil || profile.PasswordHash == "" {
		if burnErr := s.hasher.Burn(ctx, password); burnErr != nil {
			return nil, burnErr
		}
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(ctx, profile.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}

	return s.resolvePrincipal(ctx, profile)
}

// Login issues an access token for an already validated principal.
func (s *AuthService) Login(p *domain.Principal) (*domain.LoginResult, error) {
	token, err := s.tokens.Sign(p)
	if err != nil {
		return nil, err
	}

	view := p.View()
	if view.Roles == nil {
		view.Roles = []string{}
	}
	return &domain.LoginResult{
		AccessToken: token,
		ExpiresIn:   int64(s.tokens.Expiry().Seconds()),
		User:        view,
	}, nil
}

// GetPrincipal reloads the principal for an employee ID taken from a verified token.
func (s *AuthService) GetPrincipal(ctx context.Context, employeeID string) (*domain.Principal, error) {
	profile, err := s.profiles.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.resolvePrincipal(ctx, profile)
}

// A missing role assignment degrades to no roles rather than a failed login.
func (s *AuthService) resolvePrincipal(ctx context.Context, profile *domain.EmployeeProfile) (*domain.Principal, error) {
	principal := &domain.Principal{
		EmployeeID:  profile.ID,
		NationalID:  profile.NationalID,
		Roles:       []string{},
		Permissions: []string{},
	}

	assignment, err := s.roles.GetActiveByEmployeeID(ctx, profile.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return principal, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load role assignment: %w", err)
	}

	principal.Roles = domain.RoleNames(assignment.Roles)
	if assignment.Permissions != nil {
		principal.Permissions = assignment.Permissions
	}
	return principal, nil
}

func outcome(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid_input"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
	}
	span.End()
}
