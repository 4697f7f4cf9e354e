package service

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/config"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	profiles *memProfiles
	roles    *memRoles
	tokens   *TokenService
}

func newAuthFixture() *authFixture {
	profiles := newMemProfiles()
	roles := &memRoles{}
	tokens := NewTokenService(config.JWTConfig{Secret: "test-secret", Expiry: time.Hour})
	return &authFixture{
		svc:      NewAuthService(profiles, roles, NewPasswordHasher(bcrypt.MinCost), tokens),
		profiles: profiles,
		roles:    roles,
		tokens:   tokens,
	}
}

func anaLee() domain.RegisterRequest {
	return domain.RegisterRequest{
		FirstName:      "Ana",
		LastName:       "Lee",
		NationalID:     "N1",
		Password:       "secret1",
		EmployeeNumber: "E1",
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, anaLee())
	require.NoError(t, err)
	assert.NotEmpty(t, registered.EmployeeID)
	assert.Equal(t, "N1", registered.NationalID)
	assert.Equal(t, []string{"DEPARTMENT_EMPLOYEE"}, registered.Roles)
	assert.Empty(t, registered.Permissions)

	stored, err := f.profiles.GetByNationalID(ctx, "N1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lee", stored.FullName)
	assert.Equal(t, domain.EmployeeStatusActive, stored.Status)
	assert.False(t, stored.DateOfHire.IsZero())
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	again := anaLee()
	again.EmployeeNumber = "E2"
	_, err = f.svc.Register(ctx, again)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	_, err = f.svc.ValidateUser(ctx, "N1", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	principal, err := f.svc.ValidateUser(ctx, "N1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.EmployeeID, principal.EmployeeID)

	result, err := f.svc.Login(principal)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, []string{"DEPARTMENT_EMPLOYEE"}, result.User.Roles)

	claims, err := f.tokens.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.EmployeeID, claims.Subject)
	assert.Equal(t, "N1", claims.NationalID)
	assert.Equal(t, []string{"DEPARTMENT_EMPLOYEE"}, claims.Roles)
}

func TestAuthService_RegisterDuplicateEmployeeNumber(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	_, err := f.svc.Register(ctx, anaLee())
	require.NoError(t, err)

	other := anaLee()
	other.NationalID = "N2"
	_, err = f.svc.Register(ctx, other)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	count, _ := f.profiles.Count(ctx)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture()

	req := anaLee()
	req.Password = "12345"
	_, err := f.svc.Register(context.Background(), req)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Password must be at least 6 characters long", verr.Fields["password"])

	count, _ := f.profiles.Count(context.Background())
	assert.Zero(t, count)
}

func TestAuthService_RegisterLookupFailure(t *testing.T) {
	f := newAuthFixture()
	f.profiles.failFind = errStoreDown

	_, err := f.svc.Register(context.Background(), anaLee())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestAuthService_RegisterRollsBackWhenRoleWriteFails(t *testing.T) {
	f := newAuthFixture()
	f.roles.failCreate = errStoreDown
	ctx := context.Background()

	_, err := f.svc.Register(ctx, anaLee())
	assert.ErrorIs(t, err, errStoreDown)

	count, _ := f.profiles.Count(ctx)
	assert.Zero(t, count)

	// identifiers are free again
	f.roles.failCreate = nil
	_, err = f.svc.Register(ctx, anaLee())
	assert.NoError(t, err)
}

func TestAuthService_ValidateUser(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, anaLee())
	require.NoError(t, err)

	// record without a password hash, as imported by HR tooling
	require.NoError(t, f.profiles.Create(ctx, &domain.EmployeeProfile{NationalID: "N9", EmployeeNumber: "E9"}))

	tests := []struct {
		name       string
		nationalID string
		password   string
	}{
		{name: "unknown national id", nationalID: "nobody", password: "secret1"},
		{name: "wrong password", nationalID: "N1", password: "secret2"},
		{name: "no stored hash", nationalID: "N9", password: "anything"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.svc.ValidateUser(ctx, tt.nationalID, tt.password)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		})
	}
}

func TestAuthService_RegisterLongPassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	req := anaLee()
	req.Password = strings.Repeat("a", 73)
	_, err := f.svc.Register(ctx, req)
	require.NoError(t, err)

	principal, err := f.svc.ValidateUser(ctx, "N1", req.Password)
	require.NoError(t, err)
	assert.Equal(t, "N1", principal.NationalID)
}

func TestAuthService_RegisterWhitespacePassword(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	req := anaLee()
	req.Password = "      "
	_, err := f.svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.ValidateUser(ctx, "N1", "      ")
	assert.NoError(t, err)
}

// Unknown identities go through a hash comparison like wrong passwords do,
// so with every hash slot taken both paths block until ctx is done.
func TestAuthService_ValidateUserHashesForUnknownIdentity(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.Register(context.Background(), anaLee())
	require.NoError(t, err)

	slots := int64(runtime.GOMAXPROCS(0))
	require.NoError(t, f.svc.hasher.sem.Acquire(context.Background(), slots))
	defer f.svc.hasher.sem.Release(slots)

	for _, nationalID := range []string{"N1", "nobody"} {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := f.svc.ValidateUser(ctx, nationalID, "wrong-password")
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded, nationalID)
	}
}

func TestAuthService_MissingRoleAssignmentMeansNoRoles(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	hash, err := NewPasswordHasher(bcrypt.MinCost).Hash(ctx, "secret1")
	require.NoError(t, err)
	require.NoError(t, f.profiles.Create(ctx, &domain.EmployeeProfile{NationalID: "N5", EmployeeNumber: "E5", PasswordHash: hash}))

	p, err := f.svc.ValidateUser(ctx, "N5", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, p.Roles)
	assert.Equal(t, []string{}, p.Permissions)

	result, err := f.svc.Login(p)
	require.NoError(t, err)
	claims, err := f.tokens.Parse(result.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.Roles)
}

func TestAuthService_RolesComeFromCurrentAssignment(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	registered, err := f.svc.Register(ctx, anaLee())
	require.NoError(t, err)

	require.NoError(t, f.roles.SetRoles(ctx, registered.EmployeeID,
		[]domain.SystemRole{domain.RolePayrollManager, domain.RoleHRManager}, []string{"payroll:approve"}))

	p, err := f.svc.ValidateUser(ctx, "N1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, []string{"PAYROLL_MANAGER", "HR_MANAGER"}, p.Roles)
	assert.Equal(t, []string{"payroll:approve"}, p.Permissions)

	again, err := f.svc.GetPrincipal(ctx, registered.EmployeeID)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestAuthService_GetPrincipalUnknown(t *testing.T) {
	f := newAuthFixture()
	_, err := f.svc.GetPrincipal(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
