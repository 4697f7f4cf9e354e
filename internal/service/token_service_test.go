package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/payroll-backoffice/internal/config"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrincipal() *domain.Principal {
	return &domain.Principal{
		EmployeeID:  "65f000000000000000000001",
		NationalID:  "N1",
		Roles:       []string{"DEPARTMENT_EMPLOYEE"},
		Permissions: []string{"payslip:read"},
	}
}

func TestTokenService_SignAndParse(t *testing.T) {
	issued := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := NewTokenService(config.JWTConfig{Secret: "s3cret", Expiry: 24 * time.Hour})
	svc.now = func() time.Time { return issued }

	token, err := svc.Sign(testPrincipal())
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "65f000000000000000000001", claims.Subject)
	assert.Equal(t, "N1", claims.NationalID)
	assert.Equal(t, []string{"DEPARTMENT_EMPLOYEE"}, claims.Roles)
	assert.True(t, issued.Add(24*time.Hour).Equal(claims.ExpiresAt.Time))
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_PermissionsNotEmbedded(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "s3cret", Expiry: time.Hour})
	token, err := svc.Sign(testPrincipal())
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "permissions")
	assert.Contains(t, raw, "roles")
	assert.Contains(t, raw, "nationalId")
}

func TestTokenService_Rejects(t *testing.T) {
	issued := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	svc := NewTokenService(config.JWTConfig{Secret: "s3cret", Expiry: time.Hour})
	svc.now = func() time.Time { return issued }
	good, err := svc.Sign(testPrincipal())
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := NewTokenService(config.JWTConfig{Secret: "s3cret", Expiry: time.Hour})
		later.now = func() time.Time { return issued.Add(2 * time.Hour) }
		_, err := later.Parse(good)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenService(config.JWTConfig{Secret: "different", Expiry: time.Hour})
		other.now = svc.now
		_, err := other.Parse(good)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "x",
			"exp": issued.Add(time.Hour).Unix(),
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		p := testPrincipal()
		p.EmployeeID = ""
		s, err := svc.Sign(p)
		require.NoError(t, err)
		_, err = svc.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
