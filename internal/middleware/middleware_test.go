package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/payroll-backoffice/internal/config"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/mansoorceksport/payroll-backoffice/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEmployeeID = "65f000000000000000000001"

var testTokens = service.NewTokenService(config.JWTConfig{Secret: "middleware-secret", Expiry: time.Hour})

func bearer(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := testTokens.Sign(&domain.Principal{EmployeeID: testEmployeeID, NationalID: "N1", Roles: roles})
	require.NoError(t, err)
	return "Bearer " + tok
}

func protectedApp(allowed ...domain.SystemRole) *fiber.App {
	app := fiber.New()
	app.Get("/protected", VerifyToken(testTokens), AuthorizeRole(allowed...), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"employeeId": EmployeeID(c), "roles": Roles(c)})
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestVerifyToken_ExtractsClaims(t *testing.T) {
	resp := doGet(t, protectedApp(domain.RoleDepartmentEmployee), bearer(t, "DEPARTMENT_EMPLOYEE"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		EmployeeID string   `json:"employeeId"`
		Roles      []string `json:"roles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testEmployeeID, body.EmployeeID)
	assert.Equal(t, []string{"DEPARTMENT_EMPLOYEE"}, body.Roles)
}

func TestVerifyToken_Rejects(t *testing.T) {
	app := protectedApp(domain.RoleDepartmentEmployee)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "wrong secret", header: func() string {
			other := service.NewTokenService(config.JWTConfig{Secret: "other", Expiry: time.Hour})
			tok, _ := other.Sign(&domain.Principal{EmployeeID: testEmployeeID})
			return "Bearer " + tok
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, app, tt.header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthorizeRole(t *testing.T) {
	tests := []struct {
		name    string
		allowed []domain.SystemRole
		roles   []string
		want    int
	}{
		{name: "matching role", allowed: []domain.SystemRole{domain.RolePayrollManager}, roles: []string{"PAYROLL_MANAGER"}, want: http.StatusOK},
		{name: "one of several", allowed: []domain.SystemRole{domain.RoleHRManager, domain.RoleFinanceStaff}, roles: []string{"DEPARTMENT_EMPLOYEE", "FINANCE_STAFF"}, want: http.StatusOK},
		{name: "system admin bypass", allowed: []domain.SystemRole{domain.RoleFinanceStaff}, roles: []string{"SYSTEM_ADMIN"}, want: http.StatusOK},
		{name: "missing role", allowed: []domain.SystemRole{domain.RolePayrollManager}, roles: []string{"DEPARTMENT_EMPLOYEE"}, want: http.StatusForbidden},
		{name: "no roles", allowed: []domain.SystemRole{domain.RolePayrollManager}, roles: nil, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, protectedApp(tt.allowed...), bearer(t, tt.roles...))
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New()
	app.Use(RequestLogger(zerolog.New(&logs)))
	app.Get("/ping", func(c *fiber.Ctx) error {
		zerolog.Ctx(c.UserContext()).Info().Msg("inside handler")
		return c.SendString(RequestID(c))
	})

	t.Run("generates id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		id := resp.Header.Get(RequestIDHeader)
		assert.Len(t, id, 26)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, id, string(body))
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		logs.Reset()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
		lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
		require.Len(t, lines, 2)
		for _, line := range lines {
			assert.Contains(t, line, `"request_id":"req-123"`)
		}
		assert.Contains(t, lines[1], `"status":200`)
	})
}

func newIdempotentApp(t *testing.T) (*fiber.App, *miniredis.Miniredis, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	calls := 0
	app := fiber.New()
	app.Use(Idempotency(client, time.Minute))
	app.Post("/claims", func(c *fiber.Ctx) error {
		calls++
		if c.Query("fail") != "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})
	return app, mr, &calls
}

func post(t *testing.T, app *fiber.App, path, correlationID string) *http.Response {
	t.Helper()
	return postBody(t, app, path, correlationID, `{}`)
}

func postBody(t *testing.T, app *fiber.App, path, correlationID, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if correlationID != "" {
		req.Header.Set(CorrelationIDHeader, correlationID)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	app, mr, calls := newIdempotentApp(t)

	first := post(t, app, "/claims", "abc")
	firstBody, _ := io.ReadAll(first.Body)
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := post(t, app, "/claims", "abc")
	secondBody, _ := io.ReadAll(second.Body)
	second.Body.Close()

	assert.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(ReplayHeader))
	assert.JSONEq(t, string(firstBody), string(secondBody))
	assert.Equal(t, 1, *calls)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, mr.TTL(keys[0]) > 0)
}

func TestIdempotency_PassThrough(t *testing.T) {
	app, _, calls := newIdempotentApp(t)

	post(t, app, "/claims", "").Body.Close()
	post(t, app, "/claims", "").Body.Close()
	assert.Equal(t, 2, *calls, "no header means no replay")

	post(t, app, "/claims?fail=1", "xyz").Body.Close()
	resp := post(t, app, "/claims?fail=1", "xyz")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 4, *calls, "errors are not replayed")
}

func TestIdempotency_RedisDown(t *testing.T) {
	app, mr, calls := newIdempotentApp(t)
	mr.Close()

	resp := post(t, app, "/claims", "abc")
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 1, *calls)
}

func TestIdempotency_DifferentBodySameCorrelationID(t *testing.T) {
	app, _, calls := newIdempotentApp(t)

	first := postBody(t, app, "/claims", "same", `{"nationalId":"N1"}`)
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	second := postBody(t, app, "/claims", "same", `{"nationalId":"N2"}`)
	secondBody, _ := io.ReadAll(second.Body)
	second.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, second.StatusCode)
	assert.Empty(t, second.Header.Get(ReplayHeader))
	assert.NotContains(t, string(secondBody), "N1")
	assert.Equal(t, 1, *calls)

	again := postBody(t, app, "/claims", "same", `{"nationalId":"N1"}`)
	again.Body.Close()
	assert.Equal(t, http.StatusCreated, again.StatusCode)
	assert.Equal(t, "true", again.Header.Get(ReplayHeader))
	assert.Equal(t, 1, *calls)
}
