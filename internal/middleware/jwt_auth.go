package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/rs/zerolog"
)

// Context keys for storing token claims
const (
	EmployeeIDKey = "employeeID"
	NationalIDKey = "nationalID"
	RolesKey      = "roles"
)

// TokenVerifier parses and verifies an access token
type TokenVerifier interface {
	Parse(token string) (*domain.AuthClaims, error)
}

// VerifyToken validates the bearer token and stores its claims in Locals
func VerifyToken(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			tokenString = authHeader[7:]
		}

		claims, err := verifier.Parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		roles := claims.Roles
		if roles == nil {
			roles = []string{}
		}
		c.Locals(EmployeeIDKey, claims.Subject)
		c.Locals(NationalIDKey, claims.NationalID)
		c.Locals(RolesKey, roles)

		logger := zerolog.Ctx(c.UserContext()).With().Str("employee_id", claims.Subject).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))

		return c.Next()
	}
}

// AuthorizeRole checks if the caller has at least one of the required roles.
// SYSTEM_ADMIN passes every check.
func AuthorizeRole(allowedRoles ...domain.SystemRole) fiber.Handler {
	required := domain.RoleNames(allowedRoles)

	return func(c *fiber.Ctx) error {
		userRoles, ok := c.Locals(RolesKey).([]string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No roles found in token",
			})
		}

		for _, userRole := range userRoles {
			if userRole == string(domain.RoleSystemAdmin) {
				return c.Next()
			}
			for _, allowedRole := range required {
				if userRole == allowedRole {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          "Insufficient permissions",
			"required_roles": required,
		})
	}
}

// EmployeeID returns the token subject stored by VerifyToken
func EmployeeID(c *fiber.Ctx) string {
	id, _ := c.Locals(EmployeeIDKey).(string)
	return id
}

// Roles returns the token roles stored by VerifyToken
func Roles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(RolesKey).([]string)
	return roles
}
