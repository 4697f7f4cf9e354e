package domain

import (
	"context"
	"time"
)

// SystemRole names a coarse-grained role carried in access tokens
type SystemRole string

const (
	RoleDepartmentEmployee SystemRole = "DEPARTMENT_EMPLOYEE"
	RoleDepartmentHead     SystemRole = "DEPARTMENT_HEAD"
	RoleHRManager          SystemRole = "HR_MANAGER"
	RoleHREmployee         SystemRole = "HR_EMPLOYEE"
	RolePayrollSpecialist  SystemRole = "PAYROLL_SPECIALIST"
	RolePayrollManager     SystemRole = "PAYROLL_MANAGER"
	RoleSystemAdmin        SystemRole = "SYSTEM_ADMIN"
	RoleLegalPolicyAdmin   SystemRole = "LEGAL_POLICY_ADMIN"
	RoleRecruiter          SystemRole = "RECRUITER"
	RoleFinanceStaff       SystemRole = "FINANCE_STAFF"
	RoleHRAdmin            SystemRole = "HR_ADMIN"
)

// DefaultRoles is what a self-registered employee receives.
var DefaultRoles = []SystemRole{RoleDepartmentEmployee}

// EmployeeSystemRole grants roles and permissions to one employee profile.
// Only the first active assignment is consulted.
type EmployeeSystemRole struct {
	ID                string       `bson:"_id,omitempty" json:"id"`
	EmployeeProfileID string       `bson:"employee_profile_id" json:"employeeProfileId"`
	Roles             []SystemRole `bson:"roles" json:"roles"`
	Permissions       []string     `bson:"permissions" json:"permissions"`
	IsActive          bool         `bson:"is_active" json:"isActive"`
	CreatedAt         time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time    `bson:"updated_at" json:"updatedAt"`
}

// HasRole checks if the assignment grants a specific role
func (r *EmployeeSystemRole) HasRole(role SystemRole) bool {
	for _, have := range r.Roles {
		if have == role {
			return true
		}
	}
	return false
}

// SystemRoleRepository is the role store.
type SystemRoleRepository interface {
	Create(ctx context.Context, assignment *EmployeeSystemRole) error
	// GetActiveByEmployeeID returns ErrNotFound when the employee has no active assignment.
	GetActiveByEmployeeID(ctx context.Context, employeeID string) (*EmployeeSystemRole, error)
	SetRoles(ctx context.Context, employeeID string, roles []SystemRole, permissions []string) error
}

// RoleNames converts roles to plain strings for token claims.
func RoleNames(roles []SystemRole) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
