package domain

import "unicode/utf8"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// RegisterRequest is the self-registration input.
type RegisterRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	NationalID     string `json:"nationalId"`
	Password       string `json:"password"`
	EmployeeNumber string `json:"employeeNumber"`
	WorkEmail      string `json:"workEmail,omitempty"`
	PersonalEmail  string `json:"personalEmail,omitempty"`
}

// Validate returns a *ValidationError listing every bad field, or nil.
func (r RegisterRequest) Validate() error {
	v := &ValidationError{}
	requireText(v, "firstName", r.FirstName)
	requireText(v, "lastName", r.LastName)
	requireText(v, "nationalId", r.NationalID)
	requireText(v, "employeeNumber", r.EmployeeNumber)
	requirePresent(v, "password", r.Password)
	if r.Password != "" && utf8.RuneCountInString(r.Password) < MinPasswordLength {
		v.Add("password", "Password must be at least 6 characters long")
	}
	optionalEmail(v, "workEmail", r.WorkEmail)
	optionalEmail(v, "personalEmail", r.PersonalEmail)
	return v.OrNil()
}

// LoginRequest is the credential pair presented at login.
type LoginRequest struct {
	NationalID string `json:"nationalId"`
	Password   string `json:"password"`
}

func (r LoginRequest) Validate() error {
	v := &ValidationError{}
	requireText(v, "nationalId", r.NationalID)
	requirePresent(v, "password", r.Password)
	return v.OrNil()
}

// Principal is an authenticated identity with its resolved roles and permissions.
type Principal struct {
	EmployeeID  string   `json:"employeeId"`
	NationalID  string   `json:"nationalId"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// UserView is the redacted principal returned by register and login.
type UserView struct {
	EmployeeID string   `json:"employeeId"`
	NationalID string   `json:"nationalId"`
	Roles      []string `json:"roles"`
}

// View drops permissions.
func (p *Principal) View() UserView {
	return UserView{
		EmployeeID: p.EmployeeID,
		NationalID: p.NationalID,
		Roles:      p.Roles,
	}
}

// HasAnyRole reports whether any of roles is held.
func (p *Principal) HasAnyRole(roles ...SystemRole) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == string(want) {
				return true
			}
		}
	}
	return false
}

// LoginResult is the output of a successful login.
type LoginResult struct {
	AccessToken string   `json:"accessToken"`
	ExpiresIn   int64    `json:"expiresIn"` // seconds
	User        UserView `json:"user"`
}
