package domain

import (
	"context"
	"time"
)

// EmployeeStatus is the lifecycle state of an employee profile
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "ACTIVE"
	EmployeeStatusInactive   EmployeeStatus = "INACTIVE"
	EmployeeStatusOnLeave    EmployeeStatus = "ON_LEAVE"
	EmployeeStatusSuspended  EmployeeStatus = "SUSPENDED"
	EmployeeStatusRetired    EmployeeStatus = "RETIRED"
	EmployeeStatusProbation  EmployeeStatus = "PROBATION"
	EmployeeStatusTerminated EmployeeStatus = "TERMINATED"
)

// EmployeeProfile is the identity record consulted at login.
// NationalID and EmployeeNumber are each unique across the collection.
type EmployeeProfile struct {
	ID             string         `bson:"_id,omitempty" json:"id"`
	NationalID     string         `bson:"national_id" json:"nationalId"`
	EmployeeNumber string         `bson:"employee_number" json:"employeeNumber"`
	FirstName      string         `bson:"first_name" json:"firstName"`
	LastName       string         `bson:"last_name" json:"lastName"`
	FullName       string         `bson:"full_name" json:"fullName"`
	PasswordHash   string         `bson:"password,omitempty" json:"-"` // bcrypt, never exposed
	Status         EmployeeStatus `bson:"status" json:"status"`
	WorkEmail      string         `bson:"work_email,omitempty" json:"workEmail,omitempty"`
	PersonalEmail  string         `bson:"personal_email,omitempty" json:"personalEmail,omitempty"`
	DateOfHire     time.Time      `bson:"date_of_hire" json:"dateOfHire"`
	CreatedAt      time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `bson:"updated_at" json:"updatedAt"`
}

// EmployeeProfileRepository is the credential store.
type EmployeeProfileRepository interface {
	// Create inserts the profile and sets its ID.
	// Returns ErrDuplicateIdentity when a unique index rejects the insert.
	Create(ctx context.Context, profile *EmployeeProfile) error
	GetByID(ctx context.Context, id string) (*EmployeeProfile, error)
	GetByNationalID(ctx context.Context, nationalID string) (*EmployeeProfile, error)
	// FindByNationalIDOrEmployeeNumber returns ErrNotFound when neither value is taken.
	FindByNationalIDOrEmployeeNumber(ctx context.Context, nationalID, employeeNumber string) (*EmployeeProfile, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
