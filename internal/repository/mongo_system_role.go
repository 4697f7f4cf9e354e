package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const systemRolesCollection = "employee_system_roles"

// MongoSystemRoleRepository implements domain.SystemRoleRepository
type MongoSystemRoleRepository struct {
	collection *mongo.Collection
}

func NewMongoSystemRoleRepository(db *mongo.Database) *MongoSystemRoleRepository {
	coll := db.Collection(systemRolesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Not unique: several assignments per employee may exist, the first active one wins
	ensureIndexes(ctx, coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employee_profile_id", Value: 1}, {Key: "is_active", Value: 1}}},
	})

	return &MongoSystemRoleRepository{
		collection: coll,
	}
}

func (r *MongoSystemRoleRepository) Create(ctx context.Context, assignment *domain.EmployeeSystemRole) error {
	employeeOID, err := primitive.ObjectIDFromHex(assignment.EmployeeProfileID)
	if err != nil {
		return domain.ErrInvalidID
	}

	now := time.Now()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.Permissions == nil {
		assignment.Permissions = []string{}
	}
	objID := primitive.NewObjectID()

	_, err = r.collection.InsertOne(ctx, bson.M{
		"_id":                 objID,
		"employee_profile_id": employeeOID,
		"roles":               assignment.Roles,
		"permissions":         assignment.Permissions,
		"is_active":           assignment.IsActive,
		"created_at":          assignment.CreatedAt,
		"updated_at":          assignment.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create system role: %w", err)
	}

	assignment.ID = objID.Hex()
	return nil
}

func (r *MongoSystemRoleRepository) GetActiveByEmployeeID(ctx context.Context, employeeID string) (*domain.EmployeeSystemRole, error) {
	employeeOID, err := primitive.ObjectIDFromHex(employeeID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var assignment domain.EmployeeSystemRole
	err = r.collection.FindOne(ctx, bson.M{
		"employee_profile_id": employeeOID,
		"is_active":           true,
	}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get system role: %w", err)
	}
	return &assignment, nil
}

// SetRoles overwrites the active assignment, creating one if none exists.
func (r *MongoSystemRoleRepository) SetRoles(ctx context.Context, employeeID string, roles []domain.SystemRole, permissions []string) error {
	employeeOID, err := primitive.ObjectIDFromHex(employeeID)
	if err != nil {
		return domain.ErrInvalidID
	}
	if permissions == nil {
		permissions = []string{}
	}

	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"employee_profile_id": employeeOID, "is_active": true},
		bson.M{"$set": bson.M{
			"roles":       roles,
			"permissions": permissions,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update system role: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	return r.Create(ctx, &domain.EmployeeSystemRole{
		EmployeeProfileID: employeeID,
		Roles:             roles,
		Permissions:       permissions,
		IsActive:          true,
	})
}
