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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const employeeProfilesCollection = "employee_profiles"

// MongoEmployeeProfileRepository implements domain.EmployeeProfileRepository
type MongoEmployeeProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoEmployeeProfileRepository(db *mongo.Database) *MongoEmployeeProfileRepository {
	coll := db.Collection(employeeProfilesCollection)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Uniqueness of both identifiers is enforced here, not in application code
	ensureIndexes(ctx, coll, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "national_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "employee_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})

	return &MongoEmployeeProfileRepository{
		collection: coll,
	}
}

func (r *MongoEmployeeProfileRepository) Create(ctx context.Context, profile *domain.EmployeeProfile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	objID := primitive.NewObjectID()

	doc := bson.M{
		"_id":             objID,
		"national_id":     profile.NationalID,
		"employee_number": profile.EmployeeNumber,
		"first_name":      profile.FirstName,
		"last_name":       profile.LastName,
		"full_name":       profile.FullName,
		"status":          profile.Status,
		"date_of_hire":    profile.DateOfHire,
		"created_at":      profile.CreatedAt,
		"updated_at":      profile.UpdatedAt,
	}
	if profile.PasswordHash != "" {
		doc["password"] = profile.PasswordHash
	}
	if profile.WorkEmail != "" {
		doc["work_email"] = profile.WorkEmail
	}
	if profile.PersonalEmail != "" {
		doc["personal_email"] = profile.PersonalEmail
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("failed to create employee profile: %w", err)
	}

	profile.ID = objID.Hex()
	return nil
}

func (r *MongoEmployeeProfileRepository) GetByID(ctx context.Context, id string) (*domain.EmployeeProfile, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *MongoEmployeeProfileRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.EmployeeProfile, error) {
	return r.findOne(ctx, bson.M{"national_id": nationalID})
}

func (r *MongoEmployeeProfileRepository) FindByNationalIDOrEmployeeNumber(ctx context.Context, nationalID, employeeNumber string) (*domain.EmployeeProfile, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"national_id": nationalID},
		bson.M{"employee_number": employeeNumber},
	}})
}

func (r *MongoEmployeeProfileRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete employee profile: %w", err)
	}
	return nil
}

func (r *MongoEmployeeProfileRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func (r *MongoEmployeeProfileRepository) findOne(ctx context.Context, filter bson.M) (*domain.EmployeeProfile, error) {
	var profile domain.EmployeeProfile
	if err := r.collection.FindOne(ctx, filter).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get employee profile: %w", err)
	}
	return &profile, nil
}
