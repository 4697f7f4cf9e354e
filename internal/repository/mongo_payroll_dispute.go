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

type MongoPayrollDisputeRepository struct {
	collection *mongo.Collection
}

func NewMongoPayrollDisputeRepository(db *mongo.Database) *MongoPayrollDisputeRepository {
	coll := db.Collection("payroll_disputes")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensureIndexes(ctx, coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})

	return &MongoPayrollDisputeRepository{
		collection: coll,
	}
}

func (r *MongoPayrollDisputeRepository) Create(ctx context.Context, dispute *domain.PayrollDispute) error {
	dispute.CreatedAt = time.Now()
	dispute.UpdatedAt = dispute.CreatedAt
	if dispute.Status == "" {
		dispute.Status = domain.DisputeStatusPending
	}

	result, err := r.collection.InsertOne(ctx, dispute)
	if err != nil {
		return fmt.Errorf("failed to create payroll dispute: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		dispute.ID = oid.Hex()
	}
	return nil
}

func (r *MongoPayrollDisputeRepository) GetByID(ctx context.Context, id string) (*domain.PayrollDispute, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var dispute domain.PayrollDispute
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&dispute); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payroll dispute: %w", err)
	}
	return &dispute, nil
}

func (r *MongoPayrollDisputeRepository) List(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.PayrollDispute, error) {
	cursor, err := r.collection.Find(ctx, listFilterToBSON(filter), listOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll disputes: %w", err)
	}
	defer cursor.Close(ctx)

	disputes := []*domain.PayrollDispute{}
	if err := cursor.All(ctx, &disputes); err != nil {
		return nil, fmt.Errorf("failed to decode payroll disputes: %w", err)
	}
	return disputes, nil
}

func (r *MongoPayrollDisputeRepository) ApplyReview(ctx context.Context, id string, review domain.DisputeReview) (*domain.PayrollDispute, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	set := bson.M{
		"status":     review.Status,
		"updated_at": time.Now(),
	}
	if review.HRComment != "" {
		set["hr_comment"] = review.HRComment
	}
	if review.PayrollManagerComment != "" {
		set["payroll_manager_comment"] = review.PayrollManagerComment
	}

	var dispute domain.PayrollDispute
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter()).Decode(&dispute)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to review payroll dispute: %w", err)
	}
	return &dispute, nil
}
