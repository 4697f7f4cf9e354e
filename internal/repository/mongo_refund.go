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

type refundDocument struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty"`
	Reference        string               `bson:"reference"`
	EmployeeID       string               `bson:"employee_id"`
	RelatedDisputeID string               `bson:"related_dispute_id,omitempty"`
	RelatedClaimID   string               `bson:"related_claim_id,omitempty"`
	Amount           primitive.Decimal128 `bson:"amount"`
	Status           domain.RefundStatus  `bson:"status"`
	ProcessedBy      string               `bson:"processed_by,omitempty"`
	ProcessedAt      *time.Time           `bson:"processed_at,omitempty"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
}

func (d *refundDocument) toDomain() *domain.Refund {
	return &domain.Refund{
		ID:               d.ID.Hex(),
		Reference:        d.Reference,
		EmployeeID:       d.EmployeeID,
		RelatedDisputeID: d.RelatedDisputeID,
		RelatedClaimID:   d.RelatedClaimID,
		Amount:           fromDecimal128(d.Amount),
		Status:           d.Status,
		ProcessedBy:      d.ProcessedBy,
		ProcessedAt:      d.ProcessedAt,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type MongoRefundRepository struct {
	collection *mongo.Collection
}

func NewMongoRefundRepository(db *mongo.Database) *MongoRefundRepository {
	coll := db.Collection("refunds")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensureIndexes(ctx, coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "related_dispute_id", Value: 1}}},
		{Keys: bson.D{{Key: "related_claim_id", Value: 1}}},
	})

	return &MongoRefundRepository{
		collection: coll,
	}
}

func (r *MongoRefundRepository) Create(ctx context.Context, refund *domain.Refund) error {
	amount, err := toDecimal128(refund.Amount)
	if err != nil {
		return err
	}

	refund.CreatedAt = time.Now()
	refund.UpdatedAt = refund.CreatedAt
	if refund.Status == "" {
		refund.Status = domain.RefundStatusPending
	}

	doc := refundDocument{
		ID:               primitive.NewObjectID(),
		Reference:        refund.Reference,
		EmployeeID:       refund.EmployeeID,
		RelatedDisputeID: refund.RelatedDisputeID,
		RelatedClaimID:   refund.RelatedClaimID,
		Amount:           amount,
		Status:           refund.Status,
		CreatedAt:        refund.CreatedAt,
		UpdatedAt:        refund.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create refund: %w", err)
	}

	refund.ID = doc.ID.Hex()
	return nil
}

func (r *MongoRefundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var doc refundDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoRefundRepository) List(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.Refund, error) {
	cursor, err := r.collection.Find(ctx, listFilterToBSON(filter), listOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []refundDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode refunds: %w", err)
	}

	refunds := make([]*domain.Refund, 0, len(docs))
	for i := range docs {
		refunds = append(refunds, docs[i].toDomain())
	}
	return refunds, nil
}

func (r *MongoRefundRepository) ApplyUpdate(ctx context.Context, id string, update domain.RefundUpdate) (*domain.Refund, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	set := bson.M{
		"status":     update.Status,
		"updated_at": time.Now(),
	}
	if update.ProcessedBy != "" {
		set["processed_by"] = update.ProcessedBy
	}
	if update.ProcessedAt != nil {
		set["processed_at"] = update.ProcessedAt
	}

	var doc refundDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter()).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update refund: %w", err)
	}
	return doc.toDomain(), nil
}
