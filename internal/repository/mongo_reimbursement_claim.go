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

// claimDocument is the stored shape of domain.ReimbursementClaim
type claimDocument struct {
	ID                    primitive.ObjectID   `bson:"_id,omitempty"`
	Reference             string               `bson:"reference"`
	EmployeeID            string               `bson:"employee_id"`
	ExpenseType           string               `bson:"expense_type"`
	Amount                primitive.Decimal128 `bson:"amount"`
	ReceiptURL            string               `bson:"receipt_url,omitempty"`
	Notes                 string               `bson:"notes,omitempty"`
	Status                domain.ClaimStatus   `bson:"status"`
	PayrollManagerComment string               `bson:"payroll_manager_comment,omitempty"`
	FinanceComment        string               `bson:"finance_comment,omitempty"`
	CreatedAt             time.Time            `bson:"created_at"`
	UpdatedAt             time.Time            `bson:"updated_at"`
}

func (d *claimDocument) toDomain() *domain.ReimbursementClaim {
	return &domain.ReimbursementClaim{
		ID:                    d.ID.Hex(),
		Reference:             d.Reference,
		EmployeeID:            d.EmployeeID,
		ExpenseType:           d.ExpenseType,
		Amount:                fromDecimal128(d.Amount),
		ReceiptURL:            d.ReceiptURL,
		Notes:                 d.Notes,
		Status:                d.Status,
		PayrollManagerComment: d.PayrollManagerComment,
		FinanceComment:        d.FinanceComment,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

type MongoReimbursementClaimRepository struct {
	collection *mongo.Collection
}

func NewMongoReimbursementClaimRepository(db *mongo.Database) *MongoReimbursementClaimRepository {
	coll := db.Collection("reimbursement_claims")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ensureIndexes(ctx, coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employee_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})

	return &MongoReimbursementClaimRepository{
		collection: coll,
	}
}

func (r *MongoReimbursementClaimRepository) Create(ctx context.Context, claim *domain.ReimbursementClaim) error {
	amount, err := toDecimal128(claim.Amount)
	if err != nil {
		return err
	}

	claim.CreatedAt = time.Now()
	claim.UpdatedAt = claim.CreatedAt
	if claim.Status == "" {
		claim.Status = domain.ClaimStatusPending
	}

	doc := claimDocument{
		ID:          primitive.NewObjectID(),
		Reference:   claim.Reference,
		EmployeeID:  claim.EmployeeID,
		ExpenseType: claim.ExpenseType,
		Amount:      amount,
		ReceiptURL:  claim.ReceiptURL,
		Notes:       claim.Notes,
		Status:      claim.Status,
		CreatedAt:   claim.CreatedAt,
		UpdatedAt:   claim.UpdatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create reimbursement claim: %w", err)
	}

	claim.ID = doc.ID.Hex()
	return nil
}

func (r *MongoReimbursementClaimRepository) GetByID(ctx context.Context, id string) (*domain.ReimbursementClaim, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var doc claimDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reimbursement claim: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoReimbursementClaimRepository) List(ctx context.Context, filter domain.PayrollListFilter) ([]*domain.ReimbursementClaim, error) {
	cursor, err := r.collection.Find(ctx, listFilterToBSON(filter), listOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to list reimbursement claims: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []claimDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reimbursement claims: %w", err)
	}

	claims := make([]*domain.ReimbursementClaim, 0, len(docs))
	for i := range docs {
		claims = append(claims, docs[i].toDomain())
	}
	return claims, nil
}

func (r *MongoReimbursementClaimRepository) ApplyReview(ctx context.Context, id string, review domain.ClaimReview) (*domain.ReimbursementClaim, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	set := bson.M{
		"status":     review.Status,
		"updated_at": time.Now(),
	}
	if review.PayrollManagerComment != "" {
		set["payroll_manager_comment"] = review.PayrollManagerComment
	}
	if review.FinanceComment != "" {
		set["finance_comment"] = review.FinanceComment
	}

	var doc claimDocument
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, returnAfter()).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to review reimbursement claim: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoReimbursementClaimRepository) SetReceiptURL(ctx context.Context, id string, url string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"receipt_url": url,
		"updated_at":  time.Now(),
	}})
	if err != nil {
		return fmt.Errorf("failed to set receipt url: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
