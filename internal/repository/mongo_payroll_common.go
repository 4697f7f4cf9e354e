package repository

import (
	"fmt"

	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Amounts are stored as Decimal128 so that Mongo aggregations keep exact cents.
// Values outside the Decimal128 range are rejected before d.String() would expand them.
func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	exp := int64(d.Exponent())
	if exp < decimal128MinExp || exp > decimal128MaxExp || d.NumDigits() > decimal128MaxDigits {
		return primitive.Decimal128{}, amountError()
	}
	dec, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: %v", amountError(), err)
	}
	return dec, nil
}

const (
	decimal128MinExp    = -6176
	decimal128MaxExp    = 6111
	decimal128MaxDigits = 34
)

func amountError() *domain.ValidationError {
	v := &domain.ValidationError{}
	v.Add("amount", "amount cannot be stored")
	return v
}

func fromDecimal128(d primitive.Decimal128) decimal.Decimal {
	out, err := decimal.NewFromString(d.String())
	if err != nil {
		return decimal.Zero
	}
	return out
}

func listFilterToBSON(f domain.PayrollListFilter) bson.M {
	filter := bson.M{}
	if f.EmployeeID != "" {
		filter["employee_id"] = f.EmployeeID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// newest first
func listOptions() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
