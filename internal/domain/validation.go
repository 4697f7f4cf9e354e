package domain

import (
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money amounts carry at most two decimal places and stay below 10^MaxAmountIntegerDigits.
const (
	MaxAmountDecimalPlaces = 2
	MaxAmountIntegerDigits = 12
)

func requireText(v *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" should not be empty")
	}
}

// requirePresent rejects only the empty string; whitespace counts as content.
func requirePresent(v *ValidationError, field, value string) {
	if value == "" {
		v.Add(field, field+" should not be empty")
	}
}

// requireAmount checks sign and shape using only the exponent and coefficient size,
// never expanding the value, so huge exponents are rejected in constant time.
func requireAmount(v *ValidationError, field string, d decimal.Decimal) {
	if !d.IsPositive() {
		v.Add(field, field+" must be greater than zero")
		return
	}
	exp := int64(d.Exponent())
	if exp < -MaxAmountDecimalPlaces {
		v.Add(field, field+" must have at most 2 decimal places")
		return
	}
	if int64(d.NumDigits())+exp > MaxAmountIntegerDigits {
		v.Add(field, field+" is too large")
	}
}

func optionalEmail(v *ValidationError, field, value string) {
	if value == "" {
		return
	}
	if !govalidator.IsEmail(value) {
		v.Add(field, field+" must be an email")
	}
}

func requireObjectID(v *ValidationError, field, value string) {
	if value == "" {
		v.Add(field, field+" should not be empty")
		return
	}
	if !primitive.IsValidObjectID(value) {
		v.Add(field, field+" must be a valid id")
	}
}

func optionalObjectID(v *ValidationError, field, value string) {
	if value != "" && !primitive.IsValidObjectID(value) {
		v.Add(field, field+" must be a valid id")
	}
}
