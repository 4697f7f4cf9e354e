package domain

import (
	"context"
)

// ReceiptStore persists uploaded claim receipts
type ReceiptStore interface {
	// Upload saves a file and returns its access URL
	Upload(ctx context.Context, file []byte, key string, contentType string) (string, error)
}
