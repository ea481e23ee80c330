package artifact

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no artifact exists under a key.
var ErrNotFound = errors.New("artifact not found")

// Store persists opaque model artifacts under string keys. Implementations
// must be safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// ModelKey is the storage key for a product's trained model artifact.
func ModelKey(productID int64) string {
	return fmt.Sprintf("model:%d", productID)
}

// ScalerKey is the storage key for a product's feature scaler artifact.
func ScalerKey(productID int64) string {
	return fmt.Sprintf("scaler:%d", productID)
}
