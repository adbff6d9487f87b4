package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberPrefix = "PS-"

// NewOrderNumber derives a human-readable order number from the last six
// digits of the unix-millisecond clock plus a three-digit random suffix.
// Collisions are unlikely but possible, so callers must rely on the unique
// constraint on orders.order_number and retry.
func NewOrderNumber(now time.Time) (string, error) {
	millis := now.UnixMilli() % 1_000_000
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("order number suffix: %w", err)
	}
	return fmt.Sprintf("%s%06d%03d", orderNumberPrefix, millis, n.Int64()), nil
}
