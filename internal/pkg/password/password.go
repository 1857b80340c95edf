package password

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt behind a bounded-concurrency gate. Hashing is
// CPU-bound; without the cap a burst of registrations could occupy every
// scheduler thread and stall unrelated request handlers.
type Hasher struct {
	cost int
	sem  chan struct{}
}

// NewHasher creates a Hasher with the given bcrypt cost and a cap on
// concurrent hash/compare operations. maxConcurrent < 1 falls back to 1.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Hasher{cost: cost, sem: make(chan struct{}, maxConcurrent)}
}

// Hash returns the bcrypt hash of the plaintext password. Blocks while the
// concurrency gate is full, honoring ctx cancellation while waiting.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare checks plain against hash. bcrypt's comparison is constant-time
// over the derived key.
func (h *Hasher) Compare(ctx context.Context, hash, plain string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() { <-h.sem }
