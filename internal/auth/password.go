package auth

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultHashCost is the bcrypt work factor for every stored credential,
// including the seeded bootstrap accounts.
const DefaultHashCost = 12

const maxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. The number of
// concurrent bcrypt operations is capped by a semaphore.
type Hasher struct {
	cost  int
	slots *semaphore.Weighted
	dummy []byte
}

// NewHasher creates a Hasher. cost outside bcrypt's range falls back to
// DefaultHashCost; maxConcurrent <= 0 means GOMAXPROCS. The placeholder
// digest used by VerifyMissing is generated here, at the configured cost.
func NewHasher(cost, maxConcurrent int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultHashCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("missing-account-placeholder"), cost)
	if err != nil {
		return nil, fmt.Errorf("auth: placeholder digest: %w", err)
	}
	return &Hasher{cost: cost, slots: semaphore.NewWeighted(int64(maxConcurrent)), dummy: dummy}, nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt digest of plaintext.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	switch {
	case plaintext == "":
		return "", fmt.Errorf("%w: empty password", ErrEncoding)
	case strings.ContainsRune(plaintext, 0):
		return "", fmt.Errorf("%w: password contains a NUL byte", ErrEncoding)
	case len(plaintext) > maxPasswordBytes:
		return "", fmt.Errorf("%w: password longer than %d bytes", ErrEncoding, maxPasswordBytes)
	}
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests and a
// cancelled ctx yield false.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) bool {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// VerifyMissing spends one comparison against a throwaway digest so a
// lookup miss takes as long as a wrong password. It always returns false.
func (h *Hasher) VerifyMissing(ctx context.Context, plaintext string) bool {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.slots.Release(1)
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
	return false
}
