package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptCost matches the salt rounds used by the existing employee records.
const BcryptCost = 10

// bcrypt only reads the first 72 bytes. Longer passwords are cut there so that
// hashes stay interchangeable with records created by other bcrypt libraries.
const maxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
// At most GOMAXPROCS hash operations run at once; extra callers wait on ctx.
type PasswordHasher struct {
	cost int
	sem  *semaphore.Weighted
	// compared against when no stored hash exists, so unknown identities cost as much as wrong passwords
	dummyHash []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = BcryptCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		// only reachable with cost > bcrypt.MaxCost
		panic(fmt.Sprintf("bcrypt cost %d: %v", cost, err))
	}
	return &PasswordHasher{
		cost:      cost,
		sem:       semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		dummyHash: dummy,
	}
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hash returns the bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil).
func (h *PasswordHasher) Verify(ctx context.Context, hash, password string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		// malformed stored hash
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
}

// Burn spends one comparison's worth of work and always reports a mismatch.
func (h *PasswordHasher) Burn(ctx context.Context, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	_ = bcrypt.CompareHashAndPassword(h.dummyHash, passwordBytes(password))
	return nil
}
