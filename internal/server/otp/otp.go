// Package otp implements one-time numeric login codes: generation, hashing,
// and verification of time-bounded single-use challenges.
//
// The engine itself is storage-agnostic. Callers attach the returned
// Challenge to the owning identity (one slot per purpose), deliver the
// plaintext out-of-band, and clear the slot once verification succeeds.
// The engine performs no lockout bookkeeping; callers are expected to
// rate-limit verification attempts.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/kingfluencer/backend/internal/common"
)

// Purpose names the challenge slot a code belongs to. An identity holds at
// most one outstanding challenge per purpose.
type Purpose string

const (
	// PurposeLogin is the sign-in flow.
	PurposeLogin Purpose = "login"
	// PurposeOldEmail verifies ownership of the current address during an
	// email change.
	PurposeOldEmail Purpose = "old_email"
	// PurposeNewEmail verifies ownership of the pending address during an
	// email change.
	PurposeNewEmail Purpose = "new_email"
)

const (
	// codes are 6 decimal digits: 100000..999999
	codeMin  = 100000
	codeSpan = 900000
)

// Challenge is the stored form of an outstanding one-time code. The
// plaintext itself is never persisted.
type Challenge struct {
	CodeHash  string
	ExpiresAt time.Time
}

// Engine issues and verifies one-time codes with a fixed validity window.
type Engine struct {
	validity time.Duration
}

func NewEngine(validity time.Duration) *Engine {
	return &Engine{validity: validity}
}

// Validity returns the configured challenge lifetime.
func (e *Engine) Validity() time.Duration {
	return e.validity
}

// Issue generates a fresh 6-digit code and the challenge record to store
// against the owner. Storing the returned challenge over an existing slot
// silently invalidates the previous code; that is the intended "resend"
// behavior.
func (e *Engine) Issue() (string, Challenge, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", Challenge{}, fmt.Errorf("generating code: %w", err)
	}

	code := strconv.FormatInt(n.Int64()+codeMin, 10)

	return code, Challenge{
		CodeHash:  HashCode(code),
		ExpiresAt: time.Now().Add(e.validity),
	}, nil
}

// Verify checks a candidate code against a stored challenge.
//
// It returns common.ErrNoChallenge when ch is nil (no outstanding code),
// common.ErrExpired when the validity window has passed, and
// common.ErrCodeMismatch when the digests differ. A nil return means the
// code matched; the caller must clear the slot in the same logical step so
// the code can never verify twice.
func (e *Engine) Verify(ch *Challenge, candidate string) error {
	if ch == nil || ch.CodeHash == "" {
		return common.ErrNoChallenge
	}
	if time.Now().After(ch.ExpiresAt) {
		return common.ErrExpired
	}
	if !digestsEqual(ch.CodeHash, HashCode(candidate)) {
		return common.ErrCodeMismatch
	}
	return nil
}
