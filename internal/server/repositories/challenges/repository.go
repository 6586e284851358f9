package challenges

import (
	"context"

	"github.com/kingfluencer/backend/internal/server/otp"
)

// Repository stores at most one outstanding challenge per user and purpose.
// Upsert overwrites, so issuing a new code always invalidates the previous
// one for that purpose.
//
// Consume deletes the slot only while it still holds the given hash and
// reports whether a row went away. Verification must clear the slot through
// Consume: two requests racing on the same code then decide the winner on
// this single conditional statement, and the loser sees false.
type Repository interface {
	Upsert(ctx context.Context, userID string, purpose otp.Purpose, ch *otp.Challenge) error
	Get(ctx context.Context, userID string, purpose otp.Purpose) (*otp.Challenge, error)
	Delete(ctx context.Context, userID string, purpose otp.Purpose) error
	Consume(ctx context.Context, userID string, purpose otp.Purpose, codeHash string) (bool, error)
}
