// Package tokens implements the durable registry of operator bearer tokens.
//
// A token is an opaque 256-bit random value; holding a registered token is
// proof of operator capability, it is not tied to any identity. The full
// set of valid tokens lives in one JSON file that is rewritten atomically
// on every mutation, so tokens survive process restarts and a crash
// mid-write cannot corrupt the registry.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/filex"
	"github.com/kingfluencer/backend/internal/logging"
)

const tokenBytes = 32 // 256 bits of entropy, hex-encoded to 64 chars

type record struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

type fileDoc struct {
	Tokens []record `json:"tokens"`
}

// Registry is the set of valid operator tokens backed by a durable file.
// All methods are safe for concurrent use; one mutex covers the whole
// read-modify-persist cycle so concurrent mutations cannot lose updates.
type Registry struct {
	mu     sync.Mutex
	path   string
	ttl    time.Duration // 0 means tokens only die by explicit revocation
	tokens map[string]time.Time
	logger logging.Logger
}

// NewRegistry loads the registry from path, creating an empty one when the
// file does not exist. A corrupt or unreadable file is treated as empty:
// failing safe loses sessions instead of granting universal access.
//
// ttl > 0 enables passive expiry at validation time; ttl == 0 keeps tokens
// valid until revoked.
func NewRegistry(path string, ttl time.Duration, logger logging.Logger) (*Registry, error) {
	r := &Registry{
		path:   path,
		ttl:    ttl,
		tokens: make(map[string]time.Time),
		logger: logger.With("module", "tokens"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn(context.Background(), "token store unreadable, starting empty", "path", path, "error", err)
		}
		return r, nil
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn(context.Background(), "token store corrupt, starting empty", "path", path, "error", err)
		return r, nil
	}

	for _, rec := range doc.Tokens {
		if rec.Token == "" {
			continue
		}
		r.tokens[rec.Token] = rec.IssuedAt
	}

	return r, nil
}

// Issue creates a new token, persists the registry, and returns the token.
// The token is only handed out after the persist succeeds.
func (r *Registry) Issue(ctx context.Context) (string, error) {
	token, err := common.MakeRandHexString(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = time.Now()
	if err := r.persistLocked(); err != nil {
		delete(r.tokens, token)
		return "", fmt.Errorf("%w: persisting token store: %v", common.ErrDependency, err)
	}

	r.logger.Info(ctx, "operator token issued")
	return token, nil
}

// IsValid reports whether the token is registered and, when a TTL is
// configured, not yet expired. Expired tokens are dropped lazily.
func (r *Registry) IsValid(token string) bool {
	if token == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	issuedAt, ok := r.tokens[token]
	if !ok {
		return false
	}

	if r.ttl > 0 && time.Now().After(issuedAt.Add(r.ttl)) {
		delete(r.tokens, token)
		// best effort: an expired token stays invalid either way
		if err := r.persistLocked(); err != nil {
			r.logger.Warn(context.Background(), "dropping expired token not persisted", "error", err)
		}
		return false
	}

	return true
}

// Revoke removes the token and persists the change. It reports whether the
// token was present.
func (r *Registry) Revoke(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	issuedAt, ok := r.tokens[token]
	if !ok {
		return false, nil
	}

	delete(r.tokens, token)
	if err := r.persistLocked(); err != nil {
		r.tokens[token] = issuedAt
		return false, fmt.Errorf("%w: persisting token store: %v", common.ErrDependency, err)
	}

	r.logger.Info(ctx, "operator token revoked")
	return true, nil
}

// Count returns the number of registered tokens (expired ones included
// until they are seen by IsValid).
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// persistLocked rewrites the backing file. Callers must hold r.mu.
func (r *Registry) persistLocked() error {
	doc := fileDoc{Tokens: make([]record, 0, len(r.tokens))}
	for token, issuedAt := range r.tokens {
		doc.Tokens = append(doc.Tokens, record{Token: token, IssuedAt: issuedAt})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	return filex.WriteFileAtomic(r.path, data, 0o600)
}
