package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/helixask/helixaskd/pkg/canon"
	"github.com/helixask/helixaskd/pkg/models"
)

// SessionStore is an in-memory, owner-sharded chat-session store keyed by
// (ownerId, sessionId), spec §4.6. One mutex guards the whole map; writers
// are serialized and readers observe a consistent snapshot, matching the
// teacher's single-owner-component guidance (§9 Design Notes).
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]*models.Session // ownerID -> sessionID -> session
}

// NewSessionStore constructs an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]map[string]*models.Session)}
}

// ComputeContentHash hashes a message slice via SHA-256 over its canonical
// JSON encoding, shared with the safety gate's certificate hashing.
func ComputeContentHash(messages []models.Message) string {
	encoded := make([]any, len(messages))
	for i, m := range messages {
		encoded[i] = map[string]any{
			"role":      m.Role,
			"content":   m.Content,
			"traceId":   m.TraceID,
			"createdAt": m.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	sum := sha256.Sum256([]byte(canon.JSON(map[string]any{"messages": encoded})))
	return hex.EncodeToString(sum[:])
}

// Upsert validates, recomputes the content hash, and writes a session.
func (s *SessionStore) Upsert(ctx context.Context, ownerID string, sess models.Session) (*models.Session, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}
	if sess.SessionID == "" {
		return nil, NewValidationError("sessionId", "required")
	}

	now := time.Now()
	sess.OwnerID = ownerID
	sess.ContentHash = ComputeContentHash(sess.Messages)
	sess.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	shard, ok := s.sessions[ownerID]
	if !ok {
		shard = make(map[string]*models.Session)
		s.sessions[ownerID] = shard
	}
	if existing, ok := shard[sess.SessionID]; ok {
		sess.CreatedAt = existing.CreatedAt
	} else {
		sess.CreatedAt = now
	}

	stored := sess
	shard[sess.SessionID] = &stored

	out := stored
	return &out, nil
}

// Get retrieves a session, verifying its content hash on read. A mismatch
// returns *HashMismatchError carrying the expected hash for client resync.
func (s *SessionStore) Get(ctx context.Context, ownerID, sessionID string) (*models.Session, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shard, ok := s.sessions[ownerID]
	if !ok {
		return nil, ErrNotFound
	}
	sess, ok := shard[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	expected := ComputeContentHash(sess.Messages)
	if expected != sess.ContentHash {
		return nil, &HashMismatchError{Expected: expected, Actual: sess.ContentHash}
	}

	out := *sess
	return &out, nil
}

// List returns an owner's sessions ordered by sessionID for determinism,
// applying limit/offset and optionally stripping message bodies.
func (s *SessionStore) List(ctx context.Context, ownerID string, limit, offset int, includeMessages bool) ([]models.Session, error) {
	if ownerID == "" {
		return nil, ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shard := s.sessions[ownerID]
	ids := make([]string, 0, len(shard))
	for id := range shard {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]models.Session, 0, len(ids))
	for _, id := range ids {
		sess := *shard[id]
		if !includeMessages {
			sess.Messages = nil
		}
		out = append(out, sess)
	}
	return out, nil
}

// Delete removes a session. Deleting an absent session is a no-op success,
// matching idempotent delete semantics.
func (s *SessionStore) Delete(ctx context.Context, ownerID, sessionID string) error {
	if ownerID == "" {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shard, ok := s.sessions[ownerID]
	if !ok {
		return nil
	}
	delete(shard, sessionID)
	return nil
}
