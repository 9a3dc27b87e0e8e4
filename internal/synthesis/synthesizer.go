// Package synthesis combines the two teammates' independently submitted
// actions into one executable team turn.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"shogi2vs2/internal/kv"
)

// Synthesizer buffers one action per player for a (game, team) pair and
// releases the pair exactly once: either when the second distinct player
// submits, or when ForceRelease drains whatever is present on timeout.
//
// The check-then-append-then-maybe-release sequence is serialized by a
// per-(game, team) mutex, so atomicity does not depend on the store's
// transaction model, nor on any per-game lock taken later in the pipeline.
type Synthesizer struct {
	store kv.Store
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds a Synthesizer over the given store. ttl bounds how long a lone
// buffered action survives; it should slightly exceed the turn duration so
// a normal release or force-release always comes first.
func New(store kv.Store, ttl time.Duration) *Synthesizer {
	return &Synthesizer{
		store: store,
		ttl:   ttl,
		locks: make(map[string]*sync.Mutex),
	}
}

func bufferKey(gameID, teamID string) string {
	return "game:" + gameID + ":team:" + teamID + ":moves"
}

func submittedKey(gameID, teamID string) string {
	return "game:" + gameID + ":team:" + teamID + ":submitted"
}

func (s *Synthesizer) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[key] = l
	return l
}

// Submit buffers one player's action for the team's current turn.
//
// A repeated submission from a user already in the current buffer
// generation is dropped silently and reported as pending. The first
// distinct submission is persisted with an expiry and reported as pending;
// the second atomically drains the buffer and returns both actions, in
// arrival order, with released=true.
func (s *Synthesizer) Submit(ctx context.Context, gameID, teamID string, action Action) (released []Action, ok bool, err error) {
	key := bufferKey(gameID, teamID)
	dedup := submittedKey(gameID, teamID)

	l := s.lockFor(key)
	l.Lock()
	defer l.Unlock()

	newSubmitter, err := s.store.SetAdd(ctx, dedup, action.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("synthesis dedup: %w", err)
	}
	if !newSubmitter {
		return nil, false, nil
	}

	payload, err := json.Marshal(action)
	if err != nil {
		return nil, false, fmt.Errorf("synthesis encode: %w", err)
	}
	size, err := s.store.ListAppend(ctx, key, payload)
	if err != nil {
		// The dedup entry must not outlive a failed append, or the
		// submitter's retry would be silently swallowed until the TTL.
		_ = s.store.SetRemove(ctx, dedup, action.UserID)
		return nil, false, fmt.Errorf("synthesis append: %w", err)
	}

	if size < 2 {
		err := s.store.Expire(ctx, key, s.ttl)
		if err == nil {
			err = s.store.Expire(ctx, dedup, s.ttl)
		}
		if err != nil {
			// The lone entry is ours; drop the whole generation so a retry
			// starts clean rather than double-buffering.
			_ = s.store.Delete(ctx, key, dedup)
			return nil, false, fmt.Errorf("synthesis expire: %w", err)
		}
		return nil, false, nil
	}

	actions, err := s.drain(ctx, gameID, teamID)
	if err != nil {
		return nil, false, err
	}
	return actions, true, nil
}

// ForceRelease drains the buffer unconditionally, returning zero, one or
// two actions. Used on turn timeout so a half-submitted turn still
// resolves.
func (s *Synthesizer) ForceRelease(ctx context.Context, gameID, teamID string) ([]Action, error) {
	l := s.lockFor(bufferKey(gameID, teamID))
	l.Lock()
	defer l.Unlock()
	return s.drain(ctx, gameID, teamID)
}

func (s *Synthesizer) drain(ctx context.Context, gameID, teamID string) ([]Action, error) {
	key := bufferKey(gameID, teamID)
	dedup := submittedKey(gameID, teamID)

	raw, err := s.store.ListRange(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("synthesis read: %w", err)
	}
	if err := s.store.Delete(ctx, key, dedup); err != nil {
		return nil, fmt.Errorf("synthesis clear: %w", err)
	}

	actions := make([]Action, 0, len(raw))
	for _, payload := range raw {
		var a Action
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("synthesis decode: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Discard clears both teams' buffers for a game, for match teardown and
// resignation cleanup.
func (s *Synthesizer) Discard(ctx context.Context, gameID string, teamIDs ...string) error {
	for _, teamID := range teamIDs {
		l := s.lockFor(bufferKey(gameID, teamID))
		l.Lock()
		err := s.store.Delete(ctx, bufferKey(gameID, teamID), submittedKey(gameID, teamID))
		l.Unlock()
		if err != nil {
			return fmt.Errorf("synthesis discard: %w", err)
		}
	}
	s.forgetLocks(gameID, teamIDs...)
	return nil
}

func (s *Synthesizer) forgetLocks(gameID string, teamIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, teamID := range teamIDs {
		delete(s.locks, bufferKey(gameID, teamID))
	}
}
