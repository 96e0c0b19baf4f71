package submission

import (
	"context"
	"formflow/authority"
	"formflow/bizerror"
	"formflow/domain/notify"
	"sync"
	"time"
)

// Actor is whoever applies a transition
type Actor struct {
	ID           notify.UserID
	Name         string
	Capabilities authority.Permissions
}

// StateChange is the single mutation of a successful Apply
type StateChange struct {
	EntityID   string
	EntityDesc string
	From       string
	To         string
	Action     string
	Comment    string
	Actor      Actor
	Time       time.Time
}

// StateStore owns the current state of entities.
// CompareAndSwapState applies change only while the entity is still in change.From and reports whether it did.
type StateStore interface {
	CurrentState(ctx context.Context, entityID string) (string, error)
	CompareAndSwapState(ctx context.Context, change StateChange) (bool, error)
}

// MemoryStateStore keeps states and applied changes in process
type MemoryStateStore struct {
	mu      sync.Mutex
	states  map[string]string
	changes map[string][]StateChange
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: map[string]string{}, changes: map[string][]StateChange{}}
}

func (s *MemoryStateStore) Put(entityID, stateCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[entityID] = stateCode
}

func (s *MemoryStateStore) CurrentState(ctx context.Context, entityID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.states[entityID]
	if !ok {
		return "", bizerror.ErrNotFound
	}
	return current, nil
}

func (s *MemoryStateStore) CompareAndSwapState(ctx context.Context, change StateChange) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.states[change.EntityID]
	if !ok {
		return false, bizerror.ErrNotFound
	}
	if current != change.From {
		return false, nil
	}
	s.states[change.EntityID] = change.To
	s.changes[change.EntityID] = append(s.changes[change.EntityID], change)
	return true, nil
}

// Changes returns the applied changes of an entity, oldest first
func (s *MemoryStateStore) Changes(entityID string) []StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StateChange{}, s.changes[entityID]...)
}
