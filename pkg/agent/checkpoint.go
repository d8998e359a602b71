package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpointer persists conversation state keyed by thread id.
type Checkpointer interface {
	Load(ctx context.Context, threadID string) (*State, error)
	Save(ctx context.Context, threadID string, state *State) error
	Delete(ctx context.Context, threadID string) error
	Close() error
}

// MemoryCheckpointer keeps state in process. Used in tests and when no
// durable store is configured.
type MemoryCheckpointer struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{states: make(map[string][]byte)}
}

func (m *MemoryCheckpointer) Load(_ context.Context, threadID string) (*State, error) {
	m.mu.RLock()
	raw, ok := m.states[threadID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryCheckpointer) Save(_ context.Context, threadID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.states[threadID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryCheckpointer) Delete(_ context.Context, threadID string) error {
	m.mu.Lock()
	delete(m.states, threadID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCheckpointer) Close() error {
	return nil
}
