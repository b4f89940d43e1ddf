// Package store provides the conversation store: durable key-value
// storage for backend continuity tokens, keyed per (phone number, user).
package store

import (
	"context"
	"fmt"
	"sync"
)

// Store is the conversation persistence capability. Get returns
// (nil, nil) for a missing key; Set overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// keyPrefix scopes conversation keys in a shared keyspace.
const keyPrefix = "whatsapp:"

// ConversationKey derives the storage key for one conversation thread.
// Pure and deterministic: the same (phone_number_id, sender) pair always
// yields the same key, byte for byte.
func ConversationKey(phoneNumberID, senderID string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, phoneNumberID, senderID)
}

// Memory is an in-process Store for tests and redis-less deployments.
// Continuity then only survives as long as the process does.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}
