package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryProvider keeps objects in a map. It exists for tests and local
// experimentation.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryProvider returns an empty in-memory store.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{objects: make(map[string][]byte)}
}

// Save stores a copy of data under objectName.
func (p *MemoryProvider) Save(_ context.Context, objectName string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	p.objects[objectName] = buf
	return nil
}

// Load returns a copy of the stored object.
func (p *MemoryProvider) Load(_ context.Context, objectName string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", objectName, ErrNotFound)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}
