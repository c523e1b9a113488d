package blobstore

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps objects in process. It backs local runs without a bucket
// and records every Delete call.
type MemoryStore struct {
	BaseURL string

	mu          sync.Mutex
	objects     map[string][]byte
	deleteCalls [][]string
	PutErr      error
	DeleteErr   error
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (m *MemoryStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.objects[key] = append([]byte(nil), data...)
	return m.BaseURL + "/" + key, nil
}

func (m *MemoryStore) Delete(_ context.Context, urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, append([]string(nil), urls...))
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for _, u := range urls {
		if obj := objectPath(m.BaseURL, "", u); obj != "" {
			delete(m.objects, obj)
		}
	}
	return nil
}

func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// DeleteCalls returns the URL batches passed to Delete, in call order.
func (m *MemoryStore) DeleteCalls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.deleteCalls))
	copy(out, m.deleteCalls)
	return out
}
