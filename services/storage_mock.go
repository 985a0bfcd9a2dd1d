package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MockStorage is an in-memory Storage for testing
type MockStorage struct {
	files map[string][]byte
	mu    sync.RWMutex

	// SaveErr, when set, is returned by Save
	SaveErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string][]byte)}
}

// SetAsMockForTesting sets this mock as the global storage backend
func (m *MockStorage) SetAsMockForTesting() {
	SetStorage(m)
}

func (m *MockStorage) Save(_ context.Context, key string, fileHeader *multipart.FileHeader) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	m.files[key] = content
	m.mu.Unlock()
	return nil
}

func (m *MockStorage) URL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://test-bucket.s3.ap-south-1.amazonaws.com/%s?mock=true", key), nil
}

func (m *MockStorage) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[key]; !ok {
		return false, nil
	}
	delete(m.files, key)
	return true, nil
}

// Put stores content directly (for arranging tests)
func (m *MockStorage) Put(key string, content []byte) {
	m.mu.Lock()
	m.files[key] = content
	m.mu.Unlock()
}

// FileExists checks if a key exists in mock storage
func (m *MockStorage) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[key]
	return ok
}

// Keys returns every stored key
func (m *MockStorage) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	return keys
}
