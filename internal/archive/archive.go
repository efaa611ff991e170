// Package archive keeps the original bytes of uploaded statements so they
// can be re-extracted later.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
)

// ErrNotFound is returned when an archived object does not exist.
var ErrNotFound = errors.New("archived object not found")

// Archive stores and retrieves statement blobs by path.
type Archive interface {
	Put(ctx context.Context, objectPath string, data []byte, contentType string) error
	Get(ctx context.Context, objectPath string) ([]byte, error)
}

// StatementPath is the object path of an uploaded statement.
func StatementPath(ownerID, documentID, filename string) string {
	return path.Join("statements", ownerID, documentID, sanitizeFilename(filename))
}

// sanitizeFilename removes or replaces characters unsafe for object names.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "")
	result := strings.TrimSpace(replacer.Replace(s))
	if result == "" {
		return "statement"
	}
	if r := []rune(result); len(r) > 80 {
		result = string(r[:80])
	}
	return result
}

// MemoryArchive is an in-process Archive for development and tests.
type MemoryArchive struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryArchive creates an empty in-memory archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{objects: make(map[string][]byte)}
}

func (m *MemoryArchive) Put(_ context.Context, objectPath string, data []byte, _ string) error {
	if objectPath == "" {
		return fmt.Errorf("object path is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectPath] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryArchive) Get(_ context.Context, objectPath string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectPath]
	if !ok {
		return nil, fmt.Errorf("%s: %w", objectPath, ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

var _ Archive = (*MemoryArchive)(nil)
