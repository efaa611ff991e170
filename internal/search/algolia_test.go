package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHitToClient(t *testing.T) {
	h, ok := hitToClient(map[string]any{"objectID": "c1", "displayName": "Ana Ruiz", "email": "ana@example.com"})
	assert.True(t, ok)
	assert.Equal(t, ClientHit{ClientID: "c1", DisplayName: "Ana Ruiz", Email: "ana@example.com"}, h)

	h, ok = hitToClient(map[string]any{"objectID": "c2"})
	assert.True(t, ok)
	assert.Equal(t, "c2", h.DisplayName)

	_, ok = hitToClient(map[string]any{"displayName": "Sin ID"})
	assert.False(t, ok)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", -1, 0, 0, 20},
		{"max size", 2, 500, 2, 100},
		{"passthrough", 3, 10, 3, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := clampPage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p)
			assert.Equal(t, tt.wantSz, s)
		})
	}
}

func TestNewClientDirectoryRequiresCredentials(t *testing.T) {
	_, err := NewClientDirectory(Config{})
	assert.Error(t, err)
}
