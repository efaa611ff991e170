package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

func TestToContents(t *testing.T) {
	system, contents := toContents([]Message{
		{Role: model.MessageRoleSystem, Content: "reglas"},
		{Role: model.MessageRoleUser, Content: "hola"},
		{Role: model.MessageRoleSystem, Content: "datos"},
		{Role: model.MessageRoleAssistant, Content: "buenas"},
		{Role: model.MessageRoleUser, Content: "mi patrimonio"},
	})

	assert.Equal(t, "reglas\n\ndatos", system)
	require.Len(t, contents, 3)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "buenas", contents[1].Parts[0].Text)
	assert.Equal(t, "mi patrimonio", contents[2].Parts[0].Text)
}

func TestNewGeminiStreamer_RequiresKey(t *testing.T) {
	_, err := NewGeminiStreamer(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestStream_RejectsSystemOnly(t *testing.T) {
	g := &GeminiStreamer{cfg: GeminiConfig{Model: DefaultGeminiModel}}
	_, err := g.Stream(context.Background(), []Message{{Role: model.MessageRoleSystem, Content: "x"}}, Options{}, func(string) error { return nil })
	assert.Error(t, err)
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.Stream(context.Background(), nil, Options{}, func(string) error { return nil })
	assert.ErrorIs(t, err, ErrNotConfigured)
}
