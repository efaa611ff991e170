package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAssistantText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"repeated word", "Tu patrimonio es es de 100 euros", "Tu patrimonio es de 100 euros"},
		{"case-insensitive word", "El el informe", "El informe"},
		{"phrase echo", "tu cartera esta bien tu cartera esta bien diversificada", "tu cartera esta bien diversificada"},
		{"seven word echo", "a b c d e f g a b c d e f g fin", "a b c d e f g fin"},
		{"punctuation run", "Hola!!! ¿Que tal??", "Hola! ¿Que tal?"},
		{"space runs", "  uno    dos\t\ttres  ", "uno dos tres"},
		{"numbers kept", "pagos de 10 10 euros", "pagos de 10 10 euros"},
		{"newlines kept", "linea uno\n\nlinea  dos", "linea uno\n\nlinea dos"},
		{"clean text untouched", "Tu rentabilidad es del 4.25%.", "Tu rentabilidad es del 4.25%."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeAssistantText(tt.in))
		})
	}
}

func TestSanitizeUserText(t *testing.T) {
	assert.Equal(t, "¿Cuál es mi patrimonio?", SanitizeUserText("  <b>¿Cuál es mi patrimonio?</b> "))
	assert.Equal(t, "Inversiones & deuda", SanitizeUserText("Inversiones & deuda<script>alert(1)</script>"))
	assert.Equal(t, "", SanitizeUserText("<img src=x>"))
}

func TestActiveStreams(t *testing.T) {
	a := NewActiveStreams(0)

	assert.True(t, a.Acquire("u1"))
	assert.False(t, a.Acquire("u1"))
	assert.True(t, a.Acquire("u2"))
	assert.True(t, a.Active("u1"))

	a.Release("u1")
	assert.False(t, a.Active("u1"))
	assert.True(t, a.Acquire("u1"))
}
