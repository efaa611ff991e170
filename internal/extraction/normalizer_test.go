package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBankName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "exact alias", raw: "SANTANDER", want: "Santander"},
		{name: "banco prefix", raw: "Banco Santander S.A.", want: "Santander"},
		{name: "accents folded", raw: "Bankínter", want: "Bankinter"},
		{name: "alias inside longer name", raw: "Julius Baer Zurich", want: "Julius Baer"},
		{name: "acronym alias", raw: "bbva", want: "BBVA"},
		{name: "trailing colon from header", raw: "UBS:", want: "UBS"},
		{name: "unknown bank title cased", raw: "BANCA MARCH", want: "Banca March"},
		{name: "short words upper cased", raw: "caja de ahorros", want: "Caja DE Ahorros"},
		{name: "blank", raw: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBankName(tt.raw))
		})
	}
}
