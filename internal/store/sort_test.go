package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name  string
		spec  string
		def   string
		field string
		dir   int
	}{
		{"ascending field", "name", "createdAt", "name", 1},
		{"descending field", "-captureDate", "createdAt", "captureDate", -1},
		{"empty falls back to default", "", "-createdAt", "createdAt", -1},
		{"empty default falls back to createdAt", "", "", "createdAt", 1},
		{"bare dash falls back to createdAt descending", "-", "createdAt", "createdAt", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, dir := ParseSort(tt.spec, tt.def)
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.dir, dir)
		})
	}
}
