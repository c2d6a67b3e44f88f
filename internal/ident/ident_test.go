package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInstanceID_Shape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewInstanceID()
		assert.True(t, IsV4(id), "not a v4 id: %s", id)
		assert.False(t, seen[id], "duplicate id: %s", id)
		seen[id] = true
	}
}

func TestIsV4(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"canonical", "3f2504e0-4f89-41d3-9a0c-0305e82c3301", true},
		{"version 1", "3f2504e0-4f89-11d3-9a0c-0305e82c3301", false},
		{"bad variant", "3f2504e0-4f89-41d3-7a0c-0305e82c3301", false},
		{"upper case", "3F2504E0-4F89-41D3-9A0C-0305E82C3301", false},
		{"template", "xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsV4(tt.in))
		})
	}
}
