package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForRejectsNonTextFiles(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"notes/today.txt", "note"},
		{"docs/readme.md", "markdown"},
		{"docs/README.MARKDOWN", "markdown"},
		{"report.pdf", ""},
		{"image.png", ""},
		{"no_extension", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, typeFor(tt.path), tt.path)
	}
}
