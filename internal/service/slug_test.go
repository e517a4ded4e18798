package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hi", "hi"},
		{"Hello, World!", "hello-world"},
		{"  Spaces   everywhere ", "spaces-everywhere"},
		{"!!", fallbackSlug},
		{"a", fallbackSlug},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, baseSlug(tt.title))
		})
	}
}

func TestBaseSlug_Truncates(t *testing.T) {
	got := baseSlug(strings.Repeat("word ", 20))

	assert.LessOrEqual(t, len(got), maxSlugBase)
	assert.False(t, strings.HasSuffix(got, "-"), "slug %q should not end with a dash", got)
}

func TestNextSlug(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		taken []string
		want  string
	}{
		{"free", "hi", nil, "hi"},
		{"only suffixed taken", "hi", []string{"hi-2"}, "hi"},
		{"base taken", "hi", []string{"hi"}, "hi-2"},
		{"gap", "hi", []string{"hi", "hi-2", "hi-4"}, "hi-3"},
		{"unrelated", "hi", []string{"hi-there"}, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextSlug(tt.base, tt.taken))
		})
	}
}
