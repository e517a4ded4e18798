package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminally-online/typewriter/internal/models"
)

func TestTable_AlignsColumns(t *testing.T) {
	tb := newTable("ID", "TITLE")
	tb.add("1", "Hello")
	tb.add("1024", "World")

	var out bytes.Buffer
	require.NoError(t, tb.render(&out))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	col := strings.Index(lines[0], "TITLE")
	assert.Equal(t, col, strings.Index(lines[1], "Hello"))
	assert.Equal(t, col, strings.Index(lines[2], "World"))
}

func TestPrintPosts_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printPosts(&out, nil))
	assert.Equal(t, "No posts.\n", out.String())
}

func TestPrintCategories_JSON(t *testing.T) {
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })

	var out bytes.Buffer
	require.NoError(t, printCategories(&out, []models.Category{{ID: 1, Title: "Go", Slug: "go"}}))
	assert.Contains(t, out.String(), `"slug": "go"`)
}
