package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_Commands(t *testing.T) {
	for _, path := range [][]string{
		{"serve"},
		{"migrate", "up"},
		{"migrate", "status"},
		{"migrate", "rollback"},
		{"migrate", "verify"},
		{"post", "by-category"},
		{"post", "categories"},
		{"category", "delete"},
		{"draft", "publish"},
		{"draft", "watch"},
		{"migrate", "sum"},
		{"dev", "stop"},
		{"dev", "db"},
	} {
		cmd, _, err := Root().Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("dev")

	var out bytes.Buffer
	root := Root()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	defer root.SetArgs(nil)

	require.NoError(t, root.Execute())
	assert.Equal(t, "typewriter 1.2.3\n", out.String())
}
