package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvDataDir, home)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative", HistoryFile, filepath.Join(home, HistoryFile)},
		{"memory", ":memory:", ":memory:"},
		{"absolute", "/var/lib/sketch.db", "/var/lib/sketch.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", CredentialsFile)

	require.NoError(t, Ensure(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, Ensure(":memory:"))
}
