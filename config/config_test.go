package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		check   func(t *testing.T, c Config)
		wantErr string
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, Default(), c)
			},
		},
		{
			name: "overrides",
			content: `
[log]
level = "debug"
sections = ["infer", "region"]

[check]
parallelism = 2
report_unresolved = false
`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, []string{"infer", "region"}, c.Log.Sections)
				assert.Equal(t, 2, c.Check.Parallelism)
				assert.False(t, c.Check.ReportUnresolved)
				level, err := c.SlogLevel()
				require.NoError(t, err)
				assert.Equal(t, slog.LevelDebug, level)
			},
		},
		{name: "unknown key", content: "[check]\nparallel = 3\n", wantErr: "unknown keys check.parallel"},
		{name: "bad level", content: "[log]\nlevel = \"loud\"\n", wantErr: "log.level"},
		{name: "bad parallelism", content: "[check]\nparallelism = 0\n", wantErr: "at least 1"},
		{name: "not toml", content: "[log\n", wantErr: "parsing"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tc.content)
			c, err := Load(path)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, c)
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, c, err := Find(nested)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), c)

	want := writeConfig(t, root, "[check]\nparallelism = 7\n")
	path, c, err = Find(nested)
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, 7, c.Check.Parallelism)
}
