package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := load("", mapLookup(nil))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "localhost:8080", cfg.Addr())
	assert.Equal(t, "en", cfg.DefaultLang)
	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, Duration(time.Minute), cfg.IdleTimeout)
	assert.Empty(t, cfg.IgnoreFiles)
	assert.Empty(t, cfg.Warnings())
}

func TestEnvironment(t *testing.T) {
	cfg, err := load("", mapLookup(map[string]string{
		"ROOT_DIR":     "/srv/files",
		"IGNORE_FILES": " secret.txt, ,node_modules ",
		"FAVICON":      "https://example.com/favicon.ico",
		"HOST":         "0.0.0.0",
		"PORT":         "9000",
		"DEBUG":        "true",
		"IDLE_TIMEOUT": "90s",
		"BACKEND":      "SFTP",
		"SFTP_HOST":    "files.internal",
		"SFTP_PORT":    "2222",
		"DEFAULT_LANG": "fa",
		"LOG_FORMAT":   "console",
		"ignore_files": "shadowed",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/srv/files", cfg.Root)
	assert.Equal(t, []string{"secret.txt", "node_modules"}, cfg.IgnoreFiles)
	assert.Equal(t, "https://example.com/favicon.ico", cfg.Favicon)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.True(t, cfg.Debug)
	assert.Equal(t, Duration(90*time.Second), cfg.IdleTimeout)
	assert.Equal(t, BackendSFTP, cfg.Backend)
	assert.Equal(t, "files.internal", cfg.SFTP.Host)
	assert.Equal(t, 2222, cfg.SFTP.Port)
	assert.Equal(t, "fa", cfg.DefaultLang)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLegacyKeys(t *testing.T) {
	cfg, err := load("", mapLookup(map[string]string{
		"ignore_files": "a,b",
		"favicon":      "https://example.com/icon.ico",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.IgnoreFiles)
	assert.Equal(t, "https://example.com/icon.ico", cfg.Favicon)
}

func TestInvalidValues(t *testing.T) {
	t.Run("bad boolean and duration keep defaults", func(t *testing.T) {
		cfg, err := load("", mapLookup(map[string]string{
			"DEBUG":        "maybe",
			"IDLE_TIMEOUT": "soon",
		}))
		require.NoError(t, err)
		assert.False(t, cfg.Debug)
		assert.Equal(t, Duration(time.Minute), cfg.IdleTimeout)
		assert.Len(t, cfg.Warnings(), 2)
	})

	t.Run("font family", func(t *testing.T) {
		cfg, err := load("", mapLookup(map[string]string{"FONT_FAMILY": `'Open Sans', "Vazirmatn", sans-serif`}))
		require.NoError(t, err)
		assert.Equal(t, `'Open Sans', "Vazirmatn", sans-serif`, cfg.FontFamily)
		assert.Empty(t, cfg.Warnings())

		for _, v := range []string{"serif; color: red", "serif}</style><script>", "a\\62", "serif\nx"} {
			cfg, err := load("", mapLookup(map[string]string{"FONT_FAMILY": v}))
			require.NoError(t, err)
			assert.Equal(t, Default().FontFamily, cfg.FontFamily, v)
			assert.Len(t, cfg.Warnings(), 1)
		}
	})

	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"non numeric port", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"zero port", map[string]string{"PORT": "0"}},
		{"unknown backend", map[string]string{"BACKEND": "ftp"}},
		{"non numeric sftp port", map[string]string{"SFTP_PORT": "ssh"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load("", mapLookup(tc.env))
			assert.Error(t, err)
		})
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "dirserve.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
root = "/data"
ignore_files = ["lost+found"]
port = 8081
idle_timeout = "5m"
theme_color = "#000000"

[log]
level = "debug"

[sftp]
host = "backup"
user = "reader"
`), 0o644))

	t.Run("file values", func(t *testing.T) {
		cfg, err := load(file, mapLookup(nil))
		require.NoError(t, err)
		assert.Equal(t, "/data", cfg.Root)
		assert.Equal(t, []string{"lost+found"}, cfg.IgnoreFiles)
		assert.Equal(t, 8081, cfg.Port)
		assert.Equal(t, Duration(5*time.Minute), cfg.IdleTimeout)
		assert.Equal(t, "#000000", cfg.ThemeColor)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "backup", cfg.SFTP.Host)
		assert.Equal(t, 22, cfg.SFTP.Port)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		cfg, err := load(file, mapLookup(map[string]string{"PORT": "8082"}))
		require.NoError(t, err)
		assert.Equal(t, 8082, cfg.Port)
		assert.Equal(t, "/data", cfg.Root)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := load(filepath.Join(dir, "missing.toml"), mapLookup(nil))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.toml")
		require.NoError(t, os.WriteFile(bad, []byte("port = [\n"), 0o644))
		_, err := load(bad, mapLookup(nil))
		assert.Error(t, err)
	})
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("THEME_COLOR=\"#111111\"\nFONT_FAMILY=serif\n"), 0o644))

	t.Setenv("FONT_FAMILY", "monospace")
	cfg, err := Load("", envFile, map[string]string{"PORT": "9999"})
	require.NoError(t, err)

	assert.Equal(t, "#111111", cfg.ThemeColor)
	assert.Equal(t, "monospace", cfg.FontFamily)
	assert.Equal(t, 9999, cfg.Port)

	t.Run("missing env file is ignored", func(t *testing.T) {
		_, err := Load("", filepath.Join(dir, "none.env"), nil)
		assert.NoError(t, err)
	})
}
