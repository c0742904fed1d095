package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"statecore.yaml": "log:\n  level: debug\nbus:\n  isolate: true\nsource:\n  debounce: 250ms\n",
		"statecore.toml": "[log]\nlevel = \"debug\"\n[bus]\nisolate = true\n[source]\ndebounce = \"250ms\"\n",
		"statecore.json": `{"log": {"level": "debug"}, "bus": {"isolate": true}, "source": {"debounce": "250ms"}}`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			cfg, err := Load(path)
			require.NoError(t, err)

			assert.Equal(t, "debug", cfg.Log.Level)
			assert.Equal(t, "console", cfg.Log.Format, "unset keys keep defaults")
			assert.True(t, cfg.Bus.Isolate)
			assert.Equal(t, 250*time.Millisecond, cfg.Source.Debounce)
		})
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("STATECORE_LOG_LEVEL", "warn")
	t.Setenv("STATECORE_METRICS_ENABLED", "true")
	t.Setenv("STATECORE_METRICS_ADDR", "127.0.0.1:9100")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		content string
		want    string
	}{
		{
			name: "invalid level",
			env:  map[string]string{"STATECORE_LOG_LEVEL": "loud"},
			want: "config validation failed",
		},
		{
			name: "invalid format",
			env:  map[string]string{"STATECORE_SOURCE_FORMAT": "xml"},
			want: "config validation failed",
		},
		{
			name:    "metrics without addr",
			file:    "statecore.yaml",
			content: "metrics:\n  enabled: true\n  addr: \"\"\n",
			want:    "config validation failed",
		},
		{
			name: "missing file",
			file: "does-not-exist.yaml",
			want: "reading config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), tt.file)
			}
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
