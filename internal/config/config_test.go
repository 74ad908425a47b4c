package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kike-0203/watchy-solver-clean/internal/config"

	"github.com/stretchr/testify/require"
)

func TestResolvePort(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "unset", raw: "", want: 8000},
		{name: "valid", raw: "9001", want: 9001},
		{name: "valid with spaces", raw: " 443 ", want: 443},
		{name: "lower bound", raw: "1", want: 1},
		{name: "upper bound", raw: "65535", want: 65535},
		{name: "zero", raw: "0", want: 8000},
		{name: "negative", raw: "-1", want: 8000},
		{name: "too large", raw: "65536", want: 8000},
		{name: "non numeric", raw: "oops", want: 8000},
		{name: "float", raw: "80.80", want: 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, config.ResolvePort(tt.raw))
		})
	}
}

func TestLoad_EnvOnlyWithoutConfigFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr)
	require.Equal(t, "https://api.openai.com/v1", cfg.Vision.BaseURL)
	require.True(t, cfg.Solver.ReuseStored)
	require.Positive(t, cfg.GracefulShutdownTimeout)
}

func TestLoad_PortEnvOverridesAddr(t *testing.T) {
	t.Setenv("PORT", "9001")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9001", cfg.HTTP.Addr)
}

func TestLoad_MalformedPortFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err, "a malformed PORT must not fail startup")
	require.Equal(t, "0.0.0.0:8000", cfg.HTTP.Addr)
}

func TestLoad_PortBeatsHTTPAddr(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:3000")
	t.Setenv("PORT", "4000")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:4000", cfg.HTTP.Addr)
}

func TestLoad_YamlFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
environment: production
http:
  addr: 0.0.0.0:8080
vision:
  model: gpt-4o
store:
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	require.Equal(t, "gpt-4o", cfg.Vision.Model)
	require.Equal(t, "sk-test", cfg.Vision.APIKey)
}
