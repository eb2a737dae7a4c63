package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appConfig struct {
	App struct {
		Name string `mapstructure:"name"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"app"`
	Idem struct {
		Prefix string `mapstructure:"prefix"`
	} `mapstructure:"idem"`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestLoadYAML(t *testing.T) {
	dir := writeConfigFile(t, `
app:
  name: payroll
  port: 8080
idem:
  prefix: "payroll:idem:"
`)

	loader, err := Load(WithPaths(dir))
	require.NoError(t, err)

	var cfg appConfig
	require.NoError(t, loader.Unmarshal(&cfg))
	assert.Equal(t, "payroll", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "payroll:idem:", cfg.Idem.Prefix)

	assert.Equal(t, "payroll", loader.Get("app.name"))
}

func TestUnmarshalKey(t *testing.T) {
	dir := writeConfigFile(t, `
idem:
  prefix: "x:"
`)

	loader, err := Load(WithPaths(dir))
	require.NoError(t, err)

	var sub struct {
		Prefix string `mapstructure:"prefix"`
	}
	require.NoError(t, loader.UnmarshalKey("idem", &sub))
	assert.Equal(t, "x:", sub.Prefix)
}

func TestEnvOverride(t *testing.T) {
	dir := writeConfigFile(t, `
app:
  name: from-file
`)

	t.Setenv("PAYIDEM_APP_NAME", "from-env")

	loader, err := Load(WithPaths(dir), WithEnvPrefix("PAYIDEM"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", loader.Get("app.name"))
}

func TestMissingFileIsNotFatal(t *testing.T) {
	loader, err := Load(WithPaths(t.TempDir()), WithName("nonexistent"))
	require.NoError(t, err)
	assert.Nil(t, loader.Get("anything"))
}
