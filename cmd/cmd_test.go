package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/weftlabs/weft/internal/config"
)

func TestInit_ScaffoldsProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "myapp")

	require.NoError(t, runInit(initCmd, []string{dir}))

	configBytes, err := os.ReadFile(filepath.Join(dir, ".weft.yml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(configBytes, &cfg))
	assert.Equal(t, 8120, cfg.Server.Port)
	assert.Equal(t, "/static/components/", cfg.Static.Prefix)
	assert.Equal(t, []string{"./components"}, cfg.Components.Roots)
	assert.True(t, cfg.Development.HotReload)

	for _, name := range []string{"hello.weft", "hello.css", "badge.weft", "badge.css", "badge.js"} {
		_, err := os.Stat(filepath.Join(dir, "components", name))
		assert.NoError(t, err, name)
	}
}

func TestInit_RefusesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".weft.yml"), []byte("server:\n  port: 1\n"), 0o644))

	err := runInit(initCmd, []string{dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestFlagValidation(t *testing.T) {
	assert.NoError(t, validatePort("8120"))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("70000"))
	assert.Error(t, validatePort("http"))

	oneOf := validateOneOf("table", "json", "yaml")
	assert.NoError(t, oneOf("json"))
	assert.Error(t, oneOf("csv"))

	err := listCmd.Flags().Set("format", "csv")
	require.Error(t, err)
	require.NoError(t, listCmd.Flags().Set("format", "table"))
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "list", "init", "version"} {
		assert.True(t, names[want], want)
	}
}
