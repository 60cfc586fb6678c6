package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/siphon/internal/common"
	"github.com/Veraticus/siphon/internal/storage"
)

// runCLI executes the root command against dbPath with an isolated home
// directory and returns everything written to stdout.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, sub := range cmd.Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	return nil
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"migrate", "seed", "backup", "categories", "services", "subscriptions", "version"} {
		assert.NotNil(t, findSubcommand(root, name), "%s subcommand should exist", name)
	}

	for _, flag := range []string{"config", "db", "log-level", "log-format"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "%s flag should exist", flag)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, filepath.Join(t.TempDir(), "siphon.db"), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "siphon dev")
	assert.Contains(t, out, "schema v3")
}

func TestInitConfig_EnvDatabasePath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "from-env.db")

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("SIPHON_DATABASE_PATH", dbPath)
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, dbPath, databasePath())
	assert.FileExists(t, dbPath)
}

func TestInitConfig_InvalidLogLevel(t *testing.T) {
	_, err := runCLI(t, filepath.Join(t.TempDir(), "siphon.db"), "--log-level", "chatty", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to setup logging")
}

func TestMigrateCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "siphon.db")

	out, err := runCLI(t, dbPath, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "pending: 1 create_tables")

	out, err = runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "from version 0 to 3")

	out, err = runCLI(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "already at version 3")

	out, err = runCLI(t, dbPath, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 3")
	assert.NotContains(t, out, "pending")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.ExpectedSchemaVersion, version)
}

func TestBackupCmd(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "siphon.db")
	dest := filepath.Join(dir, "copy.db")

	out, err := runCLI(t, dbPath, "backup", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to "+dest)
	assert.Contains(t, out, "categories")
	assert.FileExists(t, dest)

	_, err = runCLI(t, dbPath, "backup", dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrBackupExists)

	copied, err := storage.Open(context.Background(), dest)
	require.NoError(t, err)
	defer func() { _ = copied.Close() }()
	cats, err := copied.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, len(storage.DefaultCategories()))
}

func TestBackupCmd_DefaultLocation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "siphon.db")

	out, err := runCLI(t, dbPath, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "backups"))

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "siphon-*.db"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestInitConfig_MissingConfigFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.yaml")

	_, err := runCLI(t, filepath.Join(dir, "siphon.db"), "--config", missing, "version")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	assert.True(t, common.IsUserError(err))
}

func TestInitConfig_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "from-config.db")
	require.NoError(t, os.WriteFile(cfg, []byte("database:\n  path: "+dbPath+"\n"), 0600))

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", cfg, "migrate"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.FileExists(t, dbPath)
}
