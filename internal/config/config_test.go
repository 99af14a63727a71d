package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadProjectFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slashy.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
input_tag = "handlers"
suffix    = "_guarded"
workers   = 2
packages  = ["./commands", "./admin"]
`), 0o644))
	chdir(t, dir)
	t.Setenv("SLASHY_WORKERS", "8")
	t.Setenv("SLASHY_TEST_TAG", "unit")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "handlers", cfg.InputTag)
	assert.Equal(t, "unit", cfg.TestTag)
	assert.Equal(t, "_guarded", cfg.Suffix)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"./commands", "./admin"}, cfg.Packages)
	assert.Equal(t, Default().Runtime, cfg.Runtime)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
}

func TestLoadBadProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slashy.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`workers = "many"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TestTag = cfg.InputTag
	assert.ErrorContains(t, cfg.Validate(), "both")

	cfg = Default()
	cfg.Workers = 0
	assert.ErrorContains(t, cfg.Validate(), "workers")

	cfg = Default()
	assert.NoError(t, cfg.Validate())
	assert.NotEqual(t, cfg.Fingerprint(), (&Config{InputTag: "x", TestTag: "y", Suffix: "z", Runtime: "r"}).Fingerprint())
}

func TestLoadBotRequiresToken(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DISCORD_TOKEN", "")
	os.Unsetenv("DISCORD_TOKEN")

	_, err := LoadBot()
	require.Error(t, err)

	t.Setenv("DISCORD_TOKEN", "abc")
	t.Setenv("SLASHY_GUILD_ID", "42")
	b, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, "abc", b.DiscordToken)
	assert.Equal(t, "42", b.GuildID)
}
