// Package config loads slashygen settings. Later sources override earlier
// ones: built-in defaults, the slashy.hcl project file, .env and the process
// environment (SLASHY_*), then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"
)

// ProjectFile is looked up in the working directory when no file is given.
const ProjectFile = "slashy.hcl"

// Config holds generator settings.
type Config struct {
	// InputTag marks handler sources, which are excluded from normal builds.
	InputTag string `env:"SLASHY_INPUT_TAG"`
	// TestTag selects the test profile output at build time.
	TestTag string `env:"SLASHY_TEST_TAG"`
	// Suffix is appended to an input's base name to name its outputs.
	Suffix string `env:"SLASHY_SUFFIX"`
	// Runtime is the import path of the package generated guards call.
	Runtime   string   `env:"SLASHY_RUNTIME"`
	Workers   int      `env:"SLASHY_WORKERS"`
	CachePath string   `env:"SLASHY_CACHE"`
	Packages  []string `env:"SLASHY_PACKAGES" envSeparator:","`
}

type fileConfig struct {
	InputTag  string   `hcl:"input_tag,optional"`
	TestTag   string   `hcl:"test_tag,optional"`
	Suffix    string   `hcl:"suffix,optional"`
	Runtime   string   `hcl:"runtime,optional"`
	Workers   int      `hcl:"workers,optional"`
	CachePath string   `hcl:"cache,optional"`
	Packages  []string `hcl:"packages,optional"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		InputTag:  "slashy",
		TestTag:   "slashytest",
		Suffix:    "_slashy",
		Runtime:   "github.com/keshon/slashy/pkg/slashy",
		Workers:   4,
		CachePath: ".slashy/cache.json",
		Packages:  []string{"."},
	}
}

var dotenvOnce sync.Once

func loadDotEnv() {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("[WARN] Failed to read .env: %v", err)
		}
	})
}

// Load reads settings. path names the project file; when empty, ProjectFile
// is used if it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = ProjectFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, fmt.Errorf("project file: %w", err)
	}

	loadDotEnv()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	var fc fileConfig
	if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
		return fmt.Errorf("project file %s: %w", path, err)
	}
	if fc.InputTag != "" {
		c.InputTag = fc.InputTag
	}
	if fc.TestTag != "" {
		c.TestTag = fc.TestTag
	}
	if fc.Suffix != "" {
		c.Suffix = fc.Suffix
	}
	if fc.Runtime != "" {
		c.Runtime = fc.Runtime
	}
	if fc.Workers != 0 {
		c.Workers = fc.Workers
	}
	if fc.CachePath != "" {
		c.CachePath = fc.CachePath
	}
	if len(fc.Packages) > 0 {
		c.Packages = fc.Packages
	}
	return nil
}

// Validate rejects settings the generator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.InputTag == "":
		return errors.New("config: input tag is empty")
	case c.TestTag == "":
		return errors.New("config: test tag is empty")
	case c.InputTag == c.TestTag:
		return fmt.Errorf("config: input and test tags are both %q", c.InputTag)
	case c.Suffix == "":
		return errors.New("config: output suffix is empty")
	case c.Runtime == "":
		return errors.New("config: runtime import path is empty")
	case c.Workers < 1:
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	return nil
}

// Fingerprint identifies the settings that change generated output.
func (c *Config) Fingerprint() string {
	return c.InputTag + "|" + c.TestTag + "|" + c.Suffix + "|" + c.Runtime
}

// Bot holds settings of the example bot.
type Bot struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	// GuildID registers commands in one guild instead of globally.
	GuildID string `env:"SLASHY_GUILD_ID"`
}

// LoadBot reads bot settings from .env and the environment.
func LoadBot() (*Bot, error) {
	loadDotEnv()
	var b Bot
	if err := env.Parse(&b); err != nil {
		return nil, fmt.Errorf("bot config: %w", err)
	}
	return &b, nil
}
