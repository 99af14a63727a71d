// Command slashygen generates guarded subcommand wrappers from handler
// sources tagged with //go:build slashy.
//
// Usage:
//
//	//go:generate go run github.com/keshon/slashy/cmd/slashygen generate
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/slashy/internal/cache"
	"github.com/keshon/slashy/internal/config"
	"github.com/keshon/slashy/internal/generator"
	v "github.com/keshon/slashy/internal/version"
)

var (
	projectFile string
	workers     int
	noCache     bool
)

var rootCmd = &cobra.Command{
	Use:           v.AppName,
	Short:         "Generate permission-guarded Discord subcommands",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	log.SetFlags(0)

	rootCmd.PersistentFlags().StringVar(&projectFile, "config", "", "project file (default slashy.hcl if present)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "files transformed concurrently (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "do not read or write the input cache")

	rootCmd.AddCommand(generateCmd, checkCmd, watchCmd, docsCmd, versionCmd)
}

// loadConfig applies flags over the loaded configuration.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(projectFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if len(args) > 0 {
		cfg.Packages = args
	}
	return cfg, cfg.Validate()
}

// openCache returns nil when caching is off; generation then always runs.
func openCache(ctx context.Context, cfg *config.Config) *cache.Cache {
	if noCache || cfg.CachePath == "" {
		return nil
	}
	c, err := cache.Open(ctx, cfg.CachePath)
	if err != nil {
		log.Printf("[WARN] Cache disabled: %v", err)
		return nil
	}
	return c
}

func newGenerator(cmd *cobra.Command, args []string) (*generator.Generator, func(), error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	c := openCache(cmd.Context(), cfg)
	closeCache := func() {
		if err := c.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}
	return generator.New(cfg, c), closeCache, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
