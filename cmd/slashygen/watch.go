package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/keshon/slashy/internal/generator"
	"github.com/keshon/slashy/pkg/jobmgr"
)

var debounce time.Duration

// initialJob names the full run that starts a watch.
const initialJob = "initial"

var watchCmd = &cobra.Command{
	Use:   "watch [packages]",
	Short: "Regenerate outputs whenever an input file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, done, err := newGenerator(cmd, args)
		if err != nil {
			return err
		}
		defer done()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return watch(ctx, g)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "quiet period before a changed file is regenerated")
}

func watch(ctx context.Context, g *generator.Generator) error {
	dirs, err := generator.Dirs(g.Config.Packages)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	log.Printf("[INFO] Watching %d director(ies), press Ctrl+C to exit", len(dirs))

	jobs := jobmgr.NewManager(func(msg string) {
		log.Printf("[INFO] job %s", msg)
	})
	defer jobs.Wait()

	if err := jobs.StartAsync(ctx, initialJob, func(ctx context.Context) error {
		_, err := g.Run(ctx, g.Config.Packages)
		return err
	}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] Watch stopped. %s", jobs.Status())
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := ev.Name
			if filepath.Ext(path) != ".go" {
				continue
			}
			if ev.Has(fsnotify.Remove) {
				if err := jobs.Stop(path); err == nil {
					log.Printf("[INFO] %s removed, pending regeneration dropped", path)
				}
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			jobs.Restart(ctx, path, debounce, func(context.Context) error {
				return regenerate(g, path)
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] Watcher error: %v", err)
		}
	}
}

// regenerate runs the generator for a changed file. Files that are not
// inputs, including the generator's own outputs, are ignored.
func regenerate(g *generator.Generator, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	res, err := g.Generate(path)
	if errors.Is(err, generator.ErrNotInput) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Printf("[WARN] %s", w)
	}
	if !res.Skipped {
		log.Printf("[INFO] %s: %d subcommand(s)", res.Input, len(res.Subcommands))
	}
	return nil
}
