package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/keshon/slashy/internal/cache"
	"github.com/keshon/slashy/internal/guard"
	"github.com/keshon/slashy/internal/version"
	"github.com/keshon/slashy/pkg/util"
)

// Dirs expands package patterns into directories. A pattern ending in
// "/..." matches the directory and all directories below it, skipping
// testdata, vendor and names starting with "." or "_".
func Dirs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		d = filepath.Clean(d)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	for _, pat := range patterns {
		root, recursive := strings.CutSuffix(pat, "/...")
		if pat == "..." {
			root, recursive = ".", true
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pat, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("package %s: not a directory", pat)
		}
		if !recursive {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			name := d.Name()
			if path != root && (name == "testdata" || name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

// Inputs lists the input files directly in dir.
func (g *Generator) Inputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var inputs []string
	for _, e := range entries {
		if e.IsDir() || !isGoSource(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ok, err := isInput(fset, path, nil, g.Config.InputTag)
		if err != nil {
			return nil, err
		}
		if ok {
			inputs = append(inputs, path)
		}
	}
	return inputs, nil
}

func (g *Generator) collectInputs(patterns []string) ([]string, error) {
	dirs, err := Dirs(patterns)
	if err != nil {
		return nil, err
	}
	var inputs []string
	for _, d := range dirs {
		in, err := g.Inputs(d)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in...)
	}
	return inputs, nil
}

func (g *Generator) hash(src []byte) string {
	return cache.Hash(src, []byte(g.Config.Fingerprint()), []byte(version.String()))
}

// Generate transforms one input file and writes its outputs.
func (g *Generator) Generate(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	sum := g.hash(src)

	if !g.Force && g.Cache.Fresh(key, sum) && g.outputsExist(path) {
		return &Result{Input: path, Skipped: true}, nil
	}

	res, err := g.Transform(path, src)
	if err != nil {
		g.forget(key)
		return nil, err
	}
	for _, o := range res.Outputs {
		if err := writeIfChanged(o.Path, o.Src); err != nil {
			g.forget(key)
			return nil, err
		}
	}
	if err := g.Cache.Store(key, sum); err != nil {
		log.Printf("[WARN] Cache: %v", err)
	}
	return res, nil
}

func (g *Generator) forget(key string) {
	if err := g.Cache.Forget(key); err != nil {
		log.Printf("[WARN] Cache: %v", err)
	}
}

func (g *Generator) outputsExist(input string) bool {
	for _, p := range guard.Profiles {
		if _, err := os.Stat(g.OutputPath(input, p)); err != nil {
			return false
		}
	}
	return true
}

func writeIfChanged(path string, src []byte) error {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, src) {
		return nil
	}
	return os.WriteFile(path, src, 0o644)
}

// Run generates every input found under patterns on Config.Workers
// goroutines. Results are ordered by input path; the error joins every
// failed input's error.
func (g *Generator) Run(ctx context.Context, patterns []string) ([]*Result, error) {
	inputs, err := g.collectInputs(patterns)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var results []*Result
	err = util.Parallel(ctx, inputs, g.Config.Workers, func(_ context.Context, path string) error {
		res, err := g.Generate(path)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			log.Printf("[WARN] %s", w)
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})

	slices.SortFunc(results, func(a, b *Result) int { return strings.Compare(a.Input, b.Input) })
	return results, err
}

// Describe transforms every input under patterns in memory without
// writing anything. Results are ordered by input path.
func (g *Generator) Describe(ctx context.Context, patterns []string) ([]*Result, error) {
	inputs, err := g.collectInputs(patterns)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	var results []*Result
	err = util.Parallel(ctx, inputs, g.Config.Workers, func(_ context.Context, path string) error {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		res, err := g.Transform(path, src)
		if err != nil {
			return err
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})

	slices.SortFunc(results, func(a, b *Result) int { return strings.Compare(a.Input, b.Input) })
	return results, err
}

// Check regenerates every input in memory and returns the output paths that
// are missing or differ from what would be generated.
func (g *Generator) Check(ctx context.Context, patterns []string) ([]string, error) {
	results, err := g.Describe(ctx, patterns)
	if err != nil {
		return nil, err
	}

	var stale []string
	for _, res := range results {
		for _, o := range res.Outputs {
			old, err := os.ReadFile(o.Path)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			if err != nil || !bytes.Equal(old, o.Src) {
				stale = append(stale, o.Path)
			}
		}
	}
	slices.Sort(stale)
	return stale, nil
}
