package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/slashy/internal/config"
	"github.com/keshon/slashy/internal/generator"
)

const input = `//go:build slashy

package mod

import "github.com/keshon/slashy/pkg/slashy"

//slashy:subcommand false, slashy.IsAdministrator
func Purge(cc *slashy.CommandContext) error {
	return nil
}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "slashygen ")
}

func TestGenerateThenCheck(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("purge.go", []byte(input), 0o644))

	_, err := run(t, "check", "--no-cache", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of date")

	_, err = run(t, "generate", "--no-cache", ".")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "purge_slashy.go"))
	assert.FileExists(t, filepath.Join(dir, "purge_slashy_testprofile.go"))

	_, err = run(t, "check", "--no-cache", ".")
	require.NoError(t, err)
}

func TestWatchRunsInitialGeneration(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("purge.go", []byte(input), 0o644))

	cfg := config.Default()
	cfg.Packages = []string{"."}
	g := generator.New(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watch(ctx, g) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "purge_slashy_testprofile.go"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
