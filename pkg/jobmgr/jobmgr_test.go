package jobmgr

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) report(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestStartAsyncRejectsDuplicate(t *testing.T) {
	var rec recorder
	m := NewManager(rec.report)

	release := make(chan struct{})
	require.NoError(t, m.StartAsync(context.Background(), "a", func(ctx context.Context) error {
		<-release
		return errors.New("boom")
	}))
	assert.Error(t, m.StartAsync(context.Background(), "a", func(context.Context) error { return nil }))
	assert.Equal(t, []string{"a"}, m.List())
	assert.Equal(t, "Running jobs: a", m.Status())

	close(release)
	m.Wait()
	assert.Empty(t, m.List())
	assert.Equal(t, "No jobs are running.", m.Status())
	assert.Contains(t, rec.all(), "error:a:boom")
}

func TestRestartCollapsesBurst(t *testing.T) {
	var rec recorder
	m := NewManager(rec.report)

	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		m.Restart(context.Background(), "file.go", 50*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})
	}
	m.Wait()

	assert.Equal(t, int32(1), runs.Load())
	msgs := rec.all()
	assert.Contains(t, msgs, "done:file.go")
	cancelled := 0
	for _, s := range msgs {
		if s == "cancelled:file.go" {
			cancelled++
		}
	}
	assert.Equal(t, 4, cancelled)
	assert.Empty(t, m.List())
}

func TestStop(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Stop("missing"))

	started := make(chan struct{})
	require.NoError(t, m.StartAsync(context.Background(), "loop", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	<-started
	require.NoError(t, m.Stop("loop"))
	m.Wait()
	assert.Empty(t, m.List())
}
