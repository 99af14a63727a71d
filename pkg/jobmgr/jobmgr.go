// Package jobmgr runs named background jobs with cancellation, status
// callbacks and in-memory tracking of running jobs.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    log.Println("[INFO] job", msg)
//	})
//
//	// every change to a file restarts its pending job, so a burst of
//	// writes results in one run
//	jm.Restart(ctx, path, 200*time.Millisecond, func(ctx context.Context) error {
//	    return regenerate(path)
//	})
//
//	jm.Wait()
package jobmgr

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Job is a running unit of work. Jobs are added and removed by Manager.
type Job struct {
	Name   string
	Cancel context.CancelFunc
}

// StatusReporter receives lifecycle events for jobs:
//
//	running:gen/ban.go
//	error:gen/ban.go:ban.go:6:19: subcommand Bad is missing a return type
//	done:gen/ban.go
//	cancelled:gen/ban.go
type StatusReporter func(string)

// Manager starts, stops and tracks jobs. It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	jobs     map[string]*Job
	Reporter StatusReporter
}

// NewManager creates a Manager. reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// StartAsync runs runner in a new goroutine. It fails if a job with the same
// name is running. The job's context is derived from ctx.
func (m *Manager) StartAsync(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[name]; exists {
		return fmt.Errorf("job '%s' is already running", name)
	}
	m.start(ctx, name, 0, runner)
	return nil
}

// Restart cancels the job called name, if any, and starts runner after
// delay. Calls arriving within delay of each other collapse into one run.
func (m *Manager) Restart(ctx context.Context, name string, delay time.Duration, runner func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.jobs[name]; ok {
		old.Cancel()
		delete(m.jobs, name)
	}
	m.start(ctx, name, delay, runner)
}

// start must be called with m.mu held.
func (m *Manager) start(ctx context.Context, name string, delay time.Duration, runner func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{Name: name, Cancel: cancel}
	m.jobs[name] = job

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.remove(job)
		defer cancel()

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				m.report("cancelled:" + name)
				return
			case <-t.C:
			}
		}

		m.report("running:" + name)
		if err := runner(ctx); err != nil {
			m.report("error:" + name + ":" + err.Error())
			return
		}
		m.report("done:" + name)
	}()
}

// remove drops job unless it has been replaced by a newer job of the same name.
func (m *Manager) remove(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jobs[job.Name] == job {
		delete(m.jobs, job.Name)
	}
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job '%s' not running", name)
	}
	job.Cancel()
	delete(m.jobs, name)
	return nil
}

// Wait blocks until every started job has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// List returns the names of active jobs, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Status returns a human-readable summary of active jobs, such as
// "Running jobs: a.go, b.go" or "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
