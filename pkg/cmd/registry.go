package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownCommand is returned by Dispatch for names nothing was registered under.
var ErrUnknownCommand = errors.New("unknown command")

// Registry stores commands by name and dispatches invocations to them.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds commands, replacing any registered under the same name.
func (r *Registry) Register(cmds ...Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cmds {
		r.commands[c.Name()] = c
	}
}

// Get returns the command with the given name, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// GetAll returns all registered commands sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Dispatch runs the command registered under name.
func (r *Registry) Dispatch(ctx context.Context, name string, inv *Invocation) error {
	c := r.Get(name)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return c.Run(ctx, inv)
}
