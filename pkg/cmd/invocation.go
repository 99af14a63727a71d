// Package cmd provides the transport-agnostic dispatch table that generated
// subcommands are registered into: a command has a name, a description and
// Run(ctx, invocation). Transport adapters (Discord interactions, tests, CLI)
// build the Invocation and look commands up by name.
package cmd

import "context"

// Invocation carries what an adapter hands to a command: positional arguments
// and an opaque payload. The slashy runtime stores its *CommandContext in Data.
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Func builds a Command from a plain function.
func Func(name, description string, run func(ctx context.Context, inv *Invocation) error) Command {
	return &funcCommand{name: name, description: description, run: run}
}

type funcCommand struct {
	name        string
	description string
	run         func(ctx context.Context, inv *Invocation) error
}

func (f *funcCommand) Name() string        { return f.name }
func (f *funcCommand) Description() string { return f.description }

func (f *funcCommand) Run(ctx context.Context, inv *Invocation) error {
	return f.run(ctx, inv)
}
