package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	var got []string
	r.Register(
		Func("warn", "warn a member", func(_ context.Context, inv *Invocation) error {
			got = append(got, "warn:"+inv.Args[0])
			return nil
		}),
		Func("ban", "ban a member", func(context.Context, *Invocation) error {
			got = append(got, "ban")
			return nil
		}),
	)

	require.NoError(t, r.Dispatch(context.Background(), "warn", &Invocation{Args: []string{"bob"}}))
	require.NoError(t, r.Dispatch(context.Background(), "ban", &Invocation{}))
	assert.Equal(t, []string{"warn:bob", "ban"}, got)

	err := r.Dispatch(context.Background(), "kick", &Invocation{})
	assert.ErrorIs(t, err, ErrUnknownCommand)

	names := []string{}
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"ban", "warn"}, names)
}

func TestApplyOrderAndRoot(t *testing.T) {
	base := Func("ping", "pong", func(context.Context, *Invocation) error { return nil })

	var trace []string
	tag := func(name string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				trace = append(trace, name)
				return c.Run(ctx, inv)
			})
		}
	}

	c := Apply(base, tag("inner"), tag("outer"))
	require.NoError(t, c.Run(context.Background(), &Invocation{}))
	assert.Equal(t, []string{"outer", "inner"}, trace)
	assert.Equal(t, "ping", c.Name())
	assert.Same(t, base, Root(c))
}

func TestWrappedWithoutRunFuncDelegates(t *testing.T) {
	boom := errors.New("boom")
	w := &Wrapped{Inner: Func("x", "", func(context.Context, *Invocation) error { return boom })}
	assert.ErrorIs(t, w.Run(context.Background(), &Invocation{}), boom)
}
