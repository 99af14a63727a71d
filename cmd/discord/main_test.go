package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/slashy/pkg/cmd"
	"github.com/keshon/slashy/pkg/slashy"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestDeniedCommandIsLoggedAndAnswered(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	s, err := discordgo.New("Bot token")
	require.NoError(t, err)
	var answered []string
	s.Client = &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		answered = append(answered, r.URL.Path)
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("")),
			Request:    r,
		}, nil
	})}

	denied := slashy.Reply("kick", "Kick a member", func(cc *slashy.CommandContext) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			return "", slashy.NewError(slashy.MsgPermissionDenied)
		}
	})
	c := cmd.Apply(denied, commandMiddleware()...)

	event := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i1",
		Token:   "tok",
		GuildID: "g1",
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "mallory"}},
	}}
	err = c.Run(context.Background(), &cmd.Invocation{Data: slashy.NewCommandContext(s, event)})

	require.NoError(t, err, "the denial is answered, not returned")
	require.Len(t, answered, 1)
	assert.Contains(t, answered[0], "/interactions/i1/tok/callback")
	assert.Contains(t, buf.String(), "/kick by mallory in g1 denied: "+slashy.MsgPermissionDenied)
}
