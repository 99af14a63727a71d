package slashy

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

var (
	ErrNoEvent = errors.New("slashy: command context has no interaction")
	ErrNoUser  = errors.New("slashy: interaction has no user")
)

// DefaultLimiter throttles REST lookups made when the session state cache
// misses. Discord allows roughly 50 requests per second per bot.
var DefaultLimiter = rate.NewLimiter(rate.Limit(25), 5)

// Invocation is what generated guards need from the first handler parameter.
// Both lookups are evaluated before the channel is classified, member first.
type Invocation interface {
	Member(ctx context.Context) (*discordgo.Member, error)
	Channel(ctx context.Context) (*discordgo.Channel, error)
}

// GuildResolver is implemented by invocations that can fetch their guild.
type GuildResolver interface {
	Guild(ctx context.Context) (*discordgo.Guild, error)
}

// PermissionResolver is implemented by invocations that can compute a
// member's effective permissions in a channel.
type PermissionResolver interface {
	Permissions(ctx context.Context, member *discordgo.Member, channel *discordgo.Channel) (int64, error)
}

// CommandContext is the Invocation for a discordgo application command.
type CommandContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Limiter *rate.Limiter
}

// NewCommandContext wraps an interaction event.
func NewCommandContext(s *discordgo.Session, e *discordgo.InteractionCreate) *CommandContext {
	return &CommandContext{Session: s, Event: e, Limiter: DefaultLimiter}
}

// Member returns the invoking guild member. In a DM there is no guild member,
// so the invoking user is returned wrapped in a Member with no guild.
func (c *CommandContext) Member(ctx context.Context) (*discordgo.Member, error) {
	if c.Event == nil || c.Event.Interaction == nil {
		return nil, ErrNoEvent
	}
	e := c.Event

	if e.Member != nil {
		m := *e.Member
		if m.GuildID == "" {
			m.GuildID = e.GuildID
		}
		return &m, nil
	}
	if e.User == nil {
		return nil, ErrNoUser
	}
	if e.GuildID == "" {
		return &discordgo.Member{User: e.User}, nil
	}

	if c.Session != nil && c.Session.State != nil {
		if m, err := c.Session.State.Member(e.GuildID, e.User.ID); err == nil {
			return m, nil
		}
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	m, err := c.Session.GuildMember(e.GuildID, e.User.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve member %s: %w", e.User.ID, err)
	}
	return m, nil
}

// Channel returns the channel the interaction was invoked in.
func (c *CommandContext) Channel(ctx context.Context) (*discordgo.Channel, error) {
	if c.Event == nil || c.Event.Interaction == nil {
		return nil, ErrNoEvent
	}
	id := c.Event.ChannelID

	if c.Session != nil && c.Session.State != nil {
		if ch, err := c.Session.State.Channel(id); err == nil {
			return ch, nil
		}
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ch, err := c.Session.Channel(id)
	if err != nil {
		return nil, fmt.Errorf("resolve channel %s: %w", id, err)
	}
	return ch, nil
}

// Guild returns the guild the interaction was invoked in.
func (c *CommandContext) Guild(ctx context.Context) (*discordgo.Guild, error) {
	if c.Event == nil || c.Event.Interaction == nil {
		return nil, ErrNoEvent
	}
	id := c.Event.GuildID
	if id == "" {
		return nil, errors.New("slashy: interaction is not in a guild")
	}

	if c.Session != nil && c.Session.State != nil {
		if g, err := c.Session.State.Guild(id); err == nil {
			return g, nil
		}
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	g, err := c.Session.Guild(id)
	if err != nil {
		return nil, fmt.Errorf("resolve guild %s: %w", id, err)
	}
	return g, nil
}

// Permissions returns the member's effective permissions in channel. The
// interaction payload carries them already; the session is asked otherwise.
func (c *CommandContext) Permissions(ctx context.Context, member *discordgo.Member, channel *discordgo.Channel) (int64, error) {
	if member != nil && member.Permissions != 0 {
		return member.Permissions, nil
	}
	if member == nil || member.User == nil || channel == nil {
		return 0, nil
	}
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	perms, err := c.Session.UserChannelPermissions(member.User.ID, channel.ID)
	if err != nil {
		return 0, fmt.Errorf("resolve permissions: %w", err)
	}
	return perms, nil
}

// option returns a top-level or subcommand option by name.
func (c *CommandContext) option(name string) *discordgo.ApplicationCommandInteractionDataOption {
	if c.Event == nil || c.Event.Interaction == nil || c.Event.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	opts := c.Event.ApplicationCommandData().Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		opts = opts[0].Options
	}
	for _, o := range opts {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// StringOption returns the value of a string option, or "".
func (c *CommandContext) StringOption(name string) string {
	if o := c.option(name); o != nil && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue()
	}
	return ""
}

// IntOption returns the value of an integer option, or def.
func (c *CommandContext) IntOption(name string, def int) int {
	if o := c.option(name); o != nil && o.Type == discordgo.ApplicationCommandOptionInteger {
		return int(o.IntValue())
	}
	return def
}

// UserOption returns the ID of the user picked for a user option, or "".
func (c *CommandContext) UserOption(name string) string {
	if o := c.option(name); o != nil && o.Type == discordgo.ApplicationCommandOptionUser {
		if id, ok := o.Value.(string); ok {
			return id
		}
	}
	return ""
}

// Respond sends a public message response to the interaction.
func (c *CommandContext) Respond(content string) error {
	return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// RespondEphemeral sends a response only the invoking user can see.
func (c *CommandContext) RespondEphemeral(content string) error {
	return c.Session.InteractionRespond(c.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (c *CommandContext) wait(ctx context.Context) error {
	if c.Session == nil {
		return errors.New("slashy: command context has no session")
	}
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}
