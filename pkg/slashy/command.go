package slashy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/slashy/pkg/cmd"
)

// ErrNotCommandContext is returned when a command built by Command is invoked
// with something other than a *CommandContext in Invocation.Data.
var ErrNotCommandContext = errors.New("slashy: invocation data is not a *CommandContext")

// Handler is the shape slashygen gives a subcommand whose only parameter is
// the command context.
type Handler func(cc *CommandContext) func(context.Context) error

// Command adapts a generated handler to the dispatch table.
func Command(name, description string, h Handler) cmd.Command {
	return cmd.Func(name, description, func(ctx context.Context, inv *cmd.Invocation) error {
		cc, ok := inv.Data.(*CommandContext)
		if !ok {
			return ErrNotCommandContext
		}
		return h(cc)(ctx)
	})
}

// ReplyHandler is a generated handler whose future produces the reply text.
type ReplyHandler func(cc *CommandContext) func(context.Context) (string, error)

// Reply adapts a ReplyHandler to the dispatch table. A non-empty reply is
// sent as the interaction response.
func Reply(name, description string, h ReplyHandler) cmd.Command {
	return cmd.Func(name, description, func(ctx context.Context, inv *cmd.Invocation) error {
		cc, ok := inv.Data.(*CommandContext)
		if !ok {
			return ErrNotCommandContext
		}
		msg, err := h(cc)(ctx)
		if err != nil || msg == "" {
			return err
		}
		return cc.Respond(msg)
	})
}

// WithDenialResponse answers guard denials with an ephemeral message and
// swallows them. Other errors pass through.
func WithDenialResponse() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)
			var denial *Error
			if !errors.As(err, &denial) {
				return err
			}
			cc, ok := inv.Data.(*CommandContext)
			if !ok || cc.Session == nil {
				return err
			}
			if rerr := cc.RespondEphemeral(denial.Message); rerr != nil {
				log.Printf("[WARN] Failed to send denial for /%s: %v", c.Name(), rerr)
			}
			return nil
		})
	}
}

// WithCommandLogger logs every execution and its outcome.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			user, guild := "unknown", "dm"
			if cc, ok := inv.Data.(*CommandContext); ok && cc.Event != nil && cc.Event.Interaction != nil {
				if u := interactionUser(cc.Event); u != nil {
					user = u.Username
				}
				if cc.Event.GuildID != "" {
					guild = cc.Event.GuildID
				}
			}

			switch {
			case err == nil:
				log.Printf("[INFO] /%s by %s in %s", c.Name(), user, guild)
			case IsDenial(err):
				log.Printf("[INFO] /%s by %s in %s denied: %v", c.Name(), user, guild, err)
			default:
				log.Printf("[ERR] /%s by %s in %s failed: %v", c.Name(), user, guild, err)
			}
			return err
		})
	}
}

// CommandName returns the dispatch name of an application command
// interaction: the command name, followed by the subcommand name if any.
func CommandName(e *discordgo.InteractionCreate) string {
	data := e.ApplicationCommandData()
	name := data.Name
	if len(data.Options) == 1 && data.Options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		name += " " + data.Options[0].Name
	}
	return name
}

// InteractionHandler returns a discordgo handler that dispatches application
// commands through reg. Unhandled errors are logged and reported to the user.
func InteractionHandler(ctx context.Context, reg *cmd.Registry) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, e *discordgo.InteractionCreate) {
		if e.Type != discordgo.InteractionApplicationCommand {
			return
		}
		cc := NewCommandContext(s, e)
		name := CommandName(e)

		err := reg.Dispatch(ctx, name, &cmd.Invocation{Data: cc})
		if err == nil {
			return
		}
		log.Printf("[ERR] Error running /%s: %v", name, err)
		if rerr := cc.RespondEphemeral(fmt.Sprintf("Error running command: %v", err)); rerr != nil {
			log.Printf("[WARN] Failed to report error for /%s: %v", name, rerr)
		}
	}
}

func interactionUser(e *discordgo.InteractionCreate) *discordgo.User {
	if e.Member != nil && e.Member.User != nil {
		return e.Member.User
	}
	return e.User
}
