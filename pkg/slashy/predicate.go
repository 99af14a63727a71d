package slashy

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// Predicate is the production shape of a permission check named in a
// //slashy:subcommand directive. Generated guards call predicates in declared
// order and stop at the first one that returns false or an error.
type Predicate func(ctx context.Context, inv Invocation, member *discordgo.Member, channel *discordgo.Channel) (bool, error)

// TestPredicate is the shape predicates take when the slashytest build tag
// is set: no arguments, so handlers can be exercised without Discord.
type TestPredicate func() (bool, error)

// Fixed returns a TestPredicate that always answers ok.
func Fixed(ok bool) TestPredicate {
	return func() (bool, error) { return ok, nil }
}

// RequirePermissions passes when the member holds every bit of mask in the
// channel. Administrators always pass.
func RequirePermissions(mask int64) Predicate {
	return func(ctx context.Context, inv Invocation, member *discordgo.Member, channel *discordgo.Channel) (bool, error) {
		perms, err := memberPermissions(ctx, inv, member, channel)
		if err != nil {
			return false, err
		}
		if perms&discordgo.PermissionAdministrator != 0 {
			return true, nil
		}
		return perms&mask == mask, nil
	}
}

// IsGuildOwner passes when the member owns the guild.
func IsGuildOwner(ctx context.Context, inv Invocation, member *discordgo.Member, _ *discordgo.Channel) (bool, error) {
	if member == nil || member.User == nil {
		return false, nil
	}
	gr, ok := inv.(GuildResolver)
	if !ok {
		return false, errors.New("slashy: invocation cannot resolve its guild")
	}
	guild, err := gr.Guild(ctx)
	if err != nil {
		return false, err
	}
	return guild.OwnerID == member.User.ID, nil
}

// IsAdministrator passes for the guild owner and for members with the
// Administrator permission.
func IsAdministrator(ctx context.Context, inv Invocation, member *discordgo.Member, channel *discordgo.Channel) (bool, error) {
	perms, err := memberPermissions(ctx, inv, member, channel)
	if err != nil {
		return false, err
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true, nil
	}
	if _, ok := inv.(GuildResolver); !ok {
		return false, nil
	}
	return IsGuildOwner(ctx, inv, member, channel)
}

// Any passes when at least one of preds passes. Predicates are tried in
// order and the first error is returned.
func Any(preds ...Predicate) Predicate {
	return func(ctx context.Context, inv Invocation, member *discordgo.Member, channel *discordgo.Channel) (bool, error) {
		for _, p := range preds {
			ok, err := p(ctx, inv, member, channel)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

func memberPermissions(ctx context.Context, inv Invocation, member *discordgo.Member, channel *discordgo.Channel) (int64, error) {
	if pr, ok := inv.(PermissionResolver); ok {
		return pr.Permissions(ctx, member, channel)
	}
	if member == nil {
		return 0, nil
	}
	return member.Permissions, nil
}
