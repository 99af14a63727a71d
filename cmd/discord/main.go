// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/slashy/examples/moderation"
	"github.com/keshon/slashy/internal/cache"
	"github.com/keshon/slashy/internal/config"
	"github.com/keshon/slashy/internal/discord"
	"github.com/keshon/slashy/pkg/cmd"
	"github.com/keshon/slashy/pkg/slashy"
)

func main() {
	log.Println("[INFO] Starting moderation bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal(err)
	}

	hashes, err := cache.Open(ctx, "data/commands.json")
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := hashes.Close(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}()

	bot := discord.NewBot(cfg, hashes)
	register(bot)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...\n", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}

// commandMiddleware is applied to every command. cmd.Apply makes the last
// middleware outermost, so the logger sees denials before they are answered.
func commandMiddleware() []cmd.Middleware {
	return []cmd.Middleware{slashy.WithCommandLogger(), slashy.WithDenialResponse()}
}

// register wires the generated moderation handlers into the bot.
func register(bot *discord.Bot) {
	mw := commandMiddleware()

	bot.Register(cmd.Apply(slashy.Reply("ping", "Check that the bot is alive", moderation.Ping), mw...))

	bot.Register(cmd.Apply(slashy.Reply("kick", "Kick a member", func(cc *slashy.CommandContext) func(context.Context) (string, error) {
		return moderation.Kick(cc, cc.UserOption("member"))
	}), mw...), &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Member to kick", Required: true,
	})

	bot.Register(cmd.Apply(slashy.Reply("notes", "Show moderation notes", func(cc *slashy.CommandContext) func(context.Context) (string, error) {
		var tags []string
		for _, t := range strings.Split(cc.StringOption("tags"), ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		return moderation.Notes(cc, tags)
	}), mw...), &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionString, Name: "tags", Description: "Comma-separated tags",
	})

	bot.Register(cmd.Apply(slashy.Reply("purge", "Delete recent messages", func(cc *slashy.CommandContext) func(context.Context) (string, error) {
		return moderation.Purge(cc, cc.IntOption("count", 10))
	}), mw...), &discordgo.ApplicationCommandOption{
		Type: discordgo.ApplicationCommandOptionInteger, Name: "count", Description: "How many messages", Required: false,
	})
}
