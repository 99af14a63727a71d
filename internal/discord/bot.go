// Package discord runs the example bot: it syncs application command
// definitions with Discord and dispatches interactions to the registry.
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/slashy/internal/cache"
	"github.com/keshon/slashy/internal/config"
	"github.com/keshon/slashy/pkg/cmd"
	"github.com/keshon/slashy/pkg/slashy"
)

// Bot is a Discord bot serving registered slash commands.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Bot
	registry *cmd.Registry
	hashes   *cache.Cache

	mu   sync.RWMutex
	defs map[string]*discordgo.ApplicationCommand
}

// NewBot creates a bot. hashes remembers registered definitions so unchanged
// commands are not re-sent on every start; it may be nil.
func NewBot(cfg *config.Bot, hashes *cache.Cache) *Bot {
	return &Bot{
		cfg:      cfg,
		registry: cmd.NewRegistry(),
		hashes:   hashes,
		defs:     make(map[string]*discordgo.ApplicationCommand),
	}
}

// Register adds a command and the options of its Discord definition.
func (b *Bot) Register(c cmd.Command, options ...*discordgo.ApplicationCommandOption) {
	b.registry.Register(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.defs[c.Name()] = &discordgo.ApplicationCommand{
		Type:        discordgo.ChatApplicationCommand,
		Name:        c.Name(),
		Description: c.Description(),
		Options:     options,
	}
}

// Definitions returns the application command definitions in name order.
func (b *Bot) Definitions() []*discordgo.ApplicationCommand {
	b.mu.RLock()
	defer b.mu.RUnlock()

	defs := make([]*discordgo.ApplicationCommand, 0, len(b.defs))
	for _, c := range b.registry.GetAll() {
		if d, ok := b.defs[c.Name()]; ok {
			defs = append(defs, d)
		}
	}
	return defs
}

// Run connects to Discord and serves interactions until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	dg.AddHandler(b.onReady)
	dg.AddHandler(slashy.InteractionHandler(ctx, b.registry))

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received. Cleaning up...")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := b.registerCommands(b.cfg.GuildID); err != nil {
		log.Printf("[ERR] Error registering slash commands: %v", err)
	}
	log.Printf("[INFO] Discord bot %v is running.", r.User.Username)
}
