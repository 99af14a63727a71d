package discord

import (
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
)

// registerCommands syncs slash commands with Discord: deletes obsolete ones
// and creates commands whose definition changed. An empty guildID syncs
// global commands.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	local := b.Definitions()
	b.deleteObsoleteCommands(appID, guildID, remote, local)
	b.upsertChangedCommands(appID, guildID, local)
	return nil
}

func (b *Bot) deleteObsoleteCommands(appID, guildID string, remote, local []*discordgo.ApplicationCommand) {
	names := make(map[string]bool, len(local))
	for _, d := range local {
		names[d.Name] = true
	}
	for _, rc := range remote {
		if names[rc.Name] {
			continue
		}
		log.Printf("[INFO] [%s] Deleting obsolete command: %s", scope(guildID), rc.Name)
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Printf("[ERR] [%s] Failed to delete %s: %v", scope(guildID), rc.Name, err)
			continue
		}
		if err := b.hashes.Forget(hashKey(guildID, rc.Name)); err != nil {
			log.Printf("[WARN] [%s] %v", scope(guildID), err)
		}
	}
}

func (b *Bot) upsertChangedCommands(appID, guildID string, defs []*discordgo.ApplicationCommand) {
	for _, d := range defs {
		key, sum := hashKey(guildID, d.Name), hashCommand(d)
		if b.hashes.Fresh(key, sum) {
			continue
		}
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			log.Printf("[ERR] [%s] Failed to register %s: %v", scope(guildID), d.Name, err)
			continue
		}
		if err := b.hashes.Store(key, sum); err != nil {
			log.Printf("[WARN] [%s] %v", scope(guildID), err)
		}
		log.Printf("[INFO] [%s] Registered: %s", scope(guildID), d.Name)
		time.Sleep(25 * time.Millisecond) // stay well under Discord's rate limit
	}
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if u := b.dg.State.User; u != nil && u.ID != "" {
		return u.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

func scope(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return guildID
}

func hashKey(guildID, name string) string {
	return "commands/" + scope(guildID) + "/" + name
}
