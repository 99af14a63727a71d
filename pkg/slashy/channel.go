package slashy

import "github.com/bwmarrin/discordgo"

// AsGuildChannel classifies ch. It returns ch and true when the channel
// belongs to a guild, and false for direct messages, group DMs and nil.
func AsGuildChannel(ch *discordgo.Channel) (*discordgo.Channel, bool) {
	if ch == nil || ch.GuildID == "" {
		return nil, false
	}
	switch ch.Type {
	case discordgo.ChannelTypeDM, discordgo.ChannelTypeGroupDM:
		return nil, false
	}
	return ch, true
}
