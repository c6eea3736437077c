package discord

import (
	"fmt"

	"github.com/fijter/discord-standupbot/internal/domain/chat"

	"github.com/bwmarrin/discordgo"
)

// NewSession creates the Discord session with the intents the bot needs.
// The caller opens and closes it.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentDirectMessages | discordgo.IntentMessageContent
	return dg, nil
}

// Client implements the chat.Client interface on top of a discordgo session.
type Client struct {
	session *discordgo.Session
}

func NewClient(session *discordgo.Session) *Client {
	return &Client{session: session}
}

func (c *Client) ResolveMember(discordID string) (*chat.ResolvedMember, error) {
	u, err := c.session.User(discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Discord user %s: %w", discordID, err)
	}
	return &chat.ResolvedMember{DiscordID: u.ID, Username: u.Username}, nil
}

func (c *Client) SendDirectMessage(discordID string, text string) error {
	ch, err := c.session.UserChannelCreate(discordID)
	if err != nil {
		return fmt.Errorf("failed to open DM channel to %s: %w", discordID, err)
	}
	if _, err := c.session.ChannelMessageSend(ch.ID, text); err != nil {
		return fmt.Errorf("failed to send DM to %s: %w", discordID, err)
	}
	return nil
}

func (c *Client) SendChannelMessage(channelID string, text string) (chat.MessageRef, error) {
	msg, err := c.session.ChannelMessageSend(channelID, text)
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send message to channel %s: %w", channelID, err)
	}
	return chat.MessageRef{ChannelID: channelID, MessageID: msg.ID}, nil
}

func (c *Client) Pin(ref chat.MessageRef) error {
	if err := c.session.ChannelMessagePin(ref.ChannelID, ref.MessageID); err != nil {
		return fmt.Errorf("failed to pin message %s: %w", ref.MessageID, err)
	}
	return nil
}

