package chat

// MessageRef identifies a message sent to a channel so it can be pinned later.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// ResolvedMember is the externally visible identity of a member on the chat
// platform.
type ResolvedMember struct {
	DiscordID string
	Username  string
}

// Client defines an interface for sending messages via the chat platform.
// This decouples the application logic from the specific bot library; the
// connection lifecycle is managed elsewhere.
type Client interface {
	ResolveMember(discordID string) (*ResolvedMember, error)
	SendDirectMessage(discordID string, text string) error
	SendChannelMessage(channelID string, text string) (MessageRef, error)
	Pin(ref MessageRef) error
}
