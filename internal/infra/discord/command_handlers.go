package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fijter/discord-standupbot/internal/app"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const commandPrefix = "!"

// CommandHandler wires the prefix commands to the admin service. Commands
// arrive from channel messages; the Manage Roles capability gates the
// mutating ones.
type CommandHandler struct {
	adminService *app.AdminService
	logger       *logrus.Logger
}

func NewCommandHandler(adminService *app.AdminService, logger *logrus.Logger) *CommandHandler {
	return &CommandHandler{adminService: adminService, logger: logger}
}

// Register attaches the message handler to the session.
func (h *CommandHandler) Register(session *discordgo.Session) {
	session.AddHandler(h.onMessageCreate)
}

func (h *CommandHandler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, commandPrefix))
	if len(fields) == 0 {
		return
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch command {
	case "newstandup":
		h.requireManageRoles(s, m, func() { h.handleNewStandup(ctx, s, m, args) })
	case "joinstandup":
		h.requireManageRoles(s, m, func() { h.handleJoinStandup(ctx, s, m, args) })
	case "leavestandup":
		h.requireManageRoles(s, m, func() { h.handleLeaveStandup(ctx, s, m, args) })
	case "standupsummary":
		h.requireManageRoles(s, m, func() { h.handleRequestSummary(ctx, s, m, args) })
	case "mute":
		h.handleMute(ctx, s, m, args)
	case "timezone":
		h.handleTimezone(ctx, s, m, args)
	}
}

// requireManageRoles runs fn only when the author can manage roles in the
// channel; otherwise the attempted action is dropped and the author told so
// in a DM, matching how unauthorized commands are kept out of the channel.
func (h *CommandHandler) requireManageRoles(s *discordgo.Session, m *discordgo.MessageCreate, fn func()) {
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		h.logger.WithError(err).WithField("user", m.Author.ID).Error("Failed to resolve channel permissions")
		return
	}
	if perms&discordgo.PermissionManageRoles == 0 {
		h.dmAuthor(s, m, "Sorry, you have no permission to do this! Only users with the permission to manage roles for a given channel can do this.")
		return
	}
	fn()
}

func (h *CommandHandler) handleNewStandup(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !newstandup <slug> [name...]")
		return
	}
	slug := args[0]
	name := strings.Join(args[1:], " ")

	_, err := h.adminService.CreateDefinition(ctx, actorFrom(m.Author), h.channelRef(s, m), slug, name)
	switch {
	case err == nil:
		h.reply(s, m, "Daily standup initialized!")
	case err == app.ErrDefinitionAlreadyExists:
		h.reply(s, m, "This channel already has a daily standup, no new one was created.")
	default:
		h.logger.WithError(err).Error("newstandup failed")
		h.reply(s, m, "Something went wrong creating the standup.")
	}
}

func (h *CommandHandler) handleJoinStandup(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !joinstandup <slug> [@user] [readonly]")
		return
	}
	slug := args[0]
	readOnly := len(args) > 1 && strings.EqualFold(args[len(args)-1], "readonly")

	target := actorFrom(m.Author)
	if len(m.Mentions) > 0 {
		target = actorFrom(m.Mentions[0])
	}

	_, err := h.adminService.AddAttendee(ctx, actorFrom(m.Author), target, h.channelRef(s, m), slug, readOnly)
	switch {
	case err == nil:
		h.reply(s, m, fmt.Sprintf("<@%s> joined the standup!", target.DiscordID))
	case err == app.ErrAttendeeAlreadyExists:
		h.reply(s, m, "Already in this standup!")
	case err == idb.ErrDefinitionNotFound:
		h.reply(s, m, "No standup available for this channel with this name")
	default:
		h.logger.WithError(err).Error("joinstandup failed")
		h.reply(s, m, "Something went wrong joining the standup.")
	}
}

func (h *CommandHandler) handleLeaveStandup(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !leavestandup <slug> [@user]")
		return
	}
	target := actorFrom(m.Author)
	if len(m.Mentions) > 0 {
		target = actorFrom(m.Mentions[0])
	}

	_, err := h.adminService.RemoveAttendee(ctx, target, h.channelRef(s, m), args[0])
	switch {
	case err == nil:
		h.reply(s, m, fmt.Sprintf("<@%s> left the standup.", target.DiscordID))
	case err == app.ErrAttendeeAlreadyInactive, err == idb.ErrAttendeeNotFound, err == idb.ErrMemberNotFound:
		h.reply(s, m, "Not in this standup!")
	case err == idb.ErrDefinitionNotFound:
		h.reply(s, m, "No standup available for this channel with this name")
	default:
		h.logger.WithError(err).Error("leavestandup failed")
		h.reply(s, m, "Something went wrong leaving the standup.")
	}
}

func (h *CommandHandler) handleRequestSummary(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !standupsummary <slug>")
		return
	}
	_, err := h.adminService.RequestSummary(ctx, h.channelRef(s, m), args[0])
	switch {
	case err == nil:
		h.reply(s, m, "Summary will be (re)published shortly.")
	case err == app.ErrNoInstanceYet:
		h.reply(s, m, "No standup has run yet, nothing to summarize.")
	case err == idb.ErrDefinitionNotFound:
		h.reply(s, m, "No standup available for this channel with this name")
	default:
		h.logger.WithError(err).Error("standupsummary failed")
		h.reply(s, m, "Something went wrong requesting the summary.")
	}
}

func (h *CommandHandler) handleMute(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !mute <YYYY-MM-DD>")
		return
	}
	date, err := h.adminService.MuteUntil(ctx, actorFrom(m.Author), args[0])
	switch {
	case err == nil:
		h.reply(s, m, fmt.Sprintf("Muted until and including %s.", date.Format("2006-01-02")))
	case err == app.ErrInvalidMuteDate:
		h.reply(s, m, "That doesn't look like a date, try !mute 2026-01-31")
	default:
		h.logger.WithError(err).Error("mute failed")
		h.reply(s, m, "Something went wrong setting the mute date.")
	}
}

func (h *CommandHandler) handleTimezone(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if len(args) == 0 {
		h.reply(s, m, "Usage: !timezone <IANA zone, e.g. Europe/Amsterdam>")
		return
	}
	err := h.adminService.SetTimezone(ctx, actorFrom(m.Author), args[0])
	switch {
	case err == nil:
		h.reply(s, m, fmt.Sprintf("Timezone set to %s.", args[0]))
	case err == app.ErrInvalidTimezone:
		h.reply(s, m, "Unknown timezone, use an IANA name like Europe/Amsterdam.")
	default:
		h.logger.WithError(err).Error("timezone failed")
		h.reply(s, m, "Something went wrong setting the timezone.")
	}
}

func (h *CommandHandler) channelRef(s *discordgo.Session, m *discordgo.MessageCreate) app.ChannelRef {
	ref := app.ChannelRef{GuildID: m.GuildID, ChannelID: m.ChannelID}
	if ch, err := s.Channel(m.ChannelID); err == nil {
		ref.ChannelName = ch.Name
	}
	return ref
}

func (h *CommandHandler) reply(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
		h.logger.WithError(err).WithField("channel", m.ChannelID).Error("Failed to send command reply")
	}
}

func (h *CommandHandler) dmAuthor(s *discordgo.Session, m *discordgo.MessageCreate, text string) {
	ch, err := s.UserChannelCreate(m.Author.ID)
	if err != nil {
		h.logger.WithError(err).WithField("user", m.Author.ID).Error("Failed to open DM channel")
		return
	}
	if _, err := s.ChannelMessageSend(ch.ID, text); err != nil {
		h.logger.WithError(err).WithField("user", m.Author.ID).Error("Failed to DM author")
	}
}

func actorFrom(u *discordgo.User) app.Actor {
	actor := app.Actor{
		DiscordID: u.ID,
		Username:  u.Username,
		FirstName: u.GlobalName,
	}
	if actor.FirstName == "" {
		actor.FirstName = u.Username
	}
	return actor
}
