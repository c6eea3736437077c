package app

import (
	"context"
	"fmt"

	"github.com/fijter/discord-standupbot/internal/domain/chat"
	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"

	"github.com/sirupsen/logrus"
)

// NotifyService delivers the personal action links for due participations.
// The notified status was persisted before these sends are attempted, so a
// crash here skips a notification instead of duplicating it on retry.
type NotifyService struct {
	memberRepo member.Repository
	chatClient chat.Client
	baseURL    string
	logger     *logrus.Logger
}

func NewNotifyService(mr member.Repository, cc chat.Client, baseURL string, logger *logrus.Logger) *NotifyService {
	return &NotifyService{
		memberRepo: mr,
		chatClient: cc,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Dispatch sends one direct message per due participation. A failure for one
// recipient (unresolvable, DMs blocked) never aborts delivery to the others.
func (s *NotifyService) Dispatch(ctx context.Context, def *standup.Definition, due []*standup.Participation) {
	for _, p := range due {
		if err := s.notifyOne(ctx, def, p); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"participation": p.ID,
				"member":        p.MemberID,
			}).Error("Failed to deliver standup notification")
		}
	}
}

func (s *NotifyService) notifyOne(ctx context.Context, def *standup.Definition, p *standup.Participation) error {
	m, err := s.memberRepo.GetByID(ctx, p.MemberID)
	if err != nil {
		return fmt.Errorf("failed to load member %d: %w", p.MemberID, err)
	}

	if _, err := s.chatClient.ResolveMember(m.DiscordID); err != nil {
		return fmt.Errorf("member %s not reachable: %w", m.DiscordID, err)
	}

	var text string
	if p.ReadOnly {
		text = fmt.Sprintf("Hi %s! Today's '%s' standup has started. You can follow along here: %s",
			m.DisplayName(), def.Name, s.homeURL(p))
	} else {
		text = fmt.Sprintf("Hi %s! It's time for the '%s' standup. Fill in your update here: %s\nYour standup overview: %s",
			m.DisplayName(), def.Name, s.formURL(p), s.homeURL(p))
	}

	if err := s.chatClient.SendDirectMessage(m.DiscordID, text); err != nil {
		return fmt.Errorf("failed to send direct message to %s: %w", m.DiscordID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"definition": def.Slug,
		"member":     m.DiscordID,
		"read_only":  p.ReadOnly,
	}).Info("Standup notification delivered")
	return nil
}

func (s *NotifyService) formURL(p *standup.Participation) string {
	return fmt.Sprintf("%s/standup/%s", s.baseURL, p.Token)
}

func (s *NotifyService) homeURL(p *standup.Participation) string {
	return fmt.Sprintf("%s/home/%s", s.baseURL, p.Token)
}
