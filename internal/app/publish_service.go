package app

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/chat"
	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"

	"github.com/sirupsen/logrus"
)

// maxAnswerBlockLength caps a participant's rendered answer block so one
// message stays under the chat platform's size limit.
const maxAnswerBlockLength = 1900

// PublishService composes and (re)publishes the channel-facing summary of an
// instance: header, one message per completed participant, a line naming
// whoever has not filled in yet, and a pin on the header.
type PublishService struct {
	standupRepo standup.Repository
	memberRepo  member.Repository
	chatClient  chat.Client
	baseURL     string
	logger      *logrus.Logger
	now         func() time.Time
}

func NewPublishService(sr standup.Repository, mr member.Repository, cc chat.Client, baseURL string, logger *logrus.Logger) *PublishService {
	return &PublishService{
		standupRepo: sr,
		memberRepo:  mr,
		chatClient:  cc,
		baseURL:     baseURL,
		logger:      logger,
		now:         time.Now,
	}
}

// RunPass publishes every publish-pending instance. Failures are isolated
// per instance; the pass always completes.
func (s *PublishService) RunPass(ctx context.Context) {
	instances, err := s.standupRepo.ListPublishPending(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list publish-pending instances")
		return
	}

	for _, inst := range instances {
		def, err := s.standupRepo.GetDefinitionByID(ctx, inst.DefinitionID)
		if err != nil {
			s.logger.WithError(err).WithField("instance", inst.ID).Error("Failed to load definition for publish")
			continue
		}
		if err := s.Publish(ctx, def, inst); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"definition": def.Slug,
				"instance":   inst.ID,
			}).Error("Failed to publish standup summary")
		}
	}
}

type participantView struct {
	participation *standup.Participation
	member        *member.Member
}

// Publish sends the summary for one instance, honoring the visibility delay
// window. A deferred or skipped publish returns nil and leaves the instance
// publish-pending for a later pass.
func (s *PublishService) Publish(ctx context.Context, def *standup.Definition, inst *standup.Instance) error {
	participants, err := s.loadParticipants(ctx, inst)
	if err != nil {
		return err
	}

	var eligible, completed, incomplete []participantView
	for _, pv := range participants {
		if pv.participation.ReadOnly {
			continue
		}
		eligible = append(eligible, pv)
		if pv.participation.Completed() {
			completed = append(completed, pv)
		} else {
			incomplete = append(incomplete, pv)
		}
	}

	// Nothing to report without at least one answering participant.
	if len(eligible) == 0 {
		s.logger.WithField("instance", inst.ID).Debug("No eligible participations, skipping summary")
		return nil
	}

	// Visibility gate: non-responders are only revealed once the delay
	// window after the due moment has passed.
	notifyAt := def.DueMoment(inst.Date, time.Local).Add(def.PublishDelay)
	if s.now().Before(notifyAt) && len(incomplete) > 0 {
		s.logger.WithFields(logrus.Fields{
			"instance":  inst.ID,
			"notify_at": notifyAt,
		}).Debug("Publish deferred until delay window passes")
		return nil
	}

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].member.DisplayName() < completed[j].member.DisplayName()
	})

	questions, err := s.standupRepo.ListQuestions(ctx, def.ID)
	if err != nil {
		return fmt.Errorf("failed to list questions for definition %d: %w", def.ID, err)
	}
	questionsByID := make(map[int64]*standup.Question, len(questions))
	for _, q := range questions {
		questionsByID[q.ID] = q
	}

	header := fmt.Sprintf("** %s **\n** %s **\n", def.Name, inst.Date.Format("Monday Jan 02, 2006"))
	if !def.Private {
		header = fmt.Sprintf("%s\n%s", header, s.publicURL(def, inst))
	}

	ref, err := s.chatClient.SendChannelMessage(def.ChannelID, header)
	if err != nil {
		return fmt.Errorf("failed to send summary header: %w", err)
	}

	for _, pv := range completed {
		block, err := s.renderAnswers(ctx, pv.participation, questionsByID)
		if err != nil {
			return err
		}
		if block == "" {
			continue
		}
		msg := fmt.Sprintf("<@%s>:\n```md\n%s```", pv.member.DiscordID, block)
		if _, err := s.chatClient.SendChannelMessage(def.ChannelID, msg); err != nil {
			s.logger.WithError(err).WithField("member", pv.member.DiscordID).Error("Failed to send participant summary")
		}
	}

	if len(incomplete) > 0 {
		mentions := make([]string, 0, len(incomplete))
		for _, pv := range incomplete {
			mentions = append(mentions, fmt.Sprintf("<@%s>", pv.member.DiscordID))
		}
		msg := fmt.Sprintf("Not filled in (yet) by: %s", strings.Join(mentions, ", "))
		if _, err := s.chatClient.SendChannelMessage(def.ChannelID, msg); err != nil {
			s.logger.WithError(err).Error("Failed to send incomplete-members line")
		}
	}

	// The previous pinned summary stays pinned.
	if err := s.chatClient.Pin(ref); err != nil {
		s.logger.WithError(err).WithField("instance", inst.ID).Error("Failed to pin summary header")
	}

	inst.PinnedMessageID = sql.NullString{String: ref.MessageID, Valid: true}
	if err := inst.MarkPublished(); err != nil {
		return err
	}
	if err := s.standupRepo.UpdateInstance(ctx, inst); err != nil {
		return fmt.Errorf("failed to persist published instance %d: %w", inst.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"definition": def.Slug,
		"instance":   inst.ID,
		"pinned":     ref.MessageID,
	}).Info("Standup summary published")
	return nil
}

func (s *PublishService) loadParticipants(ctx context.Context, inst *standup.Instance) ([]participantView, error) {
	parts, err := s.standupRepo.ListParticipations(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations for instance %d: %w", inst.ID, err)
	}

	views := make([]participantView, 0, len(parts))
	for _, p := range parts {
		m, err := s.memberRepo.GetByID(ctx, p.MemberID)
		if err != nil {
			s.logger.WithError(err).WithField("member_id", p.MemberID).Warn("Skipping participation with unloadable member")
			continue
		}
		views = append(views, participantView{participation: p, member: m})
	}
	return views, nil
}

// renderAnswers builds one participant's labeled answer block, ordered by
// question position, truncated to the sink's size limit.
func (s *PublishService) renderAnswers(ctx context.Context, p *standup.Participation, questions map[int64]*standup.Question) (string, error) {
	answers, err := s.standupRepo.ListAnswers(ctx, p.ID)
	if err != nil {
		return "", fmt.Errorf("failed to list answers for participation %d: %w", p.ID, err)
	}

	var blocks []string
	for _, a := range answers {
		if a.Text == "" {
			continue
		}
		q := questions[a.QuestionID]
		if q == nil {
			continue
		}
		label := q.Text
		if q.Important {
			label = "! " + label
		}
		blocks = append(blocks, fmt.Sprintf("# %s\n%s", label, a.Text))
	}

	return TruncateBlock(strings.Join(blocks, "\n\n"), maxAnswerBlockLength), nil
}

// TruncateBlock cuts content to at most limit characters, appending an
// ellipsis marker when anything was dropped.
func TruncateBlock(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}

func (s *PublishService) publicURL(def *standup.Definition, inst *standup.Instance) string {
	return fmt.Sprintf("%s/standups/%s/%s/%s", s.baseURL, def.ChannelID, def.Slug, inst.Date.Format("2006-01-02"))
}
