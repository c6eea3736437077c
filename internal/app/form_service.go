package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// ErrFormNotFound covers every invalid-token outcome of the form surface:
// unknown token, completed participation, private definition. The caller
// renders it as a plain not-found, leaking nothing.
var ErrFormNotFound = fmt.Errorf("standup form not found")

// FormQuestion is one prompt of the rendered form, with its prefill default.
type FormQuestion struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Important bool   `json:"important"`
	Default   string `json:"default"`
}

// Form is the token-keyed answer form for one participation.
type Form struct {
	Standup   string         `json:"standup"`
	Date      string         `json:"date"`
	Questions []FormQuestion `json:"questions"`
}

// HomeEntry is one row of a member's standup overview.
type HomeEntry struct {
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	FormURL   string `json:"form_url,omitempty"`
}

// Home is the persistent overview behind the token-keyed home link.
type Home struct {
	Standup string      `json:"standup"`
	Member  string      `json:"member"`
	Entries []HomeEntry `json:"entries"`
}

// SummaryBlock is one participant's rendered answers on the public summary.
type SummaryBlock struct {
	Member  string            `json:"member"`
	Answers map[string]string `json:"answers"`
}

// Summary is the public permalink payload for one instance.
type Summary struct {
	Standup    string         `json:"standup"`
	Date       string         `json:"date"`
	Published  bool           `json:"published"`
	Completed  []SummaryBlock `json:"completed"`
	Incomplete []string       `json:"incomplete"`
}

// FormService is the answer-collection surface: it resolves single-use
// tokens, renders the ordered question list with prefill defaults, and
// upserts submitted answers. A completed participation's token no longer
// resolves; amendment after completion is rejected.
type FormService struct {
	standupRepo standup.Repository
	memberRepo  member.Repository
	baseURL     string
	logger      *logrus.Logger
}

func NewFormService(sr standup.Repository, mr member.Repository, baseURL string, logger *logrus.Logger) *FormService {
	return &FormService{standupRepo: sr, memberRepo: mr, baseURL: baseURL, logger: logger}
}

// openParticipation resolves a token to its not-yet-completed participation.
func (s *FormService) openParticipation(ctx context.Context, token string) (*standup.Participation, error) {
	p, err := s.standupRepo.GetParticipationByToken(ctx, token)
	if err != nil {
		if err == idb.ErrParticipationNotFound {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if p.Completed() {
		return nil, ErrFormNotFound
	}
	return p, nil
}

// GetForm renders the form for a token: the definition's questions in order,
// with defaults taken from the current draft answers or, through the
// prefill link, from the member's most recent completed participation.
func (s *FormService) GetForm(ctx context.Context, token string) (*Form, error) {
	p, err := s.openParticipation(ctx, token)
	if err != nil {
		return nil, err
	}

	inst, err := s.standupRepo.GetInstanceByID(ctx, p.InstanceID)
	if err != nil {
		return nil, err
	}
	def, err := s.standupRepo.GetDefinitionByID(ctx, inst.DefinitionID)
	if err != nil {
		return nil, err
	}
	questions, err := s.standupRepo.ListQuestions(ctx, def.ID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.answersByQuestion(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	// Prefill sources only apply while the participation is open; answers
	// already drafted for this participation always win.
	previous := map[int64]string{}
	if prev, err := s.standupRepo.LatestCompletedParticipation(ctx, def.ID, p.MemberID, p.ID); err == nil {
		previous, err = s.answersByQuestion(ctx, prev.ID)
		if err != nil {
			return nil, err
		}
	} else if err != idb.ErrParticipationNotFound {
		return nil, err
	}

	form := &Form{
		Standup: def.Name,
		Date:    inst.Date.Format("2006-01-02"),
	}
	for _, q := range questions {
		fq := FormQuestion{ID: q.ID, Text: q.Text, Important: q.Important}
		if draft, ok := drafts[q.ID]; ok && draft != "" {
			fq.Default = draft
		} else if q.PrefillFromID.Valid {
			fq.Default = previous[q.PrefillFromID.Int64]
		}
		form.Questions = append(form.Questions, fq)
	}
	return form, nil
}

// Submit upserts the given answers and marks the participation completed,
// flipping the instance to publish-pending. Resubmitting before completion
// replaces the previous answers; after completion the token is gone.
func (s *FormService) Submit(ctx context.Context, token string, answers map[int64]string) error {
	p, err := s.openParticipation(ctx, token)
	if err != nil {
		return err
	}

	inst, err := s.standupRepo.GetInstanceByID(ctx, p.InstanceID)
	if err != nil {
		return err
	}
	questions, err := s.standupRepo.ListQuestions(ctx, inst.DefinitionID)
	if err != nil {
		return err
	}

	err = s.standupRepo.WithinTx(ctx, func(repo standup.Repository) error {
		for _, q := range questions {
			a := &standup.Answer{
				ParticipationID: p.ID,
				QuestionID:      q.ID,
				Text:            answers[q.ID],
			}
			if err := repo.UpsertAnswer(ctx, a); err != nil {
				return err
			}
		}

		if err := p.MarkCompleted(); err != nil {
			return err
		}
		if err := repo.UpdateParticipation(ctx, p); err != nil {
			return err
		}

		if err := inst.MarkPublishPending(); err != nil {
			return err
		}
		return repo.UpdateInstance(ctx, inst)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"participation": p.ID,
		"instance":      inst.ID,
	}).Info("Standup form submitted")
	return nil
}

// GetHome renders the persistent overview behind a token. Unlike the form,
// the home link keeps working after completion.
func (s *FormService) GetHome(ctx context.Context, token string) (*Home, error) {
	p, err := s.standupRepo.GetParticipationByToken(ctx, token)
	if err != nil {
		if err == idb.ErrParticipationNotFound {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	inst, err := s.standupRepo.GetInstanceByID(ctx, p.InstanceID)
	if err != nil {
		return nil, err
	}
	def, err := s.standupRepo.GetDefinitionByID(ctx, inst.DefinitionID)
	if err != nil {
		return nil, err
	}
	m, err := s.memberRepo.GetByID(ctx, p.MemberID)
	if err != nil {
		return nil, err
	}

	participations, err := s.standupRepo.ListParticipationsByMember(ctx, def.ID, p.MemberID)
	if err != nil {
		return nil, err
	}

	home := &Home{Standup: def.Name, Member: m.DisplayName()}
	for _, hp := range participations {
		hinst, err := s.standupRepo.GetInstanceByID(ctx, hp.InstanceID)
		if err != nil {
			return nil, err
		}
		entry := HomeEntry{
			Date:      hinst.Date.Format("2006-01-02"),
			Completed: hp.Completed(),
		}
		if !hp.Completed() && !hp.ReadOnly {
			entry.FormURL = fmt.Sprintf("%s/standup/%s", s.baseURL, hp.Token)
		}
		home.Entries = append(home.Entries, entry)
	}
	return home, nil
}

// GetPublicSummary renders the permalink payload for a public definition's
// instance. Private definitions 404.
func (s *FormService) GetPublicSummary(ctx context.Context, channelID, slug, dateStr string) (*Summary, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrFormNotFound
	}
	def, err := s.standupRepo.GetDefinitionBySlug(ctx, channelID, slug)
	if err != nil {
		if err == idb.ErrDefinitionNotFound {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if def.Private {
		return nil, ErrFormNotFound
	}
	inst, err := s.standupRepo.GetInstanceByDate(ctx, def.ID, date)
	if err != nil {
		if err == idb.ErrInstanceNotFound {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	questions, err := s.standupRepo.ListQuestions(ctx, def.ID)
	if err != nil {
		return nil, err
	}
	questionText := make(map[int64]string, len(questions))
	for _, q := range questions {
		questionText[q.ID] = q.Text
	}

	participations, err := s.standupRepo.ListParticipations(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Standup:   def.Name,
		Date:      inst.Date.Format("2006-01-02"),
		Published: inst.Status == standup.InstancePublished,
	}
	for _, sp := range participations {
		if sp.ReadOnly {
			continue
		}
		m, err := s.memberRepo.GetByID(ctx, sp.MemberID)
		if err != nil {
			return nil, err
		}
		if !sp.Completed() {
			// Non-responders stay hidden until the channel summary named
			// them; the permalink follows the same visibility delay.
			if summary.Published {
				summary.Incomplete = append(summary.Incomplete, m.DisplayName())
			}
			continue
		}
		answers, err := s.standupRepo.ListAnswers(ctx, sp.ID)
		if err != nil {
			return nil, err
		}
		block := SummaryBlock{Member: m.DisplayName(), Answers: map[string]string{}}
		for _, a := range answers {
			if a.Text == "" {
				continue
			}
			block.Answers[questionText[a.QuestionID]] = a.Text
		}
		summary.Completed = append(summary.Completed, block)
	}
	return summary, nil
}

func (s *FormService) answersByQuestion(ctx context.Context, participationID int64) (map[int64]string, error) {
	answers, err := s.standupRepo.ListAnswers(ctx, participationID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[int64]string, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.Text
	}
	return byQuestion, nil
}
