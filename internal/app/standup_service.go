package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// StandupService drives the lifecycle engine: it loads the snapshot one tick
// needs, lets the pure engine decide, and applies the returned effects in a
// single transaction. Repeated invocation is safe; the persisted statuses
// and the storage uniqueness constraints make the whole pass idempotent.
type StandupService struct {
	standupRepo standup.Repository
	memberRepo  member.Repository
	logger      *logrus.Logger
	now         func() time.Time
}

func NewStandupService(sr standup.Repository, mr member.Repository, logger *logrus.Logger) *StandupService {
	return &StandupService{
		standupRepo: sr,
		memberRepo:  mr,
		logger:      logger,
		now:         time.Now,
	}
}

// Tick evaluates one definition once and returns the participations that
// became due for notification this cycle. An empty result is the normal
// outcome on non-scheduled days and between due moments.
func (s *StandupService) Tick(ctx context.Context, def *standup.Definition) ([]*standup.Participation, error) {
	now := s.now()

	input, err := s.loadTickInput(ctx, def, now)
	if err != nil {
		return nil, err
	}

	fx := standup.Tick(def, input, now)
	if len(fx.Plans) == 0 {
		return nil, nil
	}

	var due []*standup.Participation
	err = s.standupRepo.WithinTx(ctx, func(repo standup.Repository) error {
		created := make(map[string]*standup.Instance)

		for _, plan := range fx.Plans {
			inst, err := s.resolveInstance(ctx, repo, def, plan, created)
			if err != nil {
				return err
			}

			p, err := s.resolveParticipation(ctx, repo, inst, plan)
			if err != nil {
				return err
			}

			if plan.Notify && p.Status == standup.ParticipationPending {
				if err := p.MarkNotified(); err != nil {
					return err
				}
				if err := repo.UpdateParticipation(ctx, p); err != nil {
					return fmt.Errorf("failed to mark participation %d notified: %w", p.ID, err)
				}
				due = append(due, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(due) > 0 {
		s.logger.WithFields(logrus.Fields{
			"definition": def.Slug,
			"channel":    def.ChannelID,
			"due":        len(due),
		}).Info("Tick produced due participations")
	}
	return due, nil
}

func (s *StandupService) loadTickInput(ctx context.Context, def *standup.Definition, now time.Time) (standup.TickInput, error) {
	var input standup.TickInput

	attendees, err := s.standupRepo.ListActiveAttendees(ctx, def.ID)
	if err != nil {
		return input, fmt.Errorf("failed to list attendees for definition %d: %w", def.ID, err)
	}
	for _, a := range attendees {
		m, err := s.memberRepo.GetByID(ctx, a.MemberID)
		if err != nil {
			s.logger.WithError(err).WithField("member_id", a.MemberID).Warn("Skipping attendee with unloadable member")
			continue
		}
		input.Attendees = append(input.Attendees, standup.AttendeeView{Attendee: a, Member: m})
	}

	// The gap rule looks back MinDaysBetween days; one extra day covers
	// attendees whose local date is behind server time.
	lookback := def.MinDaysBetween + 2
	instances, err := s.standupRepo.ListInstancesSince(ctx, def.ID, now.AddDate(0, 0, -lookback))
	if err != nil {
		return input, fmt.Errorf("failed to list instances for definition %d: %w", def.ID, err)
	}
	input.Instances = instances

	recent := standup.DateOf(now.AddDate(0, 0, -2))
	for _, inst := range instances {
		if inst.Date.Before(recent) {
			continue
		}
		parts, err := s.standupRepo.ListParticipations(ctx, inst.ID)
		if err != nil {
			return input, fmt.Errorf("failed to list participations for instance %d: %w", inst.ID, err)
		}
		input.Participations = append(input.Participations, parts...)
	}

	return input, nil
}

// resolveInstance finds or creates the instance a plan points at. A
// duplicate-key rejection from the store means another writer won the race;
// the existing row is fetched and used.
func (s *StandupService) resolveInstance(ctx context.Context, repo standup.Repository, def *standup.Definition, plan standup.ParticipationPlan, created map[string]*standup.Instance) (*standup.Instance, error) {
	if plan.InstanceID != 0 {
		inst, err := repo.GetInstanceByID(ctx, plan.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("failed to get instance %d: %w", plan.InstanceID, err)
		}
		return inst, nil
	}

	key := plan.Date.Format("2006-01-02")
	if inst, ok := created[key]; ok {
		return inst, nil
	}

	inst := &standup.Instance{
		DefinitionID: def.ID,
		Date:         plan.Date,
		Status:       standup.InstanceOpen,
	}
	err := repo.CreateInstance(ctx, inst)
	if err == idb.ErrDuplicateInstance {
		inst, err = repo.GetInstanceByDate(ctx, def.ID, plan.Date)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create instance for definition %d on %s: %w", def.ID, key, err)
	}
	created[key] = inst
	return inst, nil
}

func (s *StandupService) resolveParticipation(ctx context.Context, repo standup.Repository, inst *standup.Instance, plan standup.ParticipationPlan) (*standup.Participation, error) {
	if plan.ParticipationID != 0 {
		p, err := repo.GetParticipationByID(ctx, plan.ParticipationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participation %d: %w", plan.ParticipationID, err)
		}
		return p, nil
	}

	p := &standup.Participation{
		InstanceID: inst.ID,
		MemberID:   plan.MemberID,
		ReadOnly:   plan.ReadOnly,
		Token:      uuid.NewString(),
		Status:     standup.ParticipationPending,
	}
	err := repo.CreateParticipation(ctx, p)
	if err == idb.ErrDuplicateParticipation {
		p, err = repo.GetParticipation(ctx, inst.ID, plan.MemberID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create participation for member %d on instance %d: %w", plan.MemberID, inst.ID, err)
	}
	return p, nil
}
