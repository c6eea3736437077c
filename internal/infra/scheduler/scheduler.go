package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/fijter/discord-standupbot/internal/app"
	"github.com/fijter/discord-standupbot/internal/domain/standup"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StandupScheduler runs the two recurring passes of the bot: the lifecycle
// tick over every definition and the summary publish pass. Both run on a
// fixed interval; every pass is idempotent so the interval is a ceiling on
// latency, not a correctness knob.
type StandupScheduler struct {
	cronEngine      *cron.Cron
	standupService  *app.StandupService
	notifyService   *app.NotifyService
	publishService  *app.PublishService
	standupRepo     standup.Repository
	logger          *logrus.Logger
	pollInterval    time.Duration
	publishInterval time.Duration
}

func NewStandupScheduler(
	standupService *app.StandupService,
	notifyService *app.NotifyService,
	publishService *app.PublishService,
	standupRepo standup.Repository,
	logger *logrus.Logger,
	pollInterval time.Duration,
	publishInterval time.Duration,
) *StandupScheduler {
	return &StandupScheduler{
		cronEngine:      cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		standupService:  standupService,
		notifyService:   notifyService,
		publishService:  publishService,
		standupRepo:     standupRepo,
		logger:          logger,
		pollInterval:    pollInterval,
		publishInterval: publishInterval,
	}
}

func (s *StandupScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(everySpec(s.pollInterval), s.runTickPass); err != nil {
		return fmt.Errorf("could not add tick pass job: %w", err)
	}
	if _, err := s.cronEngine.AddFunc(everySpec(s.publishInterval), s.runPublishPass); err != nil {
		return fmt.Errorf("could not add publish pass job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"poll_interval":    s.pollInterval,
		"publish_interval": s.publishInterval,
	}).Info("Standup scheduler started")
	return nil
}

// runTickPass ticks every definition once. A failing definition is logged
// and skipped; the pass never aborts.
func (s *StandupScheduler) runTickPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	definitions, err := s.standupRepo.ListDefinitions(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Tick pass could not list definitions")
		return
	}

	for _, def := range definitions {
		due, err := s.standupService.Tick(ctx, def)
		if err != nil {
			s.logger.WithError(err).WithField("definition", def.Slug).Error("Tick failed for definition")
			continue
		}
		if len(due) > 0 {
			s.notifyService.Dispatch(ctx, def, due)
		}
	}
}

func (s *StandupScheduler) runPublishPass() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.publishService.RunPass(ctx)
}

func (s *StandupScheduler) Stop() {
	s.logger.Info("Stopping standup scheduler...")
	ctx := s.cronEngine.Stop() // Stops new job runs, waits for running jobs.
	<-ctx.Done()               // Wait for graceful shutdown
	s.logger.Info("Standup scheduler gracefully stopped")
}

func everySpec(interval time.Duration) string {
	return fmt.Sprintf("@every %ds", int(interval.Seconds()))
}
