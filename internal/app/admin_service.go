package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"
)

// Custom application-level errors for the command surface
var ErrDefinitionAlreadyExists = fmt.Errorf("this channel already has a standup with this name")
var ErrAttendeeAlreadyExists = fmt.Errorf("already in this standup")
var ErrAttendeeAlreadyInactive = fmt.Errorf("not in this standup")
var ErrInvalidTimezone = fmt.Errorf("unknown timezone name")
var ErrInvalidMuteDate = fmt.Errorf("invalid mute date, expected YYYY-MM-DD")
var ErrNoInstanceYet = fmt.Errorf("no standup instance exists yet")

// Actor is the pre-authorized chat identity performing a command. The
// channel-capability check happened at the command surface; services only
// need the identity.
type Actor struct {
	DiscordID string
	Username  string
	FirstName string
	LastName  string
}

// ChannelRef identifies the channel a command was issued in.
type ChannelRef struct {
	GuildID     string
	ChannelID   string
	ChannelName string
}

// AdminService handles the business logic behind the chat commands:
// creating definitions, managing attendees, mute windows, timezones and
// explicit summary requests.
type AdminService struct {
	standupRepo standup.Repository
	memberRepo  member.Repository
}

func NewAdminService(sr standup.Repository, mr member.Repository) *AdminService {
	return &AdminService{standupRepo: sr, memberRepo: mr}
}

// ensureMember fetches the member for an actor, creating it on first
// contact. Names are refreshed opportunistically on later contacts.
func (s *AdminService) ensureMember(ctx context.Context, actor Actor) (*member.Member, error) {
	m, err := s.memberRepo.GetByDiscordID(ctx, actor.DiscordID)
	if err == nil {
		return m, nil
	}
	if err != idb.ErrMemberNotFound {
		return nil, fmt.Errorf("failed to look up member %s: %w", actor.DiscordID, err)
	}

	var lastName sql.NullString
	if actor.LastName != "" {
		lastName = sql.NullString{String: actor.LastName, Valid: true}
	}
	m = &member.Member{
		DiscordID: actor.DiscordID,
		Username:  actor.Username,
		FirstName: actor.FirstName,
		LastName:  lastName,
		Timezone:  "UTC",
	}
	if err := s.memberRepo.Create(ctx, m); err != nil {
		if err == idb.ErrDuplicateDiscordID {
			return s.memberRepo.GetByDiscordID(ctx, actor.DiscordID)
		}
		return nil, fmt.Errorf("failed to create member %s: %w", actor.DiscordID, err)
	}
	return m, nil
}

// CreateDefinition creates a standup definition for a channel with the
// default Mon-Fri, 9:00, 24h-delay schedule.
func (s *AdminService) CreateDefinition(ctx context.Context, actor Actor, ch ChannelRef, slug, name string) (*standup.Definition, error) {
	creator, err := s.ensureMember(ctx, actor)
	if err != nil {
		return nil, err
	}

	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		name = slug
	}

	// Fast-path existence check; the unique constraint is the real guard.
	if _, err := s.standupRepo.GetDefinitionBySlug(ctx, ch.ChannelID, slug); err == nil {
		return nil, ErrDefinitionAlreadyExists
	} else if err != idb.ErrDefinitionNotFound {
		return nil, fmt.Errorf("failed to check existing definition: %w", err)
	}

	def := &standup.Definition{
		GuildID:      ch.GuildID,
		ChannelID:    ch.ChannelID,
		ChannelName:  ch.ChannelName,
		Name:         name,
		Slug:         slug,
		OnMonday:     true,
		OnTuesday:    true,
		OnWednesday:  true,
		OnThursday:   true,
		OnFriday:     true,
		DueHour:      9,
		PublishDelay: 24 * time.Hour,
		CreatedBy:    creator.ID,
	}
	if err := s.standupRepo.CreateDefinition(ctx, def); err != nil {
		if err == idb.ErrDuplicateDefinition {
			return nil, ErrDefinitionAlreadyExists
		}
		return nil, fmt.Errorf("failed to create definition: %w", err)
	}
	return def, nil
}

// AddAttendee enrolls target in the channel's standup, creating the member
// record if this is their first contact. Re-adding a deactivated attendee
// reactivates it.
func (s *AdminService) AddAttendee(ctx context.Context, actor, target Actor, ch ChannelRef, slug string, readOnly bool) (*standup.Attendee, error) {
	creator, err := s.ensureMember(ctx, actor)
	if err != nil {
		return nil, err
	}
	m, err := s.ensureMember(ctx, target)
	if err != nil {
		return nil, err
	}

	def, err := s.standupRepo.GetDefinitionBySlug(ctx, ch.ChannelID, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}

	existing, err := s.standupRepo.GetAttendee(ctx, def.ID, m.ID)
	if err == nil {
		if existing.Active {
			return nil, ErrAttendeeAlreadyExists
		}
		existing.Active = true
		existing.ReadOnly = readOnly
		if err := s.standupRepo.UpdateAttendee(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to reactivate attendee: %w", err)
		}
		return existing, nil
	}
	if err != idb.ErrAttendeeNotFound {
		return nil, fmt.Errorf("failed to check existing attendee: %w", err)
	}

	a := &standup.Attendee{
		DefinitionID: def.ID,
		MemberID:     m.ID,
		Active:       true,
		ReadOnly:     readOnly,
		CreatedBy:    creator.ID,
	}
	if err := s.standupRepo.CreateAttendee(ctx, a); err != nil {
		if err == idb.ErrDuplicateAttendee {
			return nil, ErrAttendeeAlreadyExists
		}
		return nil, fmt.Errorf("failed to create attendee: %w", err)
	}
	return a, nil
}

// RemoveAttendee deactivates target's membership; history stays intact.
func (s *AdminService) RemoveAttendee(ctx context.Context, target Actor, ch ChannelRef, slug string) (*standup.Attendee, error) {
	m, err := s.memberRepo.GetByDiscordID(ctx, target.DiscordID)
	if err != nil {
		return nil, err
	}
	def, err := s.standupRepo.GetDefinitionBySlug(ctx, ch.ChannelID, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	a, err := s.standupRepo.GetAttendee(ctx, def.ID, m.ID)
	if err != nil {
		return nil, err
	}
	if !a.Active {
		return a, ErrAttendeeAlreadyInactive
	}
	a.Active = false
	if err := s.standupRepo.UpdateAttendee(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to deactivate attendee: %w", err)
	}
	return a, nil
}

// MuteUntil silences all of the actor's standup participation up to and
// including the given date.
func (s *AdminService) MuteUntil(ctx context.Context, actor Actor, dateStr string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, ErrInvalidMuteDate
	}
	m, err := s.ensureMember(ctx, actor)
	if err != nil {
		return time.Time{}, err
	}
	m.MuteUntil = sql.NullTime{Time: date, Valid: true}
	if err := s.memberRepo.Update(ctx, m); err != nil {
		return time.Time{}, fmt.Errorf("failed to update mute date: %w", err)
	}
	return date, nil
}

// SetTimezone stores the actor's IANA timezone, validated against the tz
// database.
func (s *AdminService) SetTimezone(ctx context.Context, actor Actor, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil || tz == "" {
		return ErrInvalidTimezone
	}
	m, err := s.ensureMember(ctx, actor)
	if err != nil {
		return err
	}
	m.Timezone = tz
	if err := s.memberRepo.Update(ctx, m); err != nil {
		return fmt.Errorf("failed to update timezone: %w", err)
	}
	return nil
}

// RequestSummary flags the latest instance of the channel's standup for
// republication; the publish pass picks it up.
func (s *AdminService) RequestSummary(ctx context.Context, ch ChannelRef, slug string) (*standup.Instance, error) {
	def, err := s.standupRepo.GetDefinitionBySlug(ctx, ch.ChannelID, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	inst, err := s.standupRepo.GetLatestInstance(ctx, def.ID)
	if err != nil {
		if err == idb.ErrInstanceNotFound {
			return nil, ErrNoInstanceYet
		}
		return nil, err
	}
	if err := inst.MarkPublishPending(); err != nil {
		return nil, err
	}
	if err := s.standupRepo.UpdateInstance(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to flag instance for republication: %w", err)
	}
	return inst, nil
}

// AddQuestion appends a question to a definition's list.
func (s *AdminService) AddQuestion(ctx context.Context, definitionID int64, text string, important bool, prefillFromID int64) (*standup.Question, error) {
	if _, err := s.standupRepo.GetDefinitionByID(ctx, definitionID); err != nil {
		return nil, err
	}
	q := &standup.Question{
		DefinitionID: definitionID,
		Text:         text,
		Important:    important,
	}
	if prefillFromID != 0 {
		q.PrefillFromID = sql.NullInt64{Int64: prefillFromID, Valid: true}
	}
	if err := s.standupRepo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// RemoveQuestion deletes a question, keeping positions dense.
func (s *AdminService) RemoveQuestion(ctx context.Context, questionID int64) error {
	return s.standupRepo.DeleteQuestion(ctx, questionID)
}

// MoveQuestion repositions a question within its definition's list.
func (s *AdminService) MoveQuestion(ctx context.Context, questionID int64, position int) error {
	return s.standupRepo.MoveQuestion(ctx, questionID, position)
}

// ListQuestions returns a definition's questions in order.
func (s *AdminService) ListQuestions(ctx context.Context, definitionID int64) ([]*standup.Question, error) {
	return s.standupRepo.ListQuestions(ctx, definitionID)
}
