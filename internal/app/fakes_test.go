package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/chat"
	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"
	idb "github.com/fijter/discord-standupbot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeStandupRepo is an in-memory standup.Repository that enforces the same
// uniqueness rules as the postgres schema.
type fakeStandupRepo struct {
	definitions    map[int64]*standup.Definition
	questions      map[int64]*standup.Question
	attendees      map[int64]*standup.Attendee
	instances      map[int64]*standup.Instance
	participations map[int64]*standup.Participation
	answers        map[int64]*standup.Answer
	nextID         int64

	// hideInstancesOnce and hideParticipationsOnce make the next listing
	// return nothing, simulating a snapshot taken before a concurrent
	// writer committed.
	hideInstancesOnce      bool
	hideParticipationsOnce bool
}

func newFakeStandupRepo() *fakeStandupRepo {
	return &fakeStandupRepo{
		definitions:    map[int64]*standup.Definition{},
		questions:      map[int64]*standup.Question{},
		attendees:      map[int64]*standup.Attendee{},
		instances:      map[int64]*standup.Instance{},
		participations: map[int64]*standup.Participation{},
		answers:        map[int64]*standup.Answer{},
	}
}

func (r *fakeStandupRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeStandupRepo) CreateDefinition(_ context.Context, d *standup.Definition) error {
	for _, existing := range r.definitions {
		if existing.ChannelID == d.ChannelID && existing.Slug == d.Slug {
			return idb.ErrDuplicateDefinition
		}
	}
	d.ID = r.id()
	r.definitions[d.ID] = d
	return nil
}

func (r *fakeStandupRepo) GetDefinitionByID(_ context.Context, id int64) (*standup.Definition, error) {
	d, ok := r.definitions[id]
	if !ok {
		return nil, idb.ErrDefinitionNotFound
	}
	return d, nil
}

func (r *fakeStandupRepo) GetDefinitionBySlug(_ context.Context, channelID, slug string) (*standup.Definition, error) {
	for _, d := range r.definitions {
		if d.ChannelID == channelID && d.Slug == slug {
			return d, nil
		}
	}
	return nil, idb.ErrDefinitionNotFound
}

func (r *fakeStandupRepo) ListDefinitions(_ context.Context) ([]*standup.Definition, error) {
	out := make([]*standup.Definition, 0, len(r.definitions))
	for _, d := range r.definitions {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStandupRepo) CreateQuestion(_ context.Context, q *standup.Question) error {
	q.ID = r.id()
	q.Position = 0
	for _, existing := range r.questions {
		if existing.DefinitionID == q.DefinitionID {
			q.Position++
		}
	}
	r.questions[q.ID] = q
	return nil
}

func (r *fakeStandupRepo) DeleteQuestion(_ context.Context, id int64) error {
	q, ok := r.questions[id]
	if !ok {
		return idb.ErrQuestionNotFound
	}
	delete(r.questions, id)
	for _, other := range r.questions {
		if other.DefinitionID == q.DefinitionID && other.Position > q.Position {
			other.Position--
		}
	}
	return nil
}

func (r *fakeStandupRepo) MoveQuestion(_ context.Context, id int64, position int) error {
	q, ok := r.questions[id]
	if !ok {
		return idb.ErrQuestionNotFound
	}
	for _, other := range r.questions {
		if other.ID == id || other.DefinitionID != q.DefinitionID {
			continue
		}
		if q.Position < position && other.Position > q.Position && other.Position <= position {
			other.Position--
		}
		if q.Position > position && other.Position >= position && other.Position < q.Position {
			other.Position++
		}
	}
	q.Position = position
	return nil
}

func (r *fakeStandupRepo) ListQuestions(_ context.Context, definitionID int64) ([]*standup.Question, error) {
	var out []*standup.Question
	for _, q := range r.questions {
		if q.DefinitionID == definitionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeStandupRepo) CreateAttendee(_ context.Context, a *standup.Attendee) error {
	for _, existing := range r.attendees {
		if existing.DefinitionID == a.DefinitionID && existing.MemberID == a.MemberID {
			return idb.ErrDuplicateAttendee
		}
	}
	a.ID = r.id()
	r.attendees[a.ID] = a
	return nil
}

func (r *fakeStandupRepo) GetAttendee(_ context.Context, definitionID, memberID int64) (*standup.Attendee, error) {
	for _, a := range r.attendees {
		if a.DefinitionID == definitionID && a.MemberID == memberID {
			return a, nil
		}
	}
	return nil, idb.ErrAttendeeNotFound
}

func (r *fakeStandupRepo) UpdateAttendee(_ context.Context, a *standup.Attendee) error {
	if _, ok := r.attendees[a.ID]; !ok {
		return idb.ErrAttendeeNotFound
	}
	r.attendees[a.ID] = a
	return nil
}

func (r *fakeStandupRepo) ListActiveAttendees(_ context.Context, definitionID int64) ([]*standup.Attendee, error) {
	var out []*standup.Attendee
	for _, a := range r.attendees {
		if a.DefinitionID == definitionID && a.Active {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStandupRepo) CreateInstance(_ context.Context, inst *standup.Instance) error {
	for _, existing := range r.instances {
		if existing.DefinitionID == inst.DefinitionID && existing.Date.Equal(inst.Date) {
			return idb.ErrDuplicateInstance
		}
	}
	inst.ID = r.id()
	r.instances[inst.ID] = inst
	return nil
}

func (r *fakeStandupRepo) GetInstanceByID(_ context.Context, id int64) (*standup.Instance, error) {
	inst, ok := r.instances[id]
	if !ok {
		return nil, idb.ErrInstanceNotFound
	}
	return inst, nil
}

func (r *fakeStandupRepo) GetInstanceByDate(_ context.Context, definitionID int64, date time.Time) (*standup.Instance, error) {
	for _, inst := range r.instances {
		if inst.DefinitionID == definitionID && inst.Date.Equal(date) {
			return inst, nil
		}
	}
	return nil, idb.ErrInstanceNotFound
}

func (r *fakeStandupRepo) GetLatestInstance(_ context.Context, definitionID int64) (*standup.Instance, error) {
	var latest *standup.Instance
	for _, inst := range r.instances {
		if inst.DefinitionID != definitionID {
			continue
		}
		if latest == nil || inst.Date.After(latest.Date) {
			latest = inst
		}
	}
	if latest == nil {
		return nil, idb.ErrInstanceNotFound
	}
	return latest, nil
}

func (r *fakeStandupRepo) ListInstancesSince(_ context.Context, definitionID int64, since time.Time) ([]*standup.Instance, error) {
	if r.hideInstancesOnce {
		r.hideInstancesOnce = false
		return nil, nil
	}
	var out []*standup.Instance
	for _, inst := range r.instances {
		if inst.DefinitionID == definitionID && !inst.Date.Before(standup.DateOf(since)) {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeStandupRepo) ListPublishPending(_ context.Context) ([]*standup.Instance, error) {
	var out []*standup.Instance
	for _, inst := range r.instances {
		if inst.Status == standup.InstancePublishPending {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStandupRepo) UpdateInstance(_ context.Context, inst *standup.Instance) error {
	if _, ok := r.instances[inst.ID]; !ok {
		return idb.ErrInstanceNotFound
	}
	r.instances[inst.ID] = inst
	return nil
}

func (r *fakeStandupRepo) CreateParticipation(_ context.Context, p *standup.Participation) error {
	for _, existing := range r.participations {
		if existing.InstanceID == p.InstanceID && existing.MemberID == p.MemberID {
			return idb.ErrDuplicateParticipation
		}
	}
	p.ID = r.id()
	r.participations[p.ID] = p
	return nil
}

func (r *fakeStandupRepo) GetParticipationByID(_ context.Context, id int64) (*standup.Participation, error) {
	p, ok := r.participations[id]
	if !ok {
		return nil, idb.ErrParticipationNotFound
	}
	return p, nil
}

func (r *fakeStandupRepo) GetParticipation(_ context.Context, instanceID, memberID int64) (*standup.Participation, error) {
	for _, p := range r.participations {
		if p.InstanceID == instanceID && p.MemberID == memberID {
			return p, nil
		}
	}
	return nil, idb.ErrParticipationNotFound
}

func (r *fakeStandupRepo) GetParticipationByToken(_ context.Context, token string) (*standup.Participation, error) {
	for _, p := range r.participations {
		if p.Token == token {
			return p, nil
		}
	}
	return nil, idb.ErrParticipationNotFound
}

func (r *fakeStandupRepo) ListParticipations(_ context.Context, instanceID int64) ([]*standup.Participation, error) {
	if r.hideParticipationsOnce {
		r.hideParticipationsOnce = false
		return nil, nil
	}
	var out []*standup.Participation
	for _, p := range r.participations {
		if p.InstanceID == instanceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeStandupRepo) ListParticipationsByMember(_ context.Context, definitionID, memberID int64) ([]*standup.Participation, error) {
	var out []*standup.Participation
	for _, p := range r.participations {
		inst := r.instances[p.InstanceID]
		if inst != nil && inst.DefinitionID == definitionID && p.MemberID == memberID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.instances[out[i].InstanceID].Date.After(r.instances[out[j].InstanceID].Date)
	})
	return out, nil
}

func (r *fakeStandupRepo) LatestCompletedParticipation(_ context.Context, definitionID, memberID, beforeID int64) (*standup.Participation, error) {
	var latest *standup.Participation
	for _, p := range r.participations {
		inst := r.instances[p.InstanceID]
		if inst == nil || inst.DefinitionID != definitionID {
			continue
		}
		if p.MemberID != memberID || !p.Completed() || p.ID >= beforeID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, idb.ErrParticipationNotFound
	}
	return latest, nil
}

func (r *fakeStandupRepo) UpdateParticipation(_ context.Context, p *standup.Participation) error {
	if _, ok := r.participations[p.ID]; !ok {
		return idb.ErrParticipationNotFound
	}
	r.participations[p.ID] = p
	return nil
}

func (r *fakeStandupRepo) UpsertAnswer(_ context.Context, a *standup.Answer) error {
	for _, existing := range r.answers {
		if existing.ParticipationID == a.ParticipationID && existing.QuestionID == a.QuestionID {
			existing.Text = a.Text
			a.ID = existing.ID
			return nil
		}
	}
	a.ID = r.id()
	r.answers[a.ID] = &standup.Answer{ID: a.ID, ParticipationID: a.ParticipationID, QuestionID: a.QuestionID, Text: a.Text}
	return nil
}

func (r *fakeStandupRepo) ListAnswers(_ context.Context, participationID int64) ([]*standup.Answer, error) {
	var out []*standup.Answer
	for _, a := range r.answers {
		if a.ParticipationID == participationID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.questions[out[i].QuestionID].Position < r.questions[out[j].QuestionID].Position
	})
	return out, nil
}

func (r *fakeStandupRepo) WithinTx(_ context.Context, fn func(standup.Repository) error) error {
	return fn(r)
}

// fakeMemberRepo is an in-memory member.Repository.
type fakeMemberRepo struct {
	members map[int64]*member.Member
	nextID  int64
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: map[int64]*member.Member{}}
}

func (r *fakeMemberRepo) Create(_ context.Context, m *member.Member) error {
	for _, existing := range r.members {
		if existing.DiscordID == m.DiscordID {
			return idb.ErrDuplicateDiscordID
		}
	}
	r.nextID++
	m.ID = r.nextID
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id int64) (*member.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, idb.ErrMemberNotFound
	}
	return m, nil
}

func (r *fakeMemberRepo) GetByDiscordID(_ context.Context, discordID string) (*member.Member, error) {
	for _, m := range r.members {
		if m.DiscordID == discordID {
			return m, nil
		}
	}
	return nil, idb.ErrMemberNotFound
}

func (r *fakeMemberRepo) Update(_ context.Context, m *member.Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return idb.ErrMemberNotFound
	}
	r.members[m.ID] = m
	return nil
}

// fakeChatClient records outbound traffic and supports per-member failures.
type fakeChatClient struct {
	directMessages  map[string][]string
	channelMessages map[string][]string
	pinned          []chat.MessageRef
	failResolve     map[string]bool
	failDM          map[string]bool
	msgCounter      int
}

func newFakeChatClient() *fakeChatClient {
	return &fakeChatClient{
		directMessages:  map[string][]string{},
		channelMessages: map[string][]string{},
		failResolve:     map[string]bool{},
		failDM:          map[string]bool{},
	}
}

func (c *fakeChatClient) ResolveMember(discordID string) (*chat.ResolvedMember, error) {
	if c.failResolve[discordID] {
		return nil, fmt.Errorf("member %s left the guild", discordID)
	}
	return &chat.ResolvedMember{DiscordID: discordID, Username: discordID}, nil
}

func (c *fakeChatClient) SendDirectMessage(discordID string, text string) error {
	if c.failDM[discordID] {
		return fmt.Errorf("cannot send messages to %s", discordID)
	}
	c.directMessages[discordID] = append(c.directMessages[discordID], text)
	return nil
}

func (c *fakeChatClient) SendChannelMessage(channelID string, text string) (chat.MessageRef, error) {
	c.msgCounter++
	c.channelMessages[channelID] = append(c.channelMessages[channelID], text)
	return chat.MessageRef{ChannelID: channelID, MessageID: fmt.Sprintf("msg-%d", c.msgCounter)}, nil
}

func (c *fakeChatClient) Pin(ref chat.MessageRef) error {
	c.pinned = append(c.pinned, ref)
	return nil
}
