package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"

	"github.com/stretchr/testify/require"
)

type publishFixture struct {
	repo    *fakeStandupRepo
	members *fakeMemberRepo
	chat    *fakeChatClient
	svc     *PublishService
	def     *standup.Definition
	inst    *standup.Instance
	q1, q2  *standup.Question
}

func newPublishFixture(t *testing.T, now time.Time) *publishFixture {
	t.Helper()
	ctx := context.Background()

	repo := newFakeStandupRepo()
	members := newFakeMemberRepo()
	chatClient := newFakeChatClient()

	def := &standup.Definition{
		ChannelID:    "chan",
		Name:         "Daily Standup",
		Slug:         "daily-standup",
		OnMonday:     true,
		DueHour:      9,
		PublishDelay: 24 * time.Hour,
	}
	require.NoError(t, repo.CreateDefinition(ctx, def))

	q1 := &standup.Question{DefinitionID: def.ID, Text: "What did you do?", Important: true}
	q2 := &standup.Question{DefinitionID: def.ID, Text: "Any blockers?"}
	require.NoError(t, repo.CreateQuestion(ctx, q1))
	require.NoError(t, repo.CreateQuestion(ctx, q2))

	inst := &standup.Instance{
		DefinitionID: def.ID,
		Date:         time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		Status:       standup.InstancePublishPending,
	}
	require.NoError(t, repo.CreateInstance(ctx, inst))

	svc := NewPublishService(repo, members, chatClient, "https://standup.example.com", testLogger())
	svc.now = func() time.Time { return now }

	return &publishFixture{repo: repo, members: members, chat: chatClient, svc: svc, def: def, inst: inst, q1: q1, q2: q2}
}

func (f *publishFixture) addParticipant(t *testing.T, discordID string, status standup.ParticipationStatus, readOnly bool) *standup.Participation {
	t.Helper()
	ctx := context.Background()

	m := &member.Member{DiscordID: discordID, Username: discordID, FirstName: discordID, Timezone: "UTC"}
	require.NoError(t, f.members.Create(ctx, m))

	p := &standup.Participation{
		InstanceID: f.inst.ID,
		MemberID:   m.ID,
		ReadOnly:   readOnly,
		Token:      "tok-" + discordID,
		Status:     status,
	}
	require.NoError(t, f.repo.CreateParticipation(ctx, p))
	return p
}

func (f *publishFixture) addAnswer(t *testing.T, p *standup.Participation, q *standup.Question, text string) {
	t.Helper()
	require.NoError(t, f.repo.UpsertAnswer(context.Background(), &standup.Answer{
		ParticipationID: p.ID,
		QuestionID:      q.ID,
		Text:            text,
	}))
}

// Well past any plausible local-time delay window for the fixture date.
var afterWindow = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

// Before the window opens in any local timezone.
var beforeWindow = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func TestPublishDeferredWhileIncompleteInsideWindow(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, beforeWindow)

	alice := f.addParticipant(t, "alice", standup.ParticipationCompleted, false)
	f.addAnswer(t, alice, f.q1, "Shipped the importer")
	f.addParticipant(t, "bob", standup.ParticipationNotified, false)

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))
	require.Empty(t, f.chat.channelMessages, "nothing is sent before the delay window passes")
	require.Equal(t, standup.InstancePublishPending, f.inst.Status)
}

func TestPublishImmediateWhenEveryoneCompleted(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, beforeWindow)

	alice := f.addParticipant(t, "alice", standup.ParticipationCompleted, false)
	f.addAnswer(t, alice, f.q1, "Shipped the importer")
	f.addAnswer(t, alice, f.q2, "None")

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))

	msgs := f.chat.channelMessages["chan"]
	require.Len(t, msgs, 2, "header plus one participant block")
	require.Contains(t, msgs[0], "Daily Standup")
	require.Contains(t, msgs[0], "https://standup.example.com/standups/chan/daily-standup/2026-08-24")
	require.Contains(t, msgs[1], "<@alice>")
	require.Contains(t, msgs[1], "! What did you do?", "important questions carry the marker")
	require.Contains(t, msgs[1], "Shipped the importer")

	require.Equal(t, standup.InstancePublished, f.inst.Status)
	require.True(t, f.inst.PinnedMessageID.Valid)
	require.Len(t, f.chat.pinned, 1)
	require.Equal(t, f.inst.PinnedMessageID.String, f.chat.pinned[0].MessageID)
}

func TestPublishNamesNonRespondersAfterWindow(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, afterWindow)

	alice := f.addParticipant(t, "alice", standup.ParticipationCompleted, false)
	f.addAnswer(t, alice, f.q1, "Reviewed PRs")
	f.addParticipant(t, "bob", standup.ParticipationNotified, false)

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))

	msgs := f.chat.channelMessages["chan"]
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	require.Contains(t, last, "Not filled in (yet) by: <@bob>")
	require.Equal(t, standup.InstancePublished, f.inst.Status)
}

func TestPublishSkipsWithoutEligibleParticipants(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, afterWindow)

	// A lone observer never produces a summary.
	f.addParticipant(t, "carol", standup.ParticipationNotified, true)

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))
	require.Empty(t, f.chat.channelMessages)
	require.Equal(t, standup.InstancePublishPending, f.inst.Status)
}

func TestPublishPrivateDefinitionOmitsPermalink(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, afterWindow)
	f.def.Private = true

	alice := f.addParticipant(t, "alice", standup.ParticipationCompleted, false)
	f.addAnswer(t, alice, f.q1, "Fixed the flaky test")

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))

	msgs := f.chat.channelMessages["chan"]
	require.NotEmpty(t, msgs)
	require.NotContains(t, msgs[0], "https://", "private summaries carry no public link")
}

func TestPublishOrdersParticipantsByDisplayName(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, afterWindow)

	zoe := f.addParticipant(t, "zoe", standup.ParticipationCompleted, false)
	f.addAnswer(t, zoe, f.q1, "Z work")
	anna := f.addParticipant(t, "anna", standup.ParticipationCompleted, false)
	f.addAnswer(t, anna, f.q1, "A work")

	require.NoError(t, f.svc.Publish(ctx, f.def, f.inst))

	msgs := f.chat.channelMessages["chan"]
	require.Len(t, msgs, 3)
	require.Contains(t, msgs[1], "<@anna>")
	require.Contains(t, msgs[2], "<@zoe>")
}

func TestRunPassPublishesEveryPendingInstance(t *testing.T) {
	ctx := context.Background()
	f := newPublishFixture(t, afterWindow)

	alice := f.addParticipant(t, "alice", standup.ParticipationCompleted, false)
	f.addAnswer(t, alice, f.q1, "Done things")

	f.svc.RunPass(ctx)

	inst, err := f.repo.GetInstanceByID(ctx, f.inst.ID)
	require.NoError(t, err)
	require.Equal(t, standup.InstancePublished, inst.Status)
}

func TestTruncateBlockCapsLongContent(t *testing.T) {
	long := strings.Repeat("a", 2500)
	got := TruncateBlock(long, maxAnswerBlockLength)
	require.Len(t, []rune(got), maxAnswerBlockLength+3)
	require.True(t, strings.HasSuffix(got, "..."))
	require.Equal(t, strings.Repeat("a", maxAnswerBlockLength), strings.TrimSuffix(got, "..."))

	short := "fits fine"
	require.Equal(t, short, TruncateBlock(short, maxAnswerBlockLength))

	exact := strings.Repeat("b", maxAnswerBlockLength)
	require.Equal(t, exact, TruncateBlock(exact, maxAnswerBlockLength))
}
