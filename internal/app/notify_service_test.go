package app

import (
	"context"
	"testing"

	"github.com/fijter/discord-standupbot/internal/domain/member"
	"github.com/fijter/discord-standupbot/internal/domain/standup"

	"github.com/stretchr/testify/require"
)

func notifyFixture(t *testing.T) (*fakeMemberRepo, *fakeChatClient, *NotifyService, *standup.Definition) {
	t.Helper()
	members := newFakeMemberRepo()
	chatClient := newFakeChatClient()
	svc := NewNotifyService(members, chatClient, "https://standup.example.com", testLogger())
	def := &standup.Definition{ID: 1, Name: "Daily Standup", Slug: "daily-standup", ChannelID: "chan"}
	return members, chatClient, svc, def
}

func TestDispatchSendsFormAndHomeLinks(t *testing.T) {
	ctx := context.Background()
	members, chatClient, svc, def := notifyFixture(t)

	alice := &member.Member{DiscordID: "alice", Username: "alice", FirstName: "Alice"}
	require.NoError(t, members.Create(ctx, alice))

	svc.Dispatch(ctx, def, []*standup.Participation{
		{ID: 1, MemberID: alice.ID, Token: "tok-alice", Status: standup.ParticipationNotified},
	})

	require.Len(t, chatClient.directMessages["alice"], 1)
	msg := chatClient.directMessages["alice"][0]
	require.Contains(t, msg, "Alice")
	require.Contains(t, msg, "Daily Standup")
	require.Contains(t, msg, "https://standup.example.com/standup/tok-alice")
	require.Contains(t, msg, "https://standup.example.com/home/tok-alice")
}

func TestDispatchReadOnlyGetsFollowLinkOnly(t *testing.T) {
	ctx := context.Background()
	members, chatClient, svc, def := notifyFixture(t)

	carol := &member.Member{DiscordID: "carol", Username: "carol", FirstName: "Carol"}
	require.NoError(t, members.Create(ctx, carol))

	svc.Dispatch(ctx, def, []*standup.Participation{
		{ID: 1, MemberID: carol.ID, Token: "tok-carol", ReadOnly: true, Status: standup.ParticipationNotified},
	})

	require.Len(t, chatClient.directMessages["carol"], 1)
	msg := chatClient.directMessages["carol"][0]
	require.Contains(t, msg, "https://standup.example.com/home/tok-carol")
	require.NotContains(t, msg, "/standup/tok-carol", "observers get no answer form")
}

func TestDispatchIsolatesPerRecipientFailures(t *testing.T) {
	ctx := context.Background()
	members, chatClient, svc, def := notifyFixture(t)

	gone := &member.Member{DiscordID: "gone", Username: "gone", FirstName: "Gone"}
	blocked := &member.Member{DiscordID: "blocked", Username: "blocked", FirstName: "Blocked"}
	alice := &member.Member{DiscordID: "alice", Username: "alice", FirstName: "Alice"}
	require.NoError(t, members.Create(ctx, gone))
	require.NoError(t, members.Create(ctx, blocked))
	require.NoError(t, members.Create(ctx, alice))

	chatClient.failResolve["gone"] = true
	chatClient.failDM["blocked"] = true

	svc.Dispatch(ctx, def, []*standup.Participation{
		{ID: 1, MemberID: gone.ID, Token: "tok-gone", Status: standup.ParticipationNotified},
		{ID: 2, MemberID: blocked.ID, Token: "tok-blocked", Status: standup.ParticipationNotified},
		{ID: 3, MemberID: alice.ID, Token: "tok-alice", Status: standup.ParticipationNotified},
	})

	require.Empty(t, chatClient.directMessages["gone"])
	require.Empty(t, chatClient.directMessages["blocked"])
	require.Len(t, chatClient.directMessages["alice"], 1, "one bad recipient never blocks the rest")
}
