package member

import (
	"database/sql"
	"time"
)

// Member is a chat-platform user shared between standups. Members are
// referenced by attendees and participations but never owned by them.
type Member struct {
	ID        int64
	DiscordID string
	Username  string
	FirstName string
	LastName  sql.NullString
	Timezone  string       // IANA zone name, e.g. "Europe/Amsterdam"
	MuteUntil sql.NullTime // date-only; muted while MuteUntil >= local date
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the member's configured timezone, falling back to UTC
// when the stored name is empty or invalid.
func (m *Member) Location() *time.Location {
	if m.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MutedOn reports whether the member is muted on the given local date.
func (m *Member) MutedOn(localDate time.Time) bool {
	if !m.MuteUntil.Valid {
		return false
	}
	mute := m.MuteUntil.Time
	y1, m1, d1 := mute.Date()
	y2, m2, d2 := localDate.Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 >= d2
}

// DisplayName returns the name used when ordering participants in summaries.
func (m *Member) DisplayName() string {
	if m.FirstName != "" {
		return m.FirstName
	}
	return m.Username
}
