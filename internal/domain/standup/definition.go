package standup

import (
	"time"
)

// Definition is a recurring standup schedule bound to one channel.
// Corresponds to the 'standup_definitions' table. Unique per
// (channel_id, slug); protected from deletion while instances exist.
type Definition struct {
	ID          int64
	GuildID     string
	ChannelID   string
	ChannelName string
	Name        string
	Slug        string
	OnMonday    bool
	OnTuesday   bool
	OnWednesday bool
	OnThursday  bool
	OnFriday    bool
	OnSaturday  bool
	OnSunday    bool
	// DueHour is the local hour of day after which an instance becomes due
	// for its participants.
	DueHour int
	// MinDaysBetween blocks creation of a new instance while another
	// instance exists within that many days.
	MinDaysBetween int
	// Private disables the public permalink; the channel summary is still
	// published.
	Private bool
	// PublishDelay is how long after the due moment the channel summary may
	// reveal non-responders.
	PublishDelay time.Duration
	CreatedBy    int64
	CreatedAt    time.Time
}

// IsScheduledDay reports whether the definition fires on the weekday of the
// given local time. Pure; callers must convert to the member's own zone
// first.
func (d *Definition) IsScheduledDay(localTime time.Time) bool {
	switch localTime.Weekday() {
	case time.Monday:
		return d.OnMonday
	case time.Tuesday:
		return d.OnTuesday
	case time.Wednesday:
		return d.OnWednesday
	case time.Thursday:
		return d.OnThursday
	case time.Friday:
		return d.OnFriday
	case time.Saturday:
		return d.OnSaturday
	default:
		return d.OnSunday
	}
}

// DueMoment is the instant in loc at which an instance dated date became due.
func (d *Definition) DueMoment(date time.Time, loc *time.Location) time.Time {
	y, m, day := date.Date()
	return time.Date(y, m, day, d.DueHour, 0, 0, 0, loc)
}

// DateOf truncates a time to its date, normalized to midnight UTC. Instance
// dates are stored and compared in this form.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
