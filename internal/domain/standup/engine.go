package standup

import (
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/member"
)

// AttendeeView joins an attendee with its member, the unit the engine
// evaluates per tick.
type AttendeeView struct {
	Attendee *Attendee
	Member   *member.Member
}

// TickInput is the snapshot of persisted state one tick decides over:
// the definition's attendees, its recent instances (at least the
// minimum-gap window) and the participations of those instances.
type TickInput struct {
	Attendees      []AttendeeView
	Instances      []*Instance
	Participations []*Participation
}

// ParticipationPlan is one storage effect of a tick. A zero InstanceID
// means the instance for Date must be created first; a zero
// ParticipationID means the participation must be created. Notify marks
// the participation due for notification this cycle.
type ParticipationPlan struct {
	Date            time.Time
	InstanceID      int64
	ParticipationID int64
	MemberID        int64
	ReadOnly        bool
	Notify          bool
}

// Effects is the ordered list of side effects one tick produced. The
// caller applies them; the engine itself never touches storage.
type Effects struct {
	Plans []ParticipationPlan
}

// Tick evaluates one definition against the given snapshot at the given
// server time and returns the effects to apply. It is pure: calling it any
// number of times with the same input yields the same effects, and a
// snapshot that already reflects applied effects yields none.
//
// Each attendee is evaluated in their own local time; the first attendee
// whose conditions pass fixes that cycle's instance date, and attendees
// whose local date differs (midnight boundary) plan their own date.
func Tick(def *Definition, in TickInput, now time.Time) Effects {
	var fx Effects

	instances := make(map[string]*Instance, len(in.Instances))
	for _, inst := range in.Instances {
		instances[dateKey(inst.Date)] = inst
	}
	planned := make(map[string]time.Time)

	participations := make(map[participationKey]*Participation, len(in.Participations))
	for _, p := range in.Participations {
		participations[participationKey{p.InstanceID, p.MemberID}] = p
	}

	for _, av := range in.Attendees {
		if av.Attendee == nil || av.Member == nil || !av.Attendee.Active {
			continue
		}

		local := now.In(av.Member.Location())
		if !def.IsScheduledDay(local) {
			continue
		}

		key := dateKey(local)
		inst := instances[key]
		_, plannedToday := planned[key]

		// Minimum-gap rule: no new instance while another exists within
		// the configured window. Applies only when today's instance does
		// not exist yet.
		if inst == nil && !plannedToday && def.MinDaysBetween > 0 {
			threshold := DateOf(local.AddDate(0, 0, -def.MinDaysBetween))
			if anyInstanceOnOrAfter(in.Instances, planned, threshold) {
				continue
			}
		}

		// Muted members trigger no side effects at all, but do not block
		// other attendees from creating the instance.
		if av.Member.MutedOn(local) {
			continue
		}

		if inst == nil && !plannedToday {
			planned[key] = DateOf(local)
		}

		var p *Participation
		if inst != nil {
			p = participations[participationKey{inst.ID, av.Member.ID}]
		}
		// Re-entry guard: a participation that left PENDING is settled for
		// this instance.
		if p != nil && p.Status != ParticipationPending {
			continue
		}

		due := local.Hour() >= def.DueHour

		plan := ParticipationPlan{
			Date:     DateOf(local),
			MemberID: av.Member.ID,
			Notify:   due,
		}
		if inst != nil {
			plan.InstanceID = inst.ID
		}
		if p != nil {
			plan.ParticipationID = p.ID
			plan.ReadOnly = p.ReadOnly
			if !due {
				continue // nothing to do for an existing pending participation
			}
		} else {
			plan.ReadOnly = av.Attendee.ReadOnly
		}
		fx.Plans = append(fx.Plans, plan)
	}

	return fx
}

type participationKey struct {
	instanceID int64
	memberID   int64
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func anyInstanceOnOrAfter(instances []*Instance, planned map[string]time.Time, threshold time.Time) bool {
	for _, inst := range instances {
		if !DateOf(inst.Date).Before(threshold) {
			return true
		}
	}
	for _, d := range planned {
		if !d.Before(threshold) {
			return true
		}
	}
	return false
}
