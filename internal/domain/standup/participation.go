package standup

import (
	"fmt"
	"time"
)

// ParticipationStatus represents the state of one member's expected response.
type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "PENDING"
	ParticipationNotified  ParticipationStatus = "NOTIFIED"
	ParticipationCompleted ParticipationStatus = "COMPLETED"
)

// Participation is one member's enrollment in one Instance.
// Corresponds to the 'standup_participations' table. Unique per
// (instance_id, member_id). The single-use token is generated once at
// creation and never changes.
type Participation struct {
	ID         int64
	InstanceID int64
	MemberID   int64
	ReadOnly   bool
	Token      string
	Status     ParticipationStatus
	CreatedAt  time.Time
}

// MarkNotified records that the action link was handed to the dispatcher.
// Only legal from PENDING: once notified (or completed) a participation is
// never re-notified.
func (p *Participation) MarkNotified() error {
	if p.Status != ParticipationPending {
		return fmt.Errorf("%w: participation %d %s -> %s", ErrIllegalTransition, p.ID, p.Status, ParticipationNotified)
	}
	p.Status = ParticipationNotified
	return nil
}

// MarkCompleted records a submitted form. COMPLETED is terminal.
func (p *Participation) MarkCompleted() error {
	switch p.Status {
	case ParticipationPending, ParticipationNotified:
		p.Status = ParticipationCompleted
		return nil
	default:
		return fmt.Errorf("%w: participation %d %s -> %s", ErrIllegalTransition, p.ID, p.Status, ParticipationCompleted)
	}
}

// Completed reports whether the member has submitted their answers.
func (p *Participation) Completed() bool {
	return p.Status == ParticipationCompleted
}
