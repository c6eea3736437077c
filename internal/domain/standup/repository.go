package standup

import (
	"context"
	"time"
)

// Repository defines operations for the standup entity graph.
// Uniqueness constraints ((channel, slug), (definition, date),
// (instance, member), (participation, question)) are enforced by the
// storage layer; the corresponding Create methods surface conflicts as the
// ErrDuplicate* sentinels from the infra package.
type Repository interface {
	// Definition methods
	CreateDefinition(ctx context.Context, d *Definition) error
	GetDefinitionByID(ctx context.Context, id int64) (*Definition, error)
	GetDefinitionBySlug(ctx context.Context, channelID, slug string) (*Definition, error)
	ListDefinitions(ctx context.Context) ([]*Definition, error)

	// Question methods. Positions stay dense and zero-based: create
	// appends, delete closes the gap, move shifts the range in between.
	CreateQuestion(ctx context.Context, q *Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	MoveQuestion(ctx context.Context, id int64, position int) error
	ListQuestions(ctx context.Context, definitionID int64) ([]*Question, error)

	// Attendee methods
	CreateAttendee(ctx context.Context, a *Attendee) error
	GetAttendee(ctx context.Context, definitionID, memberID int64) (*Attendee, error)
	UpdateAttendee(ctx context.Context, a *Attendee) error
	ListActiveAttendees(ctx context.Context, definitionID int64) ([]*Attendee, error)

	// Instance methods
	CreateInstance(ctx context.Context, inst *Instance) error
	GetInstanceByID(ctx context.Context, id int64) (*Instance, error)
	GetInstanceByDate(ctx context.Context, definitionID int64, date time.Time) (*Instance, error)
	GetLatestInstance(ctx context.Context, definitionID int64) (*Instance, error)
	ListInstancesSince(ctx context.Context, definitionID int64, since time.Time) ([]*Instance, error)
	ListPublishPending(ctx context.Context) ([]*Instance, error)
	UpdateInstance(ctx context.Context, inst *Instance) error

	// Participation methods
	CreateParticipation(ctx context.Context, p *Participation) error
	GetParticipationByID(ctx context.Context, id int64) (*Participation, error)
	GetParticipation(ctx context.Context, instanceID, memberID int64) (*Participation, error)
	GetParticipationByToken(ctx context.Context, token string) (*Participation, error)
	ListParticipations(ctx context.Context, instanceID int64) ([]*Participation, error)
	ListParticipationsByMember(ctx context.Context, definitionID, memberID int64) ([]*Participation, error)
	// LatestCompletedParticipation returns the member's most recent
	// completed participation of the definition created before the given
	// participation, for form prefill.
	LatestCompletedParticipation(ctx context.Context, definitionID, memberID, beforeID int64) (*Participation, error)
	UpdateParticipation(ctx context.Context, p *Participation) error

	// Answer methods
	UpsertAnswer(ctx context.Context, a *Answer) error
	ListAnswers(ctx context.Context, participationID int64) ([]*Answer, error)

	// WithinTx runs fn against a repository bound to a single transaction.
	// One tick's mutations are applied through this so a partial failure
	// leaves a consistent retry path for the next cycle.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}
