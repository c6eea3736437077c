package standup

import (
	"database/sql"
	"fmt"
	"time"
)

// InstanceStatus represents the publication state of an instance.
type InstanceStatus string

const (
	InstanceOpen           InstanceStatus = "OPEN"
	InstancePublishPending InstanceStatus = "PUBLISH_PENDING"
	InstancePublished      InstanceStatus = "PUBLISHED"
)

// ErrIllegalTransition is returned when an entity is asked to move to a
// status its state machine does not allow.
var ErrIllegalTransition = fmt.Errorf("illegal status transition")

// Instance is one dated occurrence of a Definition.
// Corresponds to the 'standup_instances' table. Unique per
// (definition_id, instance_date); the database constraint is the
// authoritative guard against concurrent creation.
type Instance struct {
	ID              int64
	DefinitionID    int64
	Date            time.Time // date-only, midnight UTC
	Status          InstanceStatus
	PinnedMessageID sql.NullString
	CreatedAt       time.Time
}

// MarkPublishPending flags the instance's channel summary as stale.
// Re-flagging an already pending instance is a no-op.
func (i *Instance) MarkPublishPending() error {
	switch i.Status {
	case InstanceOpen, InstancePublished, InstancePublishPending:
		i.Status = InstancePublishPending
		return nil
	default:
		return fmt.Errorf("%w: instance %d %s -> %s", ErrIllegalTransition, i.ID, i.Status, InstancePublishPending)
	}
}

// MarkPublished records a successful summary publication. Only legal from
// PUBLISH_PENDING; an OPEN instance has nothing to publish.
func (i *Instance) MarkPublished() error {
	if i.Status != InstancePublishPending {
		return fmt.Errorf("%w: instance %d %s -> %s", ErrIllegalTransition, i.ID, i.Status, InstancePublished)
	}
	i.Status = InstancePublished
	return nil
}
