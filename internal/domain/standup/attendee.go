package standup

import "time"

// Attendee is the membership of a member in a Definition.
// Corresponds to the 'standup_attendees' table. Unique per
// (definition_id, member_id); deactivated rather than deleted so history
// stays intact.
type Attendee struct {
	ID           int64
	DefinitionID int64
	MemberID     int64
	Active       bool
	// ReadOnly attendees observe but are never asked to answer and never
	// count against completion.
	ReadOnly  bool
	CreatedBy int64
	CreatedAt time.Time
}
