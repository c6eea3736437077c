package standup

// Answer is one member's text response to one question of one
// participation. Unique per (participation_id, question_id); resubmissions
// upsert, they never duplicate.
type Answer struct {
	ID              int64
	ParticipationID int64
	QuestionID      int64
	Text            string
}
