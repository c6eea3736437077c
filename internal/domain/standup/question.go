package standup

import "database/sql"

// Question is one prompt of a Definition's ordered question list.
// Positions are dense, zero-based and unique within a definition; the
// repository maintains that invariant under insert, delete and move.
type Question struct {
	ID           int64
	DefinitionID int64
	Position     int
	Text         string
	// Important answers are rendered with an extra marker in summaries.
	Important bool
	// PrefillFromID links to the question whose most recent completed
	// answer seeds this question's form default.
	PrefillFromID sql.NullInt64
}
