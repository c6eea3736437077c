package web

import (
	idb "github.com/fijter/discord-standupbot/internal/infra/database"
)

// isNotFound reports whether err is one of the repository's not-found
// sentinels.
func isNotFound(err error) bool {
	switch err {
	case idb.ErrDefinitionNotFound, idb.ErrQuestionNotFound, idb.ErrInstanceNotFound,
		idb.ErrParticipationNotFound, idb.ErrAttendeeNotFound, idb.ErrMemberNotFound:
		return true
	}
	return false
}
