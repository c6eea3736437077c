package member

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Member entities.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByDiscordID(ctx context.Context, discordID string) (*Member, error)
	Update(ctx context.Context, m *Member) error // FirstName, LastName, Timezone, MuteUntil
}
