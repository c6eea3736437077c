package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fijter/discord-standupbot/internal/domain/member"

	"github.com/lib/pq"
)

// Custom errors specific to member repository
var ErrMemberNotFound = fmt.Errorf("member not found")
var ErrDuplicateDiscordID = fmt.Errorf("member with this Discord ID already exists")

type PostgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) *PostgresMemberRepository {
	return &PostgresMemberRepository{db: db}
}

func (r *PostgresMemberRepository) Create(ctx context.Context, m *member.Member) error {
	query := `INSERT INTO members (discord_id, username, first_name, last_name, timezone, mute_until)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at, updated_at`
	if m.Timezone == "" {
		m.Timezone = "UTC"
	}
	err := r.db.QueryRowContext(ctx, query, m.DiscordID, m.Username, m.FirstName, m.LastName, m.Timezone, m.MuteUntil).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDiscordID
		}
		return fmt.Errorf("error creating member: %w", err)
	}
	return nil
}

func (r *PostgresMemberRepository) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *PostgresMemberRepository) GetByDiscordID(ctx context.Context, discordID string) (*member.Member, error) {
	return r.getBy(ctx, "discord_id = $1", discordID)
}

func (r *PostgresMemberRepository) getBy(ctx context.Context, where string, arg interface{}) (*member.Member, error) {
	query := `SELECT id, discord_id, username, first_name, last_name, timezone, mute_until, created_at, updated_at
               FROM members WHERE ` + where
	m := member.Member{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&m.ID, &m.DiscordID, &m.Username, &m.FirstName, &m.LastName, &m.Timezone, &m.MuteUntil, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("error getting member: %w", err)
	}
	return &m, nil
}

func (r *PostgresMemberRepository) Update(ctx context.Context, m *member.Member) error {
	query := `UPDATE members
               SET username = $1, first_name = $2, last_name = $3, timezone = $4, mute_until = $5, updated_at = NOW()
               WHERE id = $6
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, m.Username, m.FirstName, m.LastName, m.Timezone, m.MuteUntil, m.ID).
		Scan(&m.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrMemberNotFound
		}
		return fmt.Errorf("error updating member: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// rejection (class 23505). The constraint is the authoritative guard for
// all check-then-create paths.
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
