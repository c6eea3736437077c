package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fijter/discord-standupbot/internal/domain/standup"
)

// Custom errors specific to standup repository
var ErrDefinitionNotFound = fmt.Errorf("standup definition not found")
var ErrQuestionNotFound = fmt.Errorf("standup question not found")
var ErrAttendeeNotFound = fmt.Errorf("standup attendee not found")
var ErrInstanceNotFound = fmt.Errorf("standup instance not found")
var ErrParticipationNotFound = fmt.Errorf("standup participation not found")
var ErrDuplicateDefinition = fmt.Errorf("duplicate standup definition (channel_id, slug)")
var ErrDuplicateAttendee = fmt.Errorf("duplicate standup attendee (definition_id, member_id)")
var ErrDuplicateInstance = fmt.Errorf("duplicate standup instance (definition_id, instance_date)")
var ErrDuplicateParticipation = fmt.Errorf("duplicate standup participation (instance_id, member_id)")

// querier is satisfied by both *sql.DB and *sql.Tx so the repository can run
// against a transaction inside WithinTx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type PostgresStandupRepository struct {
	db *sql.DB
	q  querier
}

func NewPostgresStandupRepository(db *sql.DB) *PostgresStandupRepository {
	return &PostgresStandupRepository{db: db, q: db}
}

// WithinTx runs fn against a repository bound to a single transaction,
// committing on nil and rolling back otherwise.
func (r *PostgresStandupRepository) WithinTx(ctx context.Context, fn func(standup.Repository) error) error {
	if _, ok := r.q.(*sql.Tx); ok {
		// Already transaction-bound; nested scopes join the outer one.
		return fn(r)
	}
	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	if err := fn(&PostgresStandupRepository{db: r.db, q: txn}); err != nil {
		return err
	}
	return txn.Commit()
}

// --- Definition Methods ---

const definitionColumns = `id, guild_id, channel_id, channel_name, name, slug,
	on_monday, on_tuesday, on_wednesday, on_thursday, on_friday, on_saturday, on_sunday,
	due_hour, min_days_between, private, publish_delay_seconds, created_by, created_at`

func (r *PostgresStandupRepository) CreateDefinition(ctx context.Context, d *standup.Definition) error {
	query := `INSERT INTO standup_definitions (guild_id, channel_id, channel_name, name, slug,
                on_monday, on_tuesday, on_wednesday, on_thursday, on_friday, on_saturday, on_sunday,
                due_hour, min_days_between, private, publish_delay_seconds, created_by)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
               RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query,
		d.GuildID, d.ChannelID, d.ChannelName, d.Name, d.Slug,
		d.OnMonday, d.OnTuesday, d.OnWednesday, d.OnThursday, d.OnFriday, d.OnSaturday, d.OnSunday,
		d.DueHour, d.MinDaysBetween, d.Private, int64(d.PublishDelay/time.Second), d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDefinition
		}
		return fmt.Errorf("error creating standup definition: %w", err)
	}
	return nil
}

func (r *PostgresStandupRepository) scanDefinition(row interface{ Scan(...interface{}) error }) (*standup.Definition, error) {
	d := standup.Definition{}
	var delaySeconds int64
	err := row.Scan(&d.ID, &d.GuildID, &d.ChannelID, &d.ChannelName, &d.Name, &d.Slug,
		&d.OnMonday, &d.OnTuesday, &d.OnWednesday, &d.OnThursday, &d.OnFriday, &d.OnSaturday, &d.OnSunday,
		&d.DueHour, &d.MinDaysBetween, &d.Private, &delaySeconds, &d.CreatedBy, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.PublishDelay = time.Duration(delaySeconds) * time.Second
	return &d, nil
}

func (r *PostgresStandupRepository) GetDefinitionByID(ctx context.Context, id int64) (*standup.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM standup_definitions WHERE id = $1`
	d, err := r.scanDefinition(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("error getting standup definition by ID: %w", err)
	}
	return d, nil
}

func (r *PostgresStandupRepository) GetDefinitionBySlug(ctx context.Context, channelID, slug string) (*standup.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM standup_definitions WHERE channel_id = $1 AND slug = $2`
	d, err := r.scanDefinition(r.q.QueryRowContext(ctx, query, channelID, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("error getting standup definition by slug: %w", err)
	}
	return d, nil
}

func (r *PostgresStandupRepository) ListDefinitions(ctx context.Context) ([]*standup.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM standup_definitions ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing standup definitions: %w", err)
	}
	defer rows.Close()

	var defs []*standup.Definition
	for rows.Next() {
		d, err := r.scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning standup definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// --- Question Methods ---

// CreateQuestion appends the question at the end of the definition's list.
func (r *PostgresStandupRepository) CreateQuestion(ctx context.Context, q *standup.Question) error {
	query := `INSERT INTO standup_questions (definition_id, position, question, important, prefill_from_id)
               SELECT $1, COALESCE(MAX(position) + 1, 0), $2, $3, $4
               FROM standup_questions WHERE definition_id = $1
               RETURNING id, position`
	err := r.q.QueryRowContext(ctx, query, q.DefinitionID, q.Text, q.Important, q.PrefillFromID).
		Scan(&q.ID, &q.Position)
	if err != nil {
		return fmt.Errorf("error creating standup question: %w", err)
	}
	return nil
}

// DeleteQuestion removes the question and closes the position gap so the
// remaining positions stay dense and zero-based.
func (r *PostgresStandupRepository) DeleteQuestion(ctx context.Context, id int64) error {
	return r.WithinTx(ctx, func(repo standup.Repository) error {
		tx := repo.(*PostgresStandupRepository).q
		var definitionID int64
		var position int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM standup_questions WHERE id = $1 RETURNING definition_id, position`, id).
			Scan(&definitionID, &position)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("error deleting standup question: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE standup_questions SET position = position - 1 WHERE definition_id = $1 AND position > $2`,
			definitionID, position)
		if err != nil {
			return fmt.Errorf("error compacting question positions: %w", err)
		}
		return nil
	})
}

// MoveQuestion moves the question to the given position (clamped to the list
// bounds), shifting everything in between by one.
func (r *PostgresStandupRepository) MoveQuestion(ctx context.Context, id int64, position int) error {
	return r.WithinTx(ctx, func(repo standup.Repository) error {
		tx := repo.(*PostgresStandupRepository).q
		var definitionID int64
		var current int
		err := tx.QueryRowContext(ctx,
			`SELECT definition_id, position FROM standup_questions WHERE id = $1`, id).
			Scan(&definitionID, &current)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("error getting standup question: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM standup_questions WHERE definition_id = $1`, definitionID).
			Scan(&count); err != nil {
			return fmt.Errorf("error counting standup questions: %w", err)
		}
		if position < 0 {
			position = 0
		}
		if position > count-1 {
			position = count - 1
		}
		if position == current {
			return nil
		}

		if position > current {
			_, err = tx.ExecContext(ctx,
				`UPDATE standup_questions SET position = position - 1
                  WHERE definition_id = $1 AND position > $2 AND position <= $3`,
				definitionID, current, position)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE standup_questions SET position = position + 1
                  WHERE definition_id = $1 AND position >= $3 AND position < $2`,
				definitionID, current, position)
		}
		if err != nil {
			return fmt.Errorf("error shifting question positions: %w", err)
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE standup_questions SET position = $1 WHERE id = $2`, position, id); err != nil {
			return fmt.Errorf("error moving standup question: %w", err)
		}
		return nil
	})
}

func (r *PostgresStandupRepository) ListQuestions(ctx context.Context, definitionID int64) ([]*standup.Question, error) {
	query := `SELECT id, definition_id, position, question, important, prefill_from_id
               FROM standup_questions WHERE definition_id = $1 ORDER BY position`
	rows, err := r.q.QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, fmt.Errorf("error listing standup questions: %w", err)
	}
	defer rows.Close()

	var questions []*standup.Question
	for rows.Next() {
		q := standup.Question{}
		if err := rows.Scan(&q.ID, &q.DefinitionID, &q.Position, &q.Text, &q.Important, &q.PrefillFromID); err != nil {
			return nil, fmt.Errorf("error scanning standup question: %w", err)
		}
		questions = append(questions, &q)
	}
	return questions, rows.Err()
}

// --- Attendee Methods ---

func (r *PostgresStandupRepository) CreateAttendee(ctx context.Context, a *standup.Attendee) error {
	query := `INSERT INTO standup_attendees (definition_id, member_id, active, read_only, created_by)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.q.QueryRowContext(ctx, query, a.DefinitionID, a.MemberID, a.Active, a.ReadOnly, a.CreatedBy).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAttendee
		}
		return fmt.Errorf("error creating standup attendee: %w", err)
	}
	return nil
}

func (r *PostgresStandupRepository) GetAttendee(ctx context.Context, definitionID, memberID int64) (*standup.Attendee, error) {
	query := `SELECT id, definition_id, member_id, active, read_only, created_by, created_at
               FROM standup_attendees WHERE definition_id = $1 AND member_id = $2`
	a := standup.Attendee{}
	err := r.q.QueryRowContext(ctx, query, definitionID, memberID).
		Scan(&a.ID, &a.DefinitionID, &a.MemberID, &a.Active, &a.ReadOnly, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAttendeeNotFound
		}
		return nil, fmt.Errorf("error getting standup attendee: %w", err)
	}
	return &a, nil
}

func (r *PostgresStandupRepository) UpdateAttendee(ctx context.Context, a *standup.Attendee) error {
	query := `UPDATE standup_attendees SET active = $1, read_only = $2 WHERE id = $3`
	res, err := r.q.ExecContext(ctx, query, a.Active, a.ReadOnly, a.ID)
	if err != nil {
		return fmt.Errorf("error updating standup attendee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

func (r *PostgresStandupRepository) ListActiveAttendees(ctx context.Context, definitionID int64) ([]*standup.Attendee, error) {
	query := `SELECT id, definition_id, member_id, active, read_only, created_by, created_at
               FROM standup_attendees WHERE definition_id = $1 AND active = TRUE ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, definitionID)
	if err != nil {
		return nil, fmt.Errorf("error listing active attendees: %w", err)
	}
	defer rows.Close()

	var attendees []*standup.Attendee
	for rows.Next() {
		a := standup.Attendee{}
		if err := rows.Scan(&a.ID, &a.DefinitionID, &a.MemberID, &a.Active, &a.ReadOnly, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning standup attendee: %w", err)
		}
		attendees = append(attendees, &a)
	}
	return attendees, rows.Err()
}

// --- Instance Methods ---

// CreateInstance inserts the instance. A concurrent writer winning the
// (definition_id, instance_date) race surfaces as ErrDuplicateInstance via
// ON CONFLICT DO NOTHING; a raw unique violation would abort the surrounding
// transaction and make the caller's fallback re-select fail.
func (r *PostgresStandupRepository) CreateInstance(ctx context.Context, inst *standup.Instance) error {
	query := `INSERT INTO standup_instances (definition_id, instance_date, status, pinned_message_id)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT ON CONSTRAINT instance_definition_date_unique DO NOTHING
               RETURNING id, created_at`
	if inst.Status == "" {
		inst.Status = standup.InstanceOpen
	}
	err := r.q.QueryRowContext(ctx, query, inst.DefinitionID, inst.Date, inst.Status, inst.PinnedMessageID).
		Scan(&inst.ID, &inst.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateInstance
		}
		return fmt.Errorf("error creating standup instance: %w", err)
	}
	return nil
}

func (r *PostgresStandupRepository) scanInstance(row interface{ Scan(...interface{}) error }) (*standup.Instance, error) {
	inst := standup.Instance{}
	err := row.Scan(&inst.ID, &inst.DefinitionID, &inst.Date, &inst.Status, &inst.PinnedMessageID, &inst.CreatedAt)
	if err != nil {
		return nil, err
	}
	inst.Date = standup.DateOf(inst.Date)
	return &inst, nil
}

func (r *PostgresStandupRepository) GetInstanceByID(ctx context.Context, id int64) (*standup.Instance, error) {
	query := `SELECT id, definition_id, instance_date, status, pinned_message_id, created_at
               FROM standup_instances WHERE id = $1`
	inst, err := r.scanInstance(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting standup instance by ID: %w", err)
	}
	return inst, nil
}

func (r *PostgresStandupRepository) GetInstanceByDate(ctx context.Context, definitionID int64, date time.Time) (*standup.Instance, error) {
	query := `SELECT id, definition_id, instance_date, status, pinned_message_id, created_at
               FROM standup_instances WHERE definition_id = $1 AND instance_date = $2`
	inst, err := r.scanInstance(r.q.QueryRowContext(ctx, query, definitionID, standup.DateOf(date)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting standup instance by date: %w", err)
	}
	return inst, nil
}

func (r *PostgresStandupRepository) GetLatestInstance(ctx context.Context, definitionID int64) (*standup.Instance, error) {
	query := `SELECT id, definition_id, instance_date, status, pinned_message_id, created_at
               FROM standup_instances WHERE definition_id = $1 ORDER BY instance_date DESC LIMIT 1`
	inst, err := r.scanInstance(r.q.QueryRowContext(ctx, query, definitionID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("error getting latest standup instance: %w", err)
	}
	return inst, nil
}

func (r *PostgresStandupRepository) ListInstancesSince(ctx context.Context, definitionID int64, since time.Time) ([]*standup.Instance, error) {
	query := `SELECT id, definition_id, instance_date, status, pinned_message_id, created_at
               FROM standup_instances WHERE definition_id = $1 AND instance_date >= $2 ORDER BY instance_date`
	rows, err := r.q.QueryContext(ctx, query, definitionID, standup.DateOf(since))
	if err != nil {
		return nil, fmt.Errorf("error listing standup instances: %w", err)
	}
	defer rows.Close()

	var instances []*standup.Instance
	for rows.Next() {
		inst, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning standup instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *PostgresStandupRepository) ListPublishPending(ctx context.Context) ([]*standup.Instance, error) {
	query := `SELECT id, definition_id, instance_date, status, pinned_message_id, created_at
               FROM standup_instances WHERE status = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, standup.InstancePublishPending)
	if err != nil {
		return nil, fmt.Errorf("error listing publish-pending instances: %w", err)
	}
	defer rows.Close()

	var instances []*standup.Instance
	for rows.Next() {
		inst, err := r.scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning standup instance: %w", err)
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (r *PostgresStandupRepository) UpdateInstance(ctx context.Context, inst *standup.Instance) error {
	query := `UPDATE standup_instances SET status = $1, pinned_message_id = $2 WHERE id = $3`
	res, err := r.q.ExecContext(ctx, query, inst.Status, inst.PinnedMessageID, inst.ID)
	if err != nil {
		return fmt.Errorf("error updating standup instance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInstanceNotFound
	}
	return nil
}

// --- Participation Methods ---

const participationColumns = `id, instance_id, member_id, read_only, token, status, created_at`

// CreateParticipation inserts the participation. Like CreateInstance, the
// (instance_id, member_id) race is resolved with ON CONFLICT DO NOTHING so
// the caller can re-select the winner inside the same transaction.
func (r *PostgresStandupRepository) CreateParticipation(ctx context.Context, p *standup.Participation) error {
	query := `INSERT INTO standup_participations (instance_id, member_id, read_only, token, status)
               VALUES ($1, $2, $3, $4, $5)
               ON CONFLICT DO NOTHING
               RETURNING id, created_at`
	if p.Status == "" {
		p.Status = standup.ParticipationPending
	}
	err := r.q.QueryRowContext(ctx, query, p.InstanceID, p.MemberID, p.ReadOnly, p.Token, p.Status).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrDuplicateParticipation
		}
		return fmt.Errorf("error creating standup participation: %w", err)
	}
	return nil
}

func (r *PostgresStandupRepository) getParticipation(ctx context.Context, where string, args ...interface{}) (*standup.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM standup_participations WHERE ` + where
	p := standup.Participation{}
	err := r.q.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.InstanceID, &p.MemberID, &p.ReadOnly, &p.Token, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("error getting standup participation: %w", err)
	}
	return &p, nil
}

func (r *PostgresStandupRepository) GetParticipationByID(ctx context.Context, id int64) (*standup.Participation, error) {
	return r.getParticipation(ctx, "id = $1", id)
}

func (r *PostgresStandupRepository) GetParticipation(ctx context.Context, instanceID, memberID int64) (*standup.Participation, error) {
	return r.getParticipation(ctx, "instance_id = $1 AND member_id = $2", instanceID, memberID)
}

func (r *PostgresStandupRepository) GetParticipationByToken(ctx context.Context, token string) (*standup.Participation, error) {
	return r.getParticipation(ctx, "token = $1", token)
}

func (r *PostgresStandupRepository) ListParticipations(ctx context.Context, instanceID int64) ([]*standup.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM standup_participations WHERE instance_id = $1 ORDER BY id`
	return r.listParticipations(ctx, query, instanceID)
}

func (r *PostgresStandupRepository) ListParticipationsByMember(ctx context.Context, definitionID, memberID int64) ([]*standup.Participation, error) {
	query := `SELECT p.id, p.instance_id, p.member_id, p.read_only, p.token, p.status, p.created_at
               FROM standup_participations p
               JOIN standup_instances i ON i.id = p.instance_id
               WHERE i.definition_id = $1 AND p.member_id = $2
               ORDER BY i.instance_date DESC`
	return r.listParticipations(ctx, query, definitionID, memberID)
}

func (r *PostgresStandupRepository) listParticipations(ctx context.Context, query string, args ...interface{}) ([]*standup.Participation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing standup participations: %w", err)
	}
	defer rows.Close()

	var participations []*standup.Participation
	for rows.Next() {
		p := standup.Participation{}
		if err := rows.Scan(&p.ID, &p.InstanceID, &p.MemberID, &p.ReadOnly, &p.Token, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning standup participation: %w", err)
		}
		participations = append(participations, &p)
	}
	return participations, rows.Err()
}

func (r *PostgresStandupRepository) LatestCompletedParticipation(ctx context.Context, definitionID, memberID, beforeID int64) (*standup.Participation, error) {
	query := `SELECT p.id, p.instance_id, p.member_id, p.read_only, p.token, p.status, p.created_at
               FROM standup_participations p
               JOIN standup_instances i ON i.id = p.instance_id
               WHERE i.definition_id = $1 AND p.member_id = $2 AND p.id < $3 AND p.status = $4
               ORDER BY p.id DESC LIMIT 1`
	p := standup.Participation{}
	err := r.q.QueryRowContext(ctx, query, definitionID, memberID, beforeID, standup.ParticipationCompleted).
		Scan(&p.ID, &p.InstanceID, &p.MemberID, &p.ReadOnly, &p.Token, &p.Status, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrParticipationNotFound
		}
		return nil, fmt.Errorf("error getting latest completed participation: %w", err)
	}
	return &p, nil
}

func (r *PostgresStandupRepository) UpdateParticipation(ctx context.Context, p *standup.Participation) error {
	query := `UPDATE standup_participations SET status = $1 WHERE id = $2`
	res, err := r.q.ExecContext(ctx, query, p.Status, p.ID)
	if err != nil {
		return fmt.Errorf("error updating standup participation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrParticipationNotFound
	}
	return nil
}

// --- Answer Methods ---

func (r *PostgresStandupRepository) UpsertAnswer(ctx context.Context, a *standup.Answer) error {
	query := `INSERT INTO standup_answers (participation_id, question_id, answer)
               VALUES ($1, $2, $3)
               ON CONFLICT ON CONSTRAINT answer_participation_question_unique
               DO UPDATE SET answer = EXCLUDED.answer
               RETURNING id`
	err := r.q.QueryRowContext(ctx, query, a.ParticipationID, a.QuestionID, a.Text).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("error upserting standup answer: %w", err)
	}
	return nil
}

func (r *PostgresStandupRepository) ListAnswers(ctx context.Context, participationID int64) ([]*standup.Answer, error) {
	query := `SELECT a.id, a.participation_id, a.question_id, a.answer
               FROM standup_answers a
               JOIN standup_questions q ON q.id = a.question_id
               WHERE a.participation_id = $1
               ORDER BY q.position`
	rows, err := r.q.QueryContext(ctx, query, participationID)
	if err != nil {
		return nil, fmt.Errorf("error listing standup answers: %w", err)
	}
	defer rows.Close()

	var answers []*standup.Answer
	for rows.Next() {
		a := standup.Answer{}
		if err := rows.Scan(&a.ID, &a.ParticipationID, &a.QuestionID, &a.Text); err != nil {
			return nil, fmt.Errorf("error scanning standup answer: %w", err)
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}
