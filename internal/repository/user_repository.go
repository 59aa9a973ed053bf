package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Thiritin/shifty/internal/models"
)

// UserRepository handles persistence of volunteers.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, remote_id, name, email, shifts_expected, is_admin, arrival_date, departure_date, arrival_time, departure_time, has_seen_intro, created_at, updated_at`

// FindByID returns a user by its ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByRemoteID returns a user by its identity-provider subject.
func (r *UserRepository) FindByRemoteID(ctx context.Context, remoteID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE remote_id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, remoteID); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByRemoteID creates the user on first login or refreshes the
// profile fields on subsequent logins. The quota default applies only on
// insert; an admin-set shifts_expected survives later logins.
func (r *UserRepository) UpsertByRemoteID(ctx context.Context, remoteID, name, email string, defaultShiftsExpected int) (*models.User, error) {
	now := time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO users (id, remote_id, name, email, shifts_expected, is_admin, has_seen_intro, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6, $6)
        ON CONFLICT (remote_id)
        DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
        RETURNING %s`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, uuid.NewString(), remoteID, name, email, defaultShiftsExpected, now); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// List returns all users with their derived shift count, ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]models.UserDetail, error) {
	const query = `SELECT u.id, u.remote_id, u.name, u.email, u.shifts_expected, u.is_admin,
        u.arrival_date, u.departure_date, u.arrival_time, u.departure_time, u.has_seen_intro,
        u.created_at, u.updated_at,
        COUNT(a.id) AS shift_count
        FROM users u
        LEFT JOIN assignments a ON a.user_id = u.id
        GROUP BY u.id
        ORDER BY u.name`
	var users []models.UserDetail
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateQuota sets the admin-managed fields.
func (r *UserRepository) UpdateQuota(ctx context.Context, id string, shiftsExpected int, isAdmin bool) error {
	const query = `UPDATE users SET shifts_expected = $2, is_admin = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, shiftsExpected, isAdmin, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user quota: %w", err)
	}
	return requireRowAffected(res)
}

// AvailabilityParams carries the self-reported availability window.
type AvailabilityParams struct {
	ArrivalDate   *time.Time
	DepartureDate *time.Time
	ArrivalTime   *string
	DepartureTime *string
}

// UpdateAvailability stores the volunteer's availability window.
func (r *UserRepository) UpdateAvailability(ctx context.Context, id string, params AvailabilityParams) error {
	const query = `UPDATE users
        SET arrival_date = $2, departure_date = $3, arrival_time = $4, departure_time = $5, updated_at = $6
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, params.ArrivalDate, params.DepartureDate, params.ArrivalTime, params.DepartureTime, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return requireRowAffected(res)
}

// CompleteIntro stores availability and marks onboarding as done.
func (r *UserRepository) CompleteIntro(ctx context.Context, id string, params AvailabilityParams) error {
	const query = `UPDATE users
        SET arrival_date = $2, departure_date = $3, arrival_time = $4, departure_time = $5,
            has_seen_intro = TRUE, updated_at = $6
        WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, params.ArrivalDate, params.DepartureDate, params.ArrivalTime, params.DepartureTime, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("complete intro: %w", err)
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
