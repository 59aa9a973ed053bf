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

// ShiftRepository handles persistence of shifts.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

const shiftColumns = `id, name, date, start_time, end_time, required_people, description, created_at, updated_at`

// List returns shifts ordered by date then start time, optionally limited
// to the seven days starting at filter.WeekStart.
func (r *ShiftRepository) List(ctx context.Context, filter models.ShiftFilter) ([]models.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts`, shiftColumns)
	var args []interface{}
	if filter.WeekStart != nil {
		weekEnd := filter.WeekStart.AddDate(0, 0, 6)
		query += ` WHERE date BETWEEN $1 AND $2`
		args = append(args, *filter.WeekStart, weekEnd)
	}
	query += ` ORDER BY date, start_time`

	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// ListForUser returns the shifts a volunteer is assigned to, ordered by
// date then start time.
func (r *ShiftRepository) ListForUser(ctx context.Context, userID string) ([]models.Shift, error) {
	const query = `SELECT s.id, s.name, s.date, s.start_time, s.end_time, s.required_people, s.description, s.created_at, s.updated_at
        FROM shifts s
        JOIN assignments a ON a.shift_id = s.id
        WHERE a.user_id = $1
        ORDER BY s.date, s.start_time`
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, userID); err != nil {
		return nil, fmt.Errorf("list user shifts: %w", err)
	}
	return shifts, nil
}

// FindByID returns a shift by its ID.
func (r *ShiftRepository) FindByID(ctx context.Context, id string) (*models.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1`, shiftColumns)
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Create persists a new shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if shift.CreatedAt.IsZero() {
		shift.CreatedAt = now
	}
	shift.UpdatedAt = now
	const query = `INSERT INTO shifts (id, name, date, start_time, end_time, required_people, description, created_at, updated_at)
        VALUES (:id, :name, :date, :start_time, :end_time, :required_people, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("create shift: %w", err)
	}
	return nil
}

// Update rewrites the editable fields of a shift.
func (r *ShiftRepository) Update(ctx context.Context, shift *models.Shift) error {
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE shifts
        SET name = :name, date = :date, start_time = :start_time, end_time = :end_time,
            required_people = :required_people, description = :description, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

// Delete removes a shift. Assignment records referencing it are removed
// by the foreign-key cascade.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM shifts WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shift result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Totals aggregates headline numbers for the dashboard.
type Totals struct {
	TotalShifts int `db:"total_shifts"`
	TotalSpots  int `db:"total_spots"`
}

// Totals returns the shift count and the sum of required headcounts.
func (r *ShiftRepository) Totals(ctx context.Context) (*Totals, error) {
	const query = `SELECT COUNT(*) AS total_shifts, COALESCE(SUM(required_people), 0) AS total_spots FROM shifts`
	var totals Totals
	if err := r.db.GetContext(ctx, &totals, query); err != nil {
		return nil, fmt.Errorf("shift totals: %w", err)
	}
	return &totals, nil
}
