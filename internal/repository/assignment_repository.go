package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Thiritin/shifty/internal/models"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
)

// AssignmentRepository owns the (shift, volunteer) pair records. All
// mutations go through it so the uniqueness and capacity invariants are
// enforced in one place, inside a transaction.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const uniqueViolation = "23505"

// Assign attaches a volunteer to a shift. The shift row is locked for the
// duration of the transaction so the capacity check and the insert are one
// atomic unit: two concurrent assigns for the last open spot cannot both
// succeed. The unique (shift_id, user_id) index backstops duplicates.
func (r *AssignmentRepository) Assign(ctx context.Context, shiftID, userID string) (assignment *models.Assignment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var requiredPeople int
	const lockQuery = `SELECT required_people FROM shifts WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &requiredPeople, lockQuery, shiftID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shift not found")
		}
		return nil, fmt.Errorf("lock shift: %w", err)
	}

	var exists int
	const existsQuery = `SELECT 1 FROM assignments WHERE shift_id = $1 AND user_id = $2 LIMIT 1`
	err = tx.GetContext(ctx, &exists, existsQuery, shiftID, userID)
	if err == nil {
		err = appErrors.ErrAlreadyAssigned
		return nil, err
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("check existing assignment: %w", err)
	}

	var assignedCount int
	const countQuery = `SELECT COUNT(*) FROM assignments WHERE shift_id = $1`
	if err = tx.GetContext(ctx, &assignedCount, countQuery, shiftID); err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}
	if assignedCount >= requiredPeople {
		err = appErrors.ErrShiftFull
		return nil, err
	}

	assignment = &models.Assignment{
		ID:        uuid.NewString(),
		ShiftID:   shiftID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	const insertQuery = `INSERT INTO assignments (id, shift_id, user_id, created_at)
        VALUES (:id, :shift_id, :user_id, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, assignment); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			err = appErrors.ErrAlreadyAssigned
			return nil, err
		}
		return nil, fmt.Errorf("insert assignment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	return assignment, nil
}

// Unassign removes the pair. The single DELETE is atomic; zero affected
// rows means the pair never existed.
func (r *AssignmentRepository) Unassign(ctx context.Context, shiftID, userID string) error {
	const query = `DELETE FROM assignments WHERE shift_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, shiftID, userID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment result: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrNotAssigned
	}
	return nil
}

// Exists reports whether the pair is currently recorded.
func (r *AssignmentRepository) Exists(ctx context.Context, shiftID, userID string) (bool, error) {
	const query = `SELECT 1 FROM assignments WHERE shift_id = $1 AND user_id = $2 LIMIT 1`
	var found int
	if err := r.db.GetContext(ctx, &found, query, shiftID, userID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return true, nil
}

// CountForShift returns the number of volunteers attached to a shift.
func (r *AssignmentRepository) CountForShift(ctx context.Context, shiftID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE shift_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, shiftID); err != nil {
		return 0, fmt.Errorf("count shift assignments: %w", err)
	}
	return count, nil
}

// CountForUser returns the number of shifts a volunteer is attached to.
func (r *AssignmentRepository) CountForUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments WHERE user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count user assignments: %w", err)
	}
	return count, nil
}

// CountTotal returns the number of assignment records overall.
func (r *AssignmentRepository) CountTotal(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM assignments`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count assignments: %w", err)
	}
	return count, nil
}

// CountsByShift returns per-shift assignment counts in one query.
func (r *AssignmentRepository) CountsByShift(ctx context.Context) (map[string]int, error) {
	const query = `SELECT shift_id, COUNT(*) AS assigned FROM assignments GROUP BY shift_id`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count assignments by shift: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var shiftID string
		var assigned int
		if err := rows.Scan(&shiftID, &assigned); err != nil {
			return nil, fmt.Errorf("scan assignment count: %w", err)
		}
		counts[shiftID] = assigned
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment counts: %w", err)
	}
	return counts, nil
}

// UsersByShift returns the assignees of every shift, ordered by name.
func (r *AssignmentRepository) UsersByShift(ctx context.Context) (map[string][]models.UserSummary, error) {
	const query = `SELECT a.shift_id, u.id, u.name
        FROM assignments a
        JOIN users u ON u.id = a.user_id
        ORDER BY u.name`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assignees: %w", err)
	}
	defer rows.Close()

	assignees := make(map[string][]models.UserSummary)
	for rows.Next() {
		var shiftID string
		var user models.UserSummary
		if err := rows.Scan(&shiftID, &user.ID, &user.Name); err != nil {
			return nil, fmt.Errorf("scan assignee: %w", err)
		}
		assignees[shiftID] = append(assignees[shiftID], user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignees: %w", err)
	}
	return assignees, nil
}

// ListUsersForShift returns the assignees of one shift, ordered by name.
func (r *AssignmentRepository) ListUsersForShift(ctx context.Context, shiftID string) ([]models.UserSummary, error) {
	const query = `SELECT u.id, u.name
        FROM assignments a
        JOIN users u ON u.id = a.user_id
        WHERE a.shift_id = $1
        ORDER BY u.name`
	var users []models.UserSummary
	if err := r.db.SelectContext(ctx, &users, query, shiftID); err != nil {
		return nil, fmt.Errorf("list shift assignees: %w", err)
	}
	return users, nil
}
