package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/draw-master/draw-master-api/internal/models"
	"github.com/draw-master/draw-master-api/pkg/objectid"
)

const classColumns = `id, name, image, instructor_id, instructor_name, instructor_email, status, available_seat, enrolled, price, feedback, created_at, updated_at`

// ClassRepository handles persistence of catalog entries.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create persists a new class listing.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = objectid.New()
	}
	if class.Status == "" {
		class.Status = models.ClassStatusPending
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, image, instructor_id, instructor_name, instructor_email, status, available_seat, enrolled, price, feedback, created_at, updated_at)
        VALUES (:id, :name, :image, :instructor_id, :instructor_name, :instructor_email, :status, :available_seat, :enrolled, :price, :feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes WHERE id = $1`, classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// List returns classes filtered by status and/or instructor. Approved
// listings sort by enrolled count so the most popular come first.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes`, classColumns)
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.InstructorEmail != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_email = $%d", len(args)+1))
		args = append(args, filter.InstructorEmail)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if filter.Status == models.ClassStatusApproved {
		query += " ORDER BY enrolled DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// UpdateStatus moves a class through its review lifecycle.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE classes SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	return requireRow(res, "update class status")
}

// UpdateFeedback stores admin feedback text on a class.
func (r *ClassRepository) UpdateFeedback(ctx context.Context, id, feedback string) error {
	const query = `UPDATE classes SET feedback = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, feedback, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update class feedback: %w", err)
	}
	return requireRow(res, "update class feedback")
}

// UpdateCapacity overwrites available seats and price. This is the
// baseline the seat conservation invariant is measured against.
func (r *ClassRepository) UpdateCapacity(ctx context.Context, id string, availableSeat int, price float64) error {
	const query = `UPDATE classes SET available_seat = $2, price = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, availableSeat, price, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update class capacity: %w", err)
	}
	return requireRow(res, "update class capacity")
}

// ReserveSeat atomically moves one seat from available to enrolled. The
// WHERE guard makes the decrement conditional: under concurrent
// checkouts against the last seat, exactly one statement matches a row.
// It reports whether the reservation applied.
func (r *ClassRepository) ReserveSeat(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE classes SET available_seat = available_seat - 1, enrolled = enrolled + 1, updated_at = $2 WHERE id = $1 AND available_seat > 0`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("reserve seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reserve seat rows affected: %w", err)
	}
	return affected == 1, nil
}

func requireRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
