package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/repository/common"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")

	// ErrMilestoneCompleted — повторное закрытие майлстоуна является ошибкой
	// клиента, а не идемпотентным no-op.
	ErrMilestoneCompleted = errors.New("milestone already completed")
)

type MilestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	query := `
		INSERT INTO milestones (order_id, title, description, amount, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.OrderID, m.Title, m.Description, m.Amount, m.Status, m.DueDate).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("milestone repository: create %w", err)
	}
	return nil
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	return common.GetByID[models.Milestone](ctx, r.db, "milestones", id, ErrMilestoneNotFound)
}

func (r *MilestoneRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	err := r.db.SelectContext(ctx, &milestones, `
		SELECT * FROM milestones WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	return milestones, err
}

// SumByOrder возвращает сумму всех майлстоунов заказа.
func (r *MilestoneRepository) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM milestones WHERE order_id = $1
	`, orderID)
	return sum, err
}

// MarkCompleted закрывает майлстоун и ставит отметку времени.
// Guard по статусу в WHERE делает повторное закрытие различимым от успеха.
func (r *MilestoneRepository) MarkCompleted(ctx context.Context, orderID, milestoneID uuid.UUID, completedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE milestones SET status = $3, completed_at = $4
		WHERE id = $1 AND order_id = $2 AND status = $5
	`, milestoneID, orderID, models.MilestoneStatusCompleted, completedAt, models.MilestoneStatusPending)
	if err != nil {
		return fmt.Errorf("milestone repository: mark completed %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var status string
		err := r.db.GetContext(ctx, &status, `SELECT status FROM milestones WHERE id = $1 AND order_id = $2`, milestoneID, orderID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMilestoneNotFound
		}
		if err != nil {
			return err
		}
		return ErrMilestoneCompleted
	}
	return nil
}
