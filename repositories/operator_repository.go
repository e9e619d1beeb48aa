package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tonnahe171051/poolmate-sub000/models"
)

var (
	ErrOperatorNotFound    = errors.New("operator not found")
	ErrOperatorEmailExists = errors.New("operator with this email already exists")
)

type OperatorRepository interface {
	Create(ctx context.Context, op *models.Operator) error
	GetByID(ctx context.Context, id int) (*models.Operator, error)
	GetByEmail(ctx context.Context, email string) (*models.Operator, error)
}

type postgresOperatorRepository struct {
	db *sql.DB
}

func NewPostgresOperatorRepository(db *sql.DB) OperatorRepository {
	return &postgresOperatorRepository{db: db}
}

const operatorColumns = `id, email, display_name, role, password_hash, created_at`

func (r *postgresOperatorRepository) Create(ctx context.Context, op *models.Operator) error {
	query := `
		INSERT INTO operators (email, display_name, role, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, op.Email, op.DisplayName, op.Role, op.PasswordHash).
		Scan(&op.ID, &op.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "operators_email_key" {
			return ErrOperatorEmailExists
		}
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

func (r *postgresOperatorRepository) GetByID(ctx context.Context, id int) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *postgresOperatorRepository) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE email = $1`
	return r.get(ctx, query, email)
}

func (r *postgresOperatorRepository) get(ctx context.Context, query string, arg interface{}) (*models.Operator, error) {
	var op models.Operator
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&op.ID, &op.Email, &op.DisplayName, &op.Role, &op.PasswordHash, &op.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, fmt.Errorf("failed to scan operator: %w", err)
	}
	return &op, nil
}
