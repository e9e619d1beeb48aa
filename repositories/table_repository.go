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
	ErrTableNotFound   = errors.New("table not found")
	ErrTableNameExists = errors.New("table with this name already exists")
)

type TableRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Table) error
	GetByID(ctx context.Context, id int) (*models.Table, error)
	List(ctx context.Context) ([]*models.Table, error)
	// Claim marks an open table as in use. It reports ErrTableNotFound when
	// the table does not exist and returns false when it is not open, so the
	// caller can distinguish "busy" from "missing".
	Claim(ctx context.Context, exec SQLExecutor, id, tournamentID int) (bool, error)
	Release(ctx context.Context, exec SQLExecutor, id int) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TableStatus) error
}

type postgresTableRepository struct {
	db *sql.DB
}

func NewPostgresTableRepository(db *sql.DB) TableRepository {
	return &postgresTableRepository{db: db}
}

const tableColumns = `id, name, status, tournament_id`

func (r *postgresTableRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Table) error {
	query := `INSERT INTO tables (name, status) VALUES ($1, $2) RETURNING id`
	err := exec.QueryRowContext(ctx, query, t.Name, t.Status).Scan(&t.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "tables_name_key" {
			return ErrTableNameExists
		}
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (r *postgresTableRepository) GetByID(ctx context.Context, id int) (*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = $1`
	t, err := scanTable(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to scan table by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTableRepository) List(ctx context.Context) ([]*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	tables := make([]*models.Table, 0)
	for rows.Next() {
		t, scanErr := scanTable(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", scanErr)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during table rows iteration: %w", err)
	}
	return tables, nil
}

// Claim uses a conditional update so two matches racing for the same table
// cannot both win; the status check happens in the same statement.
func (r *postgresTableRepository) Claim(ctx context.Context, exec SQLExecutor, id, tournamentID int) (bool, error) {
	query := `UPDATE tables SET status = $1, tournament_id = $2 WHERE id = $3 AND status = $4`
	result, err := exec.ExecContext(ctx, query, models.TableInUse, tournamentID, id, models.TableOpen)
	if err != nil {
		return false, fmt.Errorf("failed to claim table %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return false, getErr
		}
		return false, nil
	}
	return true, nil
}

func (r *postgresTableRepository) Release(ctx context.Context, exec SQLExecutor, id int) error {
	query := `UPDATE tables SET status = $1, tournament_id = NULL WHERE id = $2 AND status = $3`
	_, err := exec.ExecContext(ctx, query, models.TableOpen, id, models.TableInUse)
	if err != nil {
		return fmt.Errorf("failed to release table %d: %w", id, err)
	}
	// Releasing an already-open or closed table is a no-op.
	return nil
}

func (r *postgresTableRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TableStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE tables SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update table %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrTableNotFound)
}

func scanTable(row rowScanner) (*models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.Name, &t.Status, &t.TournamentID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
