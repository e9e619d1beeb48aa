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
	ErrStageNotFound = errors.New("stage not found")
	ErrStageExists   = errors.New("stage already exists for this tournament")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.StageStatus) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

const stageColumns = `id, tournament_id, stage_no, bracket_type, ordering_policy, status, advance_count, bracket_size, created_at`

func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	query := `
		INSERT INTO stages (tournament_id, stage_no, bracket_type, ordering_policy, status, advance_count, bracket_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := exec.QueryRowContext(ctx, query,
		stage.TournamentID, stage.StageNo, stage.Type, stage.Ordering,
		stage.Status, stage.AdvanceCount, stage.BracketSize,
	).Scan(&stage.ID, &stage.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "stages_tournament_id_stage_no_key" {
			return ErrStageExists
		}
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = $1`
	stage, err := scanStage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to scan stage by id %d: %w", id, err)
	}
	return stage, nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE tournament_id = $1 ORDER BY stage_no`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	stages := make([]*models.Stage, 0)
	for rows.Next() {
		stage, scanErr := scanStage(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", scanErr)
		}
		stages = append(stages, stage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during stage rows iteration: %w", err)
	}
	return stages, nil
}

func (r *postgresStageRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.StageStatus) error {
	result, err := exec.ExecContext(ctx, `UPDATE stages SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update stage %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

func (r *postgresStageRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM stages WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete stages for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func scanStage(row rowScanner) (*models.Stage, error) {
	var stage models.Stage
	err := row.Scan(
		&stage.ID, &stage.TournamentID, &stage.StageNo, &stage.Type, &stage.Ordering,
		&stage.Status, &stage.AdvanceCount, &stage.BracketSize, &stage.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stage, nil
}
