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
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateSeedRank   = errors.New("seed rank already taken in this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	// Lookup fetches a batch by id; missing ids are simply absent from the
	// result, the caller decides whether that is an error.
	Lookup(ctx context.Context, ids []int) (map[int]*models.Participant, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, tournament_id, display_name, seed_rank, country_code, skill_rating`

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, display_name, seed_rank, country_code, skill_rating)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := exec.QueryRowContext(ctx, query,
		p.TournamentID, p.DisplayName, p.SeedRank, p.CountryCode, p.SkillRating,
	).Scan(&p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "participants_tournament_id_seed_rank_key":
				return ErrDuplicateSeedRank
			case "participants_tournament_id_fkey":
				return ErrTournamentNotFound
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant by id %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1 ORDER BY seed_rank NULLS LAST, id`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) Lookup(ctx context.Context, ids []int) (map[int]*models.Participant, error) {
	result := make(map[int]*models.Participant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to look up participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		result[p.ID] = p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during participant rows iteration: %w", err)
	}
	return result, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.TournamentID, &p.DisplayName, &p.SeedRank, &p.CountryCode, &p.SkillRating)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
