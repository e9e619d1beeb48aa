package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tonnahe171051/poolmate-sub000/models"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match tournament conflict or invalid")
	ErrMatchParticipantInvalid = errors.New("match participant conflict or invalid")
)

// VersionConflictError signals a stale optimistic version token. It carries
// the fresh token so the caller can re-fetch and retry.
type VersionConflictError struct {
	MatchID        int
	CurrentVersion string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("match %d was modified concurrently (current version %s)", e.MatchID, e.CurrentVersion)
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Match, error)
	// Update persists every mutable field, guarded by the optimistic
	// version token. On success the match carries its new version.
	Update(ctx context.Context, exec SQLExecutor, match *models.Match, expectedVersion string) error
	// UpdateWiring persists routing pointers and slot sources; used by the
	// second pass of bracket creation once real ids are known.
	UpdateWiring(ctx context.Context, exec SQLExecutor, match *models.Match) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `
	id, tournament_id, stage_id, side, round, position,
	slot1_player_id, slot2_player_id,
	slot1_source_type, slot1_source_match_id,
	slot2_source_type, slot2_source_match_id,
	status, score_p1, score_p2, race_to, winner_id,
	next_winner_match_id, next_loser_match_id,
	table_id, version, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.Version == "" {
		match.Version = uuid.NewString()
	}
	s1t, s1m := encodeSource(match.Slot1Source)
	s2t, s2m := encodeSource(match.Slot2Source)

	query := `
		INSERT INTO matches
			(tournament_id, stage_id, side, round, position,
			 slot1_player_id, slot2_player_id,
			 slot1_source_type, slot1_source_match_id,
			 slot2_source_type, slot2_source_match_id,
			 status, score_p1, score_p2, race_to, winner_id,
			 next_winner_match_id, next_loser_match_id, table_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		match.TournamentID, match.StageID, match.Side, match.Round, match.Position,
		match.Slot1PlayerID, match.Slot2PlayerID,
		s1t, s1m, s2t, s2m,
		match.Status, match.ScoreP1, match.ScoreP2, match.RaceTo, match.WinnerID,
		match.NextWinnerMatchID, match.NextLoserMatchID, match.TableID, match.Version,
	).Scan(&match.ID, &match.CreatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY stage_id, round, position`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE stage_id = $1 ORDER BY round, position`
	return r.list(ctx, query, stageID)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match, expectedVersion string) error {
	newVersion := uuid.NewString()
	s1t, s1m := encodeSource(match.Slot1Source)
	s2t, s2m := encodeSource(match.Slot2Source)

	query := `
		UPDATE matches
		SET slot1_player_id = $1, slot2_player_id = $2,
		    slot1_source_type = $3, slot1_source_match_id = $4,
		    slot2_source_type = $5, slot2_source_match_id = $6,
		    status = $7, score_p1 = $8, score_p2 = $9, race_to = $10,
		    winner_id = $11, table_id = $12, version = $13
		WHERE id = $14 AND version = $15`

	result, err := exec.ExecContext(ctx, query,
		match.Slot1PlayerID, match.Slot2PlayerID,
		s1t, s1m, s2t, s2m,
		match.Status, match.ScoreP1, match.ScoreP2, match.RaceTo,
		match.WinnerID, match.TableID, newVersion,
		match.ID, expectedVersion,
	)
	if err != nil {
		return r.handleMatchError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		current, getErr := r.GetByID(ctx, match.ID)
		if getErr != nil {
			return getErr
		}
		return &VersionConflictError{MatchID: match.ID, CurrentVersion: current.Version}
	}
	match.Version = newVersion
	return nil
}

func (r *postgresMatchRepository) UpdateWiring(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	s1t, s1m := encodeSource(match.Slot1Source)
	s2t, s2m := encodeSource(match.Slot2Source)

	query := `
		UPDATE matches
		SET next_winner_match_id = $1, next_loser_match_id = $2,
		    slot1_source_type = $3, slot1_source_match_id = $4,
		    slot2_source_type = $5, slot2_source_match_id = $6
		WHERE id = $7`
	result, err := exec.ExecContext(ctx, query,
		match.NextWinnerMatchID, match.NextLoserMatchID,
		s1t, s1m, s2t, s2m, match.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateWiring: failed to execute query for match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	_, err := exec.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for tournament %d: %w", tournamentID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		match          models.Match
		s1t, s2t       sql.NullString
		s1m, s2m       sql.NullInt64
	)
	err := row.Scan(
		&match.ID, &match.TournamentID, &match.StageID, &match.Side, &match.Round, &match.Position,
		&match.Slot1PlayerID, &match.Slot2PlayerID,
		&s1t, &s1m, &s2t, &s2m,
		&match.Status, &match.ScoreP1, &match.ScoreP2, &match.RaceTo, &match.WinnerID,
		&match.NextWinnerMatchID, &match.NextLoserMatchID,
		&match.TableID, &match.Version, &match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.Slot1Source = decodeSource(s1t, s1m)
	match.Slot2Source = decodeSource(s2t, s2m)
	return &match, nil
}

func encodeSource(src *models.SlotSource) (sql.NullString, sql.NullInt64) {
	if src == nil {
		return sql.NullString{}, sql.NullInt64{}
	}
	t := sql.NullString{String: string(src.Type), Valid: true}
	if src.Type == models.SourceSeed {
		return t, sql.NullInt64{}
	}
	return t, sql.NullInt64{Int64: int64(src.MatchID), Valid: true}
}

func decodeSource(t sql.NullString, m sql.NullInt64) *models.SlotSource {
	if !t.Valid {
		return nil
	}
	src := &models.SlotSource{Type: models.SlotSourceType(t.String)}
	if m.Valid {
		src.MatchID = int(m.Int64)
	}
	return src
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey", "matches_stage_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_slot1_player_id_fkey", "matches_slot2_player_id_fkey", "matches_winner_id_fkey":
			return ErrMatchParticipantInvalid
		}
	}
	return err
}
