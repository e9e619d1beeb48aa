package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonnahe171051/poolmate-sub000/brackets"
	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/realtime"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
	"github.com/tonnahe171051/poolmate-sub000/scorelock"
)

// MatchLockedError is returned when another operator holds the score lock on
// the match. The holder is surfaced so clients can show who is editing.
type MatchLockedError struct {
	Holder scorelock.Lock
}

func (e *MatchLockedError) Error() string {
	return fmt.Sprintf("match %d score is being edited by %s", e.Holder.MatchID, e.Holder.OwnerID)
}

// ScoreInput carries a score mutation together with its concurrency tokens:
// the match version the client last saw, and the lock identity of the
// editing session.
type ScoreInput struct {
	ScoreP1 int `json:"score_p1"`
	ScoreP2 int `json:"score_p2"`
	// RaceTo optionally adjusts the match's race distance together with the
	// score, for mid-session format changes.
	RaceTo *int `json:"race_to,omitempty"`
	// WinnerID names the corrected winner explicitly; only result correction
	// honors it. When nil the winner is derived from the scores.
	WinnerID *int   `json:"winner_id,omitempty"`
	Version  string `json:"version"`
	LockID   string `json:"lock_id,omitempty"`
	Operator string `json:"-"`
}

// applyRaceTo folds an optional race-distance override into the match before
// any score validation runs against it.
func applyRaceTo(match *models.Match, input ScoreInput) error {
	if input.RaceTo == nil {
		return nil
	}
	if *input.RaceTo < 1 {
		return fmt.Errorf("%w: race distance must be positive", ErrValidationFailed)
	}
	match.RaceTo = input.RaceTo
	return nil
}

// LiveScoreResult pairs the updated match with the scoring session's lock.
// The lock id is always reported back: an operator who scored without an
// explicit lock call learns the id they must present to refresh or release
// the session.
type LiveScoreResult struct {
	Match      *models.Match `json:"match"`
	LockID     string        `json:"lock_id"`
	LockExpiry time.Time     `json:"lock_expiry"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	AcquireScoreLock(ctx context.Context, matchID int, operator string) (*scorelock.Lock, error)
	ReleaseScoreLock(ctx context.Context, matchID int, operator, lockID string) error
	UpdateLiveScore(ctx context.Context, matchID int, input ScoreInput) (*LiveScoreResult, error)
	CompleteMatch(ctx context.Context, matchID int, input ScoreInput) (*models.Match, error)
	CorrectResult(ctx context.Context, matchID int, input ScoreInput) (*models.Match, error)
	AssignTable(ctx context.Context, matchID, tableID int, version string) (*models.Match, error)
	ReleaseTable(ctx context.Context, matchID int, version string) (*models.Match, error)
}

type matchService struct {
	db             *sql.DB
	matchRepo      repositories.MatchRepository
	stageRepo      repositories.StageRepository
	tournamentRepo repositories.TournamentRepository
	tableRepo      repositories.TableRepository
	locker         scorelock.Locker
	broadcaster    realtime.Broadcaster
	logger         *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	stageRepo repositories.StageRepository,
	tournamentRepo repositories.TournamentRepository,
	tableRepo repositories.TableRepository,
	locker scorelock.Locker,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:             db,
		matchRepo:      matchRepo,
		stageRepo:      stageRepo,
		tournamentRepo: tournamentRepo,
		tableRepo:      tableRepo,
		locker:         locker,
		broadcaster:    broadcaster,
		logger:         logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	return s.matchRepo.GetByID(ctx, matchID)
}

func (s *matchService) AcquireScoreLock(ctx context.Context, matchID int, operator string) (*scorelock.Lock, error) {
	if _, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		return nil, err
	}
	lock, err := s.locker.Acquire(ctx, matchID, operator, "", scorelock.DefaultTTL)
	if err != nil {
		return nil, mapLockError(err)
	}
	return lock, nil
}

func (s *matchService) ReleaseScoreLock(ctx context.Context, matchID int, operator, lockID string) error {
	return s.locker.Release(ctx, matchID, operator, lockID)
}

// acquireForEdit grants or refreshes the caller's lock for a score mutation.
func (s *matchService) acquireForEdit(ctx context.Context, matchID int, input ScoreInput) (*scorelock.Lock, error) {
	lock, err := s.locker.Acquire(ctx, matchID, input.Operator, input.LockID, scorelock.DefaultTTL)
	if err != nil {
		return nil, mapLockError(err)
	}
	return lock, nil
}

// releaseOnFailure drops a lock taken for a mutation that did not go
// through, so a crashed-out edit never strands the match until TTL expiry.
func (s *matchService) releaseOnFailure(ctx context.Context, lock *scorelock.Lock) {
	if lock == nil {
		return
	}
	if err := s.locker.Release(ctx, lock.MatchID, lock.OwnerID, lock.LockID); err != nil {
		s.logger.Warn("failed to release score lock after error",
			slog.Int("match_id", lock.MatchID), slog.Any("error", err))
	}
}

func (s *matchService) UpdateLiveScore(ctx context.Context, matchID int, input ScoreInput) (*LiveScoreResult, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchNotEditable
	}
	if match.OccupiedSlots() < 2 {
		return nil, ErrMatchNotReady
	}
	if input.ScoreP1 < 0 || input.ScoreP2 < 0 {
		return nil, ErrInvalidScore
	}
	if err := applyRaceTo(match, input); err != nil {
		return nil, err
	}
	if match.RaceTo != nil && (input.ScoreP1 > *match.RaceTo || input.ScoreP2 > *match.RaceTo) {
		return nil, fmt.Errorf("%w: score exceeds race to %d", ErrInvalidScore, *match.RaceTo)
	}

	lock, err := s.acquireForEdit(ctx, matchID, input)
	if err != nil {
		return nil, err
	}

	match.ScoreP1 = &input.ScoreP1
	match.ScoreP2 = &input.ScoreP2
	match.Status = models.MatchInProgress
	if err := s.matchRepo.Update(ctx, s.db, match, input.Version); err != nil {
		s.releaseOnFailure(ctx, lock)
		return nil, err
	}

	s.broadcaster.BroadcastToTournament(match.TournamentID, realtime.EventMatchUpdated, match)
	return &LiveScoreResult{Match: match, LockID: lock.LockID, LockExpiry: lock.ExpiresAt}, nil
}

// determineWinner applies the race rule: the match ends when exactly one
// player reaches the race distance. Without a race distance the higher score
// wins and ties are rejected.
func determineWinner(match *models.Match, scoreP1, scoreP2 int) (*int, error) {
	if scoreP1 < 0 || scoreP2 < 0 {
		return nil, ErrInvalidScore
	}
	if match.RaceTo != nil {
		race := *match.RaceTo
		p1Done := scoreP1 == race && scoreP2 < race
		p2Done := scoreP2 == race && scoreP1 < race
		switch {
		case p1Done:
			return match.Slot1PlayerID, nil
		case p2Done:
			return match.Slot2PlayerID, nil
		default:
			return nil, fmt.Errorf("%w: exactly one player must reach %d", ErrInvalidScore, race)
		}
	}
	switch {
	case scoreP1 > scoreP2:
		return match.Slot1PlayerID, nil
	case scoreP2 > scoreP1:
		return match.Slot2PlayerID, nil
	default:
		return nil, fmt.Errorf("%w: a completed match cannot be tied", ErrInvalidScore)
	}
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID int, input ScoreInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchNotEditable
	}
	if match.OccupiedSlots() < 2 {
		return nil, ErrMatchNotReady
	}
	if err := applyRaceTo(match, input); err != nil {
		return nil, err
	}

	winnerID, err := determineWinner(match, input.ScoreP1, input.ScoreP2)
	if err != nil {
		return nil, err
	}

	lock, err := s.acquireForEdit(ctx, matchID, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.applyOutcome(ctx, matchID, input, func(target *models.Match) error {
		target.ScoreP1 = &input.ScoreP1
		target.ScoreP2 = &input.ScoreP2
		target.RaceTo = match.RaceTo
		target.WinnerID = winnerID
		target.Status = models.MatchCompleted
		return nil
	})
	if err != nil {
		s.releaseOnFailure(ctx, lock)
		return nil, err
	}

	s.releaseOnFailure(ctx, lock) // editing session is over
	s.logger.Info("match completed",
		slog.Int("match_id", matchID),
		slog.Int("winner_id", derefInt(winnerID)))
	s.broadcaster.BroadcastToTournament(updated.TournamentID, realtime.EventMatchUpdated, updated)
	return updated, nil
}

func (s *matchService) CorrectResult(ctx context.Context, matchID int, input ScoreInput) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchCompleted {
		return nil, fmt.Errorf("%w: only completed matches can be corrected", ErrMatchNotEditable)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentCompleted {
		return nil, ErrTournamentCompleted
	}
	if err := applyRaceTo(match, input); err != nil {
		return nil, err
	}

	var winnerID *int
	if input.WinnerID != nil {
		if !match.HasPlayer(*input.WinnerID) {
			return nil, fmt.Errorf("%w: participant %d is not in this match", ErrValidationFailed, *input.WinnerID)
		}
		if input.ScoreP1 < 0 || input.ScoreP2 < 0 {
			return nil, ErrInvalidScore
		}
		winnerID = input.WinnerID
	} else {
		winnerID, err = determineWinner(match, input.ScoreP1, input.ScoreP2)
		if err != nil {
			return nil, err
		}
	}

	lock, err := s.acquireForEdit(ctx, matchID, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.applyOutcome(ctx, matchID, input, func(target *models.Match) error {
		target.ScoreP1 = &input.ScoreP1
		target.ScoreP2 = &input.ScoreP2
		target.RaceTo = match.RaceTo
		target.WinnerID = winnerID
		target.Status = models.MatchCompleted
		return nil
	})
	s.releaseOnFailure(ctx, lock)
	if err != nil {
		return nil, err
	}

	s.logger.Info("match result corrected",
		slog.Int("match_id", matchID),
		slog.Int("winner_id", derefInt(winnerID)))
	s.broadcaster.BroadcastToTournament(updated.TournamentID, realtime.EventBracketUpdated, map[string]interface{}{
		"corrected_match_id": matchID,
	})
	return updated, nil
}

// applyOutcome runs a result mutation against the full stage graph in one
// transaction: rewind anything the old outcome fed, apply the mutation,
// propagate, sweep byes, write everything back. The target match is guarded
// by the caller's version token; downstream rows by their stored versions.
func (s *matchService) applyOutcome(ctx context.Context, matchID int, input ScoreInput, mutate func(*models.Match) error) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByStage(ctx, current.StageID)
	if err != nil {
		return nil, err
	}
	graph := brackets.NewGraph(matches)
	target := graph.Get(matchID)
	if target == nil {
		return nil, repositories.ErrMatchNotFound
	}

	var freedTables []int
	if target.Status == models.MatchCompleted {
		rewound, err := graph.RewindDownstream(matchID)
		if err != nil {
			return nil, err
		}
		freedTables = rewound.ReleasedTables
	}

	if err := mutate(target); err != nil {
		return nil, err
	}
	if _, err := graph.ApplyResult(target); err != nil {
		return nil, err
	}
	if _, err := graph.ResolveByes(); err != nil {
		return nil, err
	}

	tableToRelease := target.TableID
	target.TableID = nil

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range graph.Matches() {
			expected := m.Version
			if m.ID == matchID {
				expected = input.Version
			}
			if err := s.matchRepo.Update(ctx, tx, m, expected); err != nil {
				return err
			}
		}
		if tableToRelease != nil {
			if err := s.tableRepo.Release(ctx, tx, *tableToRelease); err != nil {
				return err
			}
		}
		for _, tableID := range freedTables {
			if err := s.tableRepo.Release(ctx, tx, tableID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tableToRelease != nil {
		s.broadcaster.BroadcastToTournament(target.TournamentID, realtime.EventTableUpdated, map[string]interface{}{
			"table_id": *tableToRelease,
			"status":   models.TableOpen,
		})
	}
	return target, nil
}

func (s *matchService) AssignTable(ctx context.Context, matchID, tableID int, version string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchNotEditable
	}
	if match.TableID != nil {
		return nil, ErrMatchHasTable
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		claimed, err := s.tableRepo.Claim(ctx, tx, tableID, match.TournamentID)
		if err != nil {
			return err
		}
		if !claimed {
			table, getErr := s.tableRepo.GetByID(ctx, tableID)
			if getErr != nil {
				return getErr
			}
			if table.Status == models.TableClosed {
				return ErrTableNotOpen
			}
			return ErrTableBusy
		}
		match.TableID = &tableID
		return s.matchRepo.Update(ctx, tx, match, version)
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToTournament(match.TournamentID, realtime.EventTableUpdated, map[string]interface{}{
		"table_id": tableID,
		"match_id": matchID,
		"status":   models.TableInUse,
	})
	return match, nil
}

func (s *matchService) ReleaseTable(ctx context.Context, matchID int, version string) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.TableID == nil {
		return match, nil
	}
	tableID := *match.TableID

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tableRepo.Release(ctx, tx, tableID); err != nil {
			return err
		}
		match.TableID = nil
		return s.matchRepo.Update(ctx, tx, match, version)
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastToTournament(match.TournamentID, realtime.EventTableUpdated, map[string]interface{}{
		"table_id": tableID,
		"status":   models.TableOpen,
	})
	return match, nil
}

func mapLockError(err error) error {
	var held *scorelock.HeldError
	if errors.As(err, &held) {
		return &MatchLockedError{Holder: held.Holder}
	}
	return err
}
