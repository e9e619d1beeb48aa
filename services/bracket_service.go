package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonnahe171051/poolmate-sub000/brackets"
	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/realtime"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
)

// BracketInput configures one stage build. Zero values fall back to the
// tournament's defaults.
type BracketInput struct {
	Type         models.BracketType    `json:"type,omitempty"`
	Ordering     models.OrderingPolicy `json:"ordering,omitempty"`
	AdvanceCount *int                  `json:"advance_count,omitempty"`
	RaceTo       int                   `json:"race_to,omitempty"`
	// ManualSlots, when present, overrides automatic placement. It is the
	// slot-line array: index i holds the participant id on line i, nil for
	// an intentional bye line.
	ManualSlots []*int `json:"manual_slots,omitempty"`
}

type StageView struct {
	Stage   models.Stage    `json:"stage"`
	Matches []*models.Match `json:"matches"`
}

type BracketView struct {
	TournamentID int                  `json:"tournament_id"`
	Stages       []StageView          `json:"stages"`
	Participants []models.Participant `json:"participants"`
}

// StageCompletion reports the outcome of closing a stage: either the next
// stage that was built from the survivors, or the final standings when the
// tournament is over.
type StageCompletion struct {
	StageID   int                  `json:"stage_id"`
	Survivors []int                `json:"survivors"`
	NextStage *StageView           `json:"next_stage,omitempty"`
	Standings []brackets.Placement `json:"standings,omitempty"`
	Completed bool                 `json:"tournament_completed"`
}

type BracketService interface {
	PreviewBracket(ctx context.Context, tournamentID int, input BracketInput) (*BracketView, error)
	CreateBracket(ctx context.Context, tournamentID int, input BracketInput) (*BracketView, error)
	GetBracket(ctx context.Context, tournamentID int) (*BracketView, error)
	// CompleteStage closes a stage once its survivor target is met. next
	// configures the follow-up stage build; zero values fall back to the
	// tournament defaults.
	CompleteStage(ctx context.Context, stageID int, next BracketInput) (*StageCompletion, error)
	ResetBracket(ctx context.Context, tournamentID int) error
	Standings(ctx context.Context, tournamentID int) ([]brackets.Placement, error)
}

type bracketService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	stageRepo       repositories.StageRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	tableRepo       repositories.TableRepository
	broadcaster     realtime.Broadcaster
	logger          *slog.Logger
	rng             *rand.Rand
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	tableRepo repositories.TableRepository,
	broadcaster realtime.Broadcaster,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		stageRepo:       stageRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		tableRepo:       tableRepo,
		broadcaster:     broadcaster,
		logger:          logger,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *bracketService) resolveInput(t *models.Tournament, input BracketInput) BracketInput {
	if input.Type == "" {
		input.Type = t.DefaultType
	}
	if input.Ordering == "" {
		input.Ordering = t.DefaultOrdering
	}
	if input.AdvanceCount == nil && t.IsMultiStage {
		input.AdvanceCount = t.AdvanceCount
	}
	if input.RaceTo <= 0 {
		input.RaceTo = t.DefaultRaceTo
	}
	return input
}

// buildSlots resolves placement: manual slots are validated against the
// registered participant set, otherwise the ordering policy decides.
func (s *bracketService) buildSlots(input BracketInput, participants []*models.Participant) ([]*int, error) {
	if len(participants) < 2 {
		return nil, ErrNotEnoughEntrants
	}

	if input.ManualSlots != nil {
		registered := make(map[int]bool, len(participants))
		for _, p := range participants {
			registered[p.ID] = true
		}
		for _, slot := range input.ManualSlots {
			if slot != nil && !registered[*slot] {
				return nil, fmt.Errorf("%w: participant %d is not registered", ErrValidationFailed, *slot)
			}
		}
		if err := brackets.ValidateSlots(input.ManualSlots); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return input.ManualSlots, nil
	}

	entrants := make([]models.Participant, len(participants))
	for i, p := range participants {
		entrants[i] = *p
	}
	slots, err := brackets.BuildSlots(entrants, input.Ordering, s.rng)
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughEntrants) {
			return nil, ErrNotEnoughEntrants
		}
		return nil, err
	}
	return slots, nil
}

func (s *bracketService) PreviewBracket(ctx context.Context, tournamentID int, input BracketInput) (*BracketView, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	input = s.resolveInput(tournament, input)
	slots, err := s.buildSlots(input, participants)
	if err != nil {
		return nil, err
	}

	graph, err := brackets.BuildStage(brackets.BuildParams{
		TournamentID: tournamentID,
		Type:         input.Type,
		Slots:        slots,
		AdvanceCount: input.AdvanceCount,
		RaceTo:       input.RaceTo,
	})
	if err != nil {
		return nil, err
	}
	if _, err := graph.ResolveByes(); err != nil {
		return nil, err
	}

	stage := models.Stage{
		TournamentID: tournamentID,
		StageNo:      1,
		Type:         input.Type,
		Ordering:     input.Ordering,
		Status:       models.StageNotStarted,
		AdvanceCount: input.AdvanceCount,
		BracketSize:  len(slots),
	}
	return &BracketView{
		TournamentID: tournamentID,
		Stages:       []StageView{{Stage: stage, Matches: graph.Matches()}},
		Participants: dereferenceParticipants(participants),
	}, nil
}

func (s *bracketService) CreateBracket(ctx context.Context, tournamentID int, input BracketInput) (*BracketView, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.TournamentCompleted {
		return nil, ErrTournamentCompleted
	}
	existing, err := s.stageRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrBracketExists
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	input = s.resolveInput(tournament, input)
	slots, err := s.buildSlots(input, participants)
	if err != nil {
		return nil, err
	}

	var view *BracketView
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		stage := &models.Stage{
			TournamentID: tournamentID,
			StageNo:      1,
			Type:         input.Type,
			Ordering:     input.Ordering,
			Status:       models.StageInProgress,
			AdvanceCount: input.AdvanceCount,
			BracketSize:  len(slots),
		}
		if err := s.stageRepo.Create(ctx, tx, stage); err != nil {
			return err
		}

		graph, err := s.persistStage(ctx, tx, stage, slots, input.RaceTo)
		if err != nil {
			return err
		}

		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentActive); err != nil {
			return err
		}

		view = &BracketView{
			TournamentID: tournamentID,
			Stages:       []StageView{{Stage: *stage, Matches: graph.Matches()}},
			Participants: dereferenceParticipants(participants),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket created",
		slog.Int("tournament_id", tournamentID),
		slog.String("type", string(input.Type)),
		slog.Int("bracket_size", len(slots)))
	s.broadcaster.BroadcastToTournament(tournamentID, realtime.EventBracketUpdated, view)
	return view, nil
}

// persistStage writes a freshly built stage graph with the teacher pattern of
// two passes: insert rows without wiring, remap ephemeral ids to database
// ids, then persist the routing pointers and slot sources. The initial bye
// sweep runs inside the same transaction.
func (s *bracketService) persistStage(ctx context.Context, tx *sql.Tx, stage *models.Stage, slots []*int, raceTo int) (*brackets.Graph, error) {
	graph, err := brackets.BuildStage(brackets.BuildParams{
		TournamentID: stage.TournamentID,
		StageID:      stage.ID,
		Type:         stage.Type,
		Slots:        slots,
		AdvanceCount: stage.AdvanceCount,
		RaceTo:       raceTo,
	})
	if err != nil {
		return nil, err
	}

	mapping := make(map[int]int, len(graph.Matches()))
	for _, m := range graph.Matches() {
		row := *m
		row.NextWinnerMatchID = nil
		row.NextLoserMatchID = nil
		row.Slot1Source = nil
		row.Slot2Source = nil
		if err := s.matchRepo.Create(ctx, tx, &row); err != nil {
			return nil, fmt.Errorf("failed to insert match (round %d pos %d): %w", m.Round, m.Position, err)
		}
		mapping[m.ID] = row.ID
		m.Version = row.Version
		m.CreatedAt = row.CreatedAt
	}
	if err := graph.RemapIDs(mapping); err != nil {
		return nil, err
	}
	for _, m := range graph.Matches() {
		if err := s.matchRepo.UpdateWiring(ctx, tx, m); err != nil {
			return nil, err
		}
	}

	completed, err := graph.ResolveByes()
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		if err := s.persistGraph(ctx, tx, graph); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

// persistGraph writes back every match of an in-memory graph. Bracket graphs
// are small (at most a few hundred rows) so a full write-back after a sweep
// or rewind is simpler than tracking the touched set.
func (s *bracketService) persistGraph(ctx context.Context, exec repositories.SQLExecutor, graph *brackets.Graph) error {
	for _, m := range graph.Matches() {
		if err := s.matchRepo.Update(ctx, exec, m, m.Version); err != nil {
			return err
		}
	}
	return nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*BracketView, error) {
	var (
		stages       []*models.Stage
		matches      []*models.Match
		participants []*models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stages, err = s.stageRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		participants, err = s.participantRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, ErrBracketNotFound
	}

	// Sweep on read: deliveries another process missed are resolved here and
	// persisted, so readers always see a settled bracket.
	graph := brackets.NewGraph(matches)
	completed, err := graph.ResolveByes()
	if err != nil {
		return nil, err
	}
	if len(completed) > 0 {
		err = withTx(ctx, s.db, func(tx *sql.Tx) error {
			return s.persistGraph(ctx, tx, graph)
		})
		if err != nil {
			return nil, err
		}
	}

	view := &BracketView{
		TournamentID: tournamentID,
		Participants: dereferenceParticipants(participants),
	}
	byStage := make(map[int][]*models.Match, len(stages))
	for _, m := range graph.Matches() {
		byStage[m.StageID] = append(byStage[m.StageID], m)
	}
	for _, stage := range stages {
		view.Stages = append(view.Stages, StageView{Stage: *stage, Matches: byStage[stage.ID]})
	}
	return view, nil
}

func (s *bracketService) CompleteStage(ctx context.Context, stageID int, next BracketInput) (*StageCompletion, error) {
	stage, err := s.stageRepo.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage.Status == models.StageCompleted {
		return nil, fmt.Errorf("%w: stage %d already completed", ErrStageNotCompletable, stageID)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, stage.TournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	graph := brackets.NewGraph(matches)
	if _, err := graph.ResolveByes(); err != nil {
		return nil, err
	}

	eval := brackets.EvaluateStage(graph, stage, stage.BracketSize)
	if !eval.CanComplete {
		return nil, fmt.Errorf("%w: %d survivors, target %d",
			ErrStageNotCompletable, len(eval.Survivors), eval.TargetAdvance)
	}

	result := &StageCompletion{StageID: stageID, Survivors: eval.Survivors}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.stageRepo.UpdateStatus(ctx, tx, stageID, models.StageCompleted); err != nil {
			return err
		}

		if eval.TargetAdvance > 0 && len(eval.Survivors) > 1 {
			nextStage, err := s.buildNextStage(ctx, tx, tournament, stage, eval.Survivors, next)
			if err != nil {
				return err
			}
			result.NextStage = nextStage
			return nil
		}

		// Terminal stage: the tournament is decided.
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentCompleted); err != nil {
			return err
		}
		result.Completed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed {
		if standings, stErr := s.Standings(ctx, tournament.ID); stErr == nil {
			result.Standings = standings
		} else {
			s.logger.Warn("failed to compute final standings",
				slog.Int("tournament_id", tournament.ID), slog.Any("error", stErr))
		}
	}

	s.logger.Info("stage completed",
		slog.Int("stage_id", stageID),
		slog.Int("survivors", len(eval.Survivors)),
		slog.Bool("tournament_completed", result.Completed))
	s.broadcaster.BroadcastToTournament(tournament.ID, realtime.EventBracketUpdated, result)
	return result, nil
}

// buildNextStage seeds the survivors of a completed stage into a fresh
// bracket. Survivor order from the evaluator is id-sorted; their original
// seed ranks still apply under seeded ordering.
func (s *bracketService) buildNextStage(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, prev *models.Stage, survivors []int, next BracketInput) (*StageView, error) {
	lookup, err := s.participantRepo.Lookup(ctx, survivors)
	if err != nil {
		return nil, err
	}
	entrants := make([]*models.Participant, 0, len(survivors))
	for _, id := range survivors {
		p, ok := lookup[id]
		if !ok {
			return nil, fmt.Errorf("survivor %d is not a registered participant", id)
		}
		entrants = append(entrants, p)
	}

	input := s.resolveInput(tournament, next)
	input.AdvanceCount = nil // final stage runs to a champion
	slots, err := s.buildSlots(input, entrants)
	if err != nil {
		return nil, err
	}

	stage := &models.Stage{
		TournamentID: tournament.ID,
		StageNo:      prev.StageNo + 1,
		Type:         input.Type,
		Ordering:     input.Ordering,
		Status:       models.StageInProgress,
		BracketSize:  len(slots),
	}
	if err := s.stageRepo.Create(ctx, tx, stage); err != nil {
		return nil, err
	}
	graph, err := s.persistStage(ctx, tx, stage, slots, input.RaceTo)
	if err != nil {
		return nil, err
	}
	return &StageView{Stage: *stage, Matches: graph.Matches()}, nil
}

func (s *bracketService) ResetBracket(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return err
	}

	// A bracket can only be thrown away before play starts or once the
	// tournament is decided. Bye auto-completions are not play: they have a
	// lone occupant and no loser.
	if tournament.Status != models.TournamentCompleted {
		for _, m := range matches {
			if m.Status == models.MatchInProgress {
				return ErrBracketInPlay
			}
			if m.Status == models.MatchCompleted && m.LoserID() != nil {
				return ErrBracketInPlay
			}
		}
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, m := range matches {
			if m.TableID != nil {
				if err := s.tableRepo.Release(ctx, tx, *m.TableID); err != nil {
					return err
				}
			}
		}
		if err := s.matchRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		if err := s.stageRepo.DeleteByTournament(ctx, tx, tournamentID); err != nil {
			return err
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentRegistration)
	})
	if err != nil {
		return err
	}

	s.logger.Info("bracket reset", slog.Int("tournament_id", tournamentID))
	s.broadcaster.BroadcastToTournament(tournament.ID, realtime.EventBracketUpdated, map[string]interface{}{
		"tournament_id": tournamentID,
		"reset":         true,
	})
	return nil
}

func (s *bracketService) Standings(ctx context.Context, tournamentID int) ([]brackets.Placement, error) {
	var (
		stages       []*models.Stage
		matches      []*models.Match
		participants []*models.Participant
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stages, err = s.stageRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	g.Go(func() (err error) {
		participants, err = s.participantRepo.ListByTournament(gCtx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, ErrBracketNotFound
	}

	stageNoByID := make(map[int]int, len(stages))
	for _, st := range stages {
		stageNoByID[st.ID] = st.StageNo
	}
	names := make(map[int]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.DisplayName
	}
	return brackets.ComputePlacements(brackets.NewGraph(matches), stageNoByID, names)
}

func dereferenceParticipants(slice []*models.Participant) []models.Participant {
	result := make([]models.Participant, 0, len(slice))
	for _, p := range slice {
		if p != nil {
			result = append(result, *p)
		}
	}
	return result
}
