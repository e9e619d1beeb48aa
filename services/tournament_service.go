package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tonnahe171051/poolmate-sub000/models"
	"github.com/tonnahe171051/poolmate-sub000/repositories"
)

// CreateTournamentInput is the operator-facing payload for opening a new
// tournament in registration state.
type CreateTournamentInput struct {
	Name            string                `json:"name"`
	IsMultiStage    bool                  `json:"is_multi_stage"`
	DefaultType     models.BracketType    `json:"default_type"`
	DefaultOrdering models.OrderingPolicy `json:"default_ordering"`
	AdvanceCount    *int                  `json:"advance_count,omitempty"`
	DefaultRaceTo   int                   `json:"default_race_to"`
}

type AddParticipantInput struct {
	DisplayName string  `json:"display_name"`
	SeedRank    *int    `json:"seed_rank,omitempty"`
	CountryCode *string `json:"country_code,omitempty"`
	SkillRating *int    `json:"skill_rating,omitempty"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	AddParticipant(ctx context.Context, tournamentID int, input AddParticipantInput) (*models.Participant, error)
	RemoveParticipant(ctx context.Context, tournamentID, participantID int) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	stageRepo       repositories.StageRepository
	participantRepo repositories.ParticipantRepository
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	stageRepo repositories.StageRepository,
	participantRepo repositories.ParticipantRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		stageRepo:       stageRepo,
		participantRepo: participantRepo,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	switch input.DefaultType {
	case models.SingleElimination, models.DoubleElimination:
	case "":
		input.DefaultType = models.SingleElimination
	default:
		return nil, fmt.Errorf("%w: unknown bracket type %q", ErrValidationFailed, input.DefaultType)
	}
	switch input.DefaultOrdering {
	case models.OrderingRandom, models.OrderingSeeded:
	case "":
		input.DefaultOrdering = models.OrderingRandom
	default:
		return nil, fmt.Errorf("%w: unknown ordering policy %q", ErrValidationFailed, input.DefaultOrdering)
	}
	if input.DefaultRaceTo <= 0 {
		return nil, fmt.Errorf("%w: race distance must be positive", ErrValidationFailed)
	}
	if input.AdvanceCount != nil && *input.AdvanceCount < 1 {
		return nil, fmt.Errorf("%w: advance count must be at least 1", ErrValidationFailed)
	}
	if input.IsMultiStage && input.AdvanceCount == nil {
		return nil, fmt.Errorf("%w: multi-stage tournaments need an advance count", ErrValidationFailed)
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Status:          models.TournamentRegistration,
		IsMultiStage:    input.IsMultiStage,
		DefaultType:     input.DefaultType,
		DefaultOrdering: input.DefaultOrdering,
		AdvanceCount:    input.AdvanceCount,
		DefaultRaceTo:   input.DefaultRaceTo,
	}
	if err := s.tournamentRepo.Create(ctx, s.db, tournament); err != nil {
		return nil, err
	}
	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID), slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		stages       []*models.Stage
		participants []*models.Participant
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stages, err = s.stageRepo.ListByTournament(gCtx, id)
		return err
	})
	g.Go(func() (err error) {
		participants, err = s.participantRepo.ListByTournament(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, st := range stages {
		tournament.Stages = append(tournament.Stages, *st)
	}
	tournament.Participants = dereferenceParticipants(participants)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.tournamentRepo.Delete(ctx, tx, id)
	})
}

func (s *tournamentService) AddParticipant(ctx context.Context, tournamentID int, input AddParticipantInput) (*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.TournamentRegistration {
		return nil, fmt.Errorf("%w: registration is closed", ErrValidationFailed)
	}
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if input.DisplayName == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidationFailed)
	}
	if input.SeedRank != nil && *input.SeedRank < 1 {
		return nil, fmt.Errorf("%w: seed rank must be at least 1", ErrValidationFailed)
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		DisplayName:  input.DisplayName,
		SeedRank:     input.SeedRank,
		CountryCode:  input.CountryCode,
		SkillRating:  input.SkillRating,
	}
	if err := s.participantRepo.Create(ctx, s.db, participant); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *tournamentService) RemoveParticipant(ctx context.Context, tournamentID, participantID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != models.TournamentRegistration {
		return fmt.Errorf("%w: participants are frozen once a bracket exists", ErrValidationFailed)
	}
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return err
	}
	if participant.TournamentID != tournamentID {
		return repositories.ErrParticipantNotFound
	}
	return s.participantRepo.Delete(ctx, s.db, participantID)
}
