package models

import "time"

// BracketType mirrors the stage type ENUM in the DB.
type BracketType string

const (
	SingleElimination BracketType = "single_elimination"
	DoubleElimination BracketType = "double_elimination"
)

// OrderingPolicy controls how entrants are placed into first-round slots.
type OrderingPolicy string

const (
	OrderingRandom OrderingPolicy = "random"
	OrderingSeeded OrderingPolicy = "seeded"
)

// StageStatus mirrors the stage status ENUM in the DB.
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
)

// Stage is one bracket phase of a tournament. AdvanceCount is set only on
// stage 1 of a two-stage tournament; nil means the stage runs to a single
// champion.
type Stage struct {
	ID           int            `json:"id" db:"id"`
	TournamentID int            `json:"tournament_id" db:"tournament_id"`
	StageNo      int            `json:"stage_no" db:"stage_no"`
	Type         BracketType    `json:"type" db:"type"`
	Ordering     OrderingPolicy `json:"ordering" db:"ordering"`
	Status       StageStatus    `json:"status" db:"status"`
	AdvanceCount *int           `json:"advance_count,omitempty" db:"advance_count"`
	BracketSize  int            `json:"bracket_size" db:"bracket_size"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
