package models

import "time"

// TournamentStatus mirrors the ENUM in the DB.
type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentActive       TournamentStatus = "active"
	TournamentCompleted    TournamentStatus = "completed"
)

// Tournament owns an ordered list of stages. The default bracket type and
// ordering apply when the tournament is not multi-stage.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Status          TournamentStatus `json:"status" db:"status"`
	IsMultiStage    bool             `json:"is_multi_stage" db:"is_multi_stage"`
	DefaultType     BracketType      `json:"default_type" db:"default_type"`
	DefaultOrdering OrderingPolicy   `json:"default_ordering" db:"default_ordering"`
	AdvanceCount    *int             `json:"advance_count,omitempty" db:"advance_count"`
	DefaultRaceTo   int              `json:"default_race_to" db:"default_race_to"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	// Related entities, loaded on demand.
	Stages       []Stage       `json:"stages,omitempty" db:"-"`
	Participants []Participant `json:"participants,omitempty" db:"-"`
}
