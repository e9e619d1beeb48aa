package models

import "time"

// MatchStatus mirrors the ENUM in the matches table.
type MatchStatus string

const (
	MatchNotStarted MatchStatus = "not_started"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

// BracketSide identifies which sub-bracket a match belongs to.
type BracketSide string

const (
	SideKnockout BracketSide = "knockout"
	SideWinners  BracketSide = "winners"
	SideLosers   BracketSide = "losers"
	SideFinals   BracketSide = "finals"
)

// SlotSourceType says how a slot gets its occupant.
type SlotSourceType string

const (
	SourceSeed     SlotSourceType = "seed"
	SourceWinnerOf SlotSourceType = "winner_of"
	SourceLoserOf  SlotSourceType = "loser_of"
)

// SlotSource is the tagged origin of a slot occupant. MatchID is only
// meaningful for winner_of / loser_of sources.
type SlotSource struct {
	Type    SlotSourceType `json:"type"`
	MatchID int            `json:"match_id,omitempty"`
}

// Match is the central bracket entity. Matches with negative IDs are
// ephemeral previews and are never persisted.
type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	StageID      int         `json:"stage_id" db:"stage_id"`
	Side         BracketSide `json:"side" db:"side"`
	Round        int         `json:"round" db:"round"`
	Position     int         `json:"position" db:"position"`

	Slot1PlayerID *int        `json:"slot1_player_id,omitempty" db:"slot1_player_id"`
	Slot2PlayerID *int        `json:"slot2_player_id,omitempty" db:"slot2_player_id"`
	Slot1Source   *SlotSource `json:"slot1_source,omitempty" db:"-"`
	Slot2Source   *SlotSource `json:"slot2_source,omitempty" db:"-"`

	Status   MatchStatus `json:"status" db:"status"`
	ScoreP1  *int        `json:"score_p1,omitempty" db:"score_p1"`
	ScoreP2  *int        `json:"score_p2,omitempty" db:"score_p2"`
	RaceTo   *int        `json:"race_to,omitempty" db:"race_to"`
	WinnerID *int        `json:"winner_id,omitempty" db:"winner_id"`

	NextWinnerMatchID *int `json:"next_winner_match_id,omitempty" db:"next_winner_match_id"`
	NextLoserMatchID  *int `json:"next_loser_match_id,omitempty" db:"next_loser_match_id"`

	TableID *int   `json:"table_id,omitempty" db:"table_id"`
	Version string `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SlotPlayer returns the occupant of slot 1 or 2, nil when vacant.
func (m *Match) SlotPlayer(slot int) *int {
	if slot == 1 {
		return m.Slot1PlayerID
	}
	return m.Slot2PlayerID
}

// SetSlotPlayer places (or clears) the occupant of slot 1 or 2.
func (m *Match) SetSlotPlayer(slot int, playerID *int) {
	if slot == 1 {
		m.Slot1PlayerID = playerID
		return
	}
	m.Slot2PlayerID = playerID
}

// SlotSourceAt returns the declared source of slot 1 or 2, nil when unset.
func (m *Match) SlotSourceAt(slot int) *SlotSource {
	if slot == 1 {
		return m.Slot1Source
	}
	return m.Slot2Source
}

// SetSlotSource declares (or clears) the source of slot 1 or 2.
func (m *Match) SetSlotSource(slot int, src *SlotSource) {
	if slot == 1 {
		m.Slot1Source = src
		return
	}
	m.Slot2Source = src
}

// OccupiedSlots counts slots that currently hold a participant.
func (m *Match) OccupiedSlots() int {
	n := 0
	if m.Slot1PlayerID != nil {
		n++
	}
	if m.Slot2PlayerID != nil {
		n++
	}
	return n
}

// LoneOccupant returns the single occupant and its slot number when exactly
// one slot is filled.
func (m *Match) LoneOccupant() (playerID int, slot int, ok bool) {
	if m.Slot1PlayerID != nil && m.Slot2PlayerID == nil {
		return *m.Slot1PlayerID, 1, true
	}
	if m.Slot2PlayerID != nil && m.Slot1PlayerID == nil {
		return *m.Slot2PlayerID, 2, true
	}
	return 0, 0, false
}

// LoserID returns the non-winner occupant of a completed match, nil when the
// match was a bye (only one side was ever filled) or has no winner.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil {
		return nil
	}
	if m.Slot1PlayerID != nil && *m.Slot1PlayerID != *m.WinnerID {
		return m.Slot1PlayerID
	}
	if m.Slot2PlayerID != nil && *m.Slot2PlayerID != *m.WinnerID {
		return m.Slot2PlayerID
	}
	return nil
}

// HasPlayer reports whether the given participant occupies either slot.
func (m *Match) HasPlayer(playerID int) bool {
	if m.Slot1PlayerID != nil && *m.Slot1PlayerID == playerID {
		return true
	}
	if m.Slot2PlayerID != nil && *m.Slot2PlayerID == playerID {
		return true
	}
	return false
}
