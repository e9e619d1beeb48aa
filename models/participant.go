package models

// Participant is a tournament-scoped registration of a player. The ID is
// opaque to the bracket engine and immutable once placed into a bracket.
type Participant struct {
	ID           int     `json:"id" db:"id"`
	TournamentID int     `json:"tournament_id" db:"tournament_id"`
	DisplayName  string  `json:"display_name" db:"display_name"`
	SeedRank     *int    `json:"seed_rank,omitempty" db:"seed_rank"`
	CountryCode  *string `json:"country_code,omitempty" db:"country_code"`
	SkillRating  *int    `json:"skill_rating,omitempty" db:"skill_rating"`
}
