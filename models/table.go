package models

// TableStatus mirrors the ENUM in the tables table.
type TableStatus string

const (
	TableOpen   TableStatus = "open"
	TableInUse  TableStatus = "in_use"
	TableClosed TableStatus = "closed"
)

// Table is a physical playing table. A table carries at most one
// non-completed match at a time.
type Table struct {
	ID           int         `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Status       TableStatus `json:"status" db:"status"`
	TournamentID *int        `json:"tournament_id,omitempty" db:"tournament_id"`
}
