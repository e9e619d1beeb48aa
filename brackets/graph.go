package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

var (
	// ErrBracketCorrupted flags an invariant violation in the match graph.
	// It must never be swallowed: continuing would corrupt the bracket.
	ErrBracketCorrupted = errors.New("bracket graph invariant violated")

	ErrMatchNotInGraph = errors.New("match not part of this bracket graph")
)

// Graph is an arena of match records indexed by id. All inter-match
// "pointers" are plain ids resolved through the index, so the structure has
// no real reference cycles and reverse dependencies can be rebuilt on demand.
type Graph struct {
	matches []*models.Match
	byID    map[int]*models.Match
}

// NewGraph builds an arena over the given matches. The slice is kept in
// (side, round, position) order so iteration is deterministic.
func NewGraph(matches []*models.Match) *Graph {
	g := &Graph{
		matches: make([]*models.Match, len(matches)),
		byID:    make(map[int]*models.Match, len(matches)),
	}
	copy(g.matches, matches)
	sort.SliceStable(g.matches, func(i, j int) bool {
		a, b := g.matches[i], g.matches[j]
		if a.StageID != b.StageID {
			return a.StageID < b.StageID
		}
		if a.Side != b.Side {
			return sideOrder(a.Side) < sideOrder(b.Side)
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Position < b.Position
	})
	for _, m := range g.matches {
		g.byID[m.ID] = m
	}
	return g
}

func sideOrder(s models.BracketSide) int {
	switch s {
	case models.SideKnockout, models.SideWinners:
		return 0
	case models.SideLosers:
		return 1
	default:
		return 2
	}
}

// Matches returns the arena contents in deterministic order.
func (g *Graph) Matches() []*models.Match {
	return g.matches
}

// Get resolves a match id, nil when absent.
func (g *Graph) Get(id int) *models.Match {
	return g.byID[id]
}

// feeders lists every match whose next-winner or next-loser pointer targets
// the given match. It is the forward-edge inverse used by the bye sweep.
func (g *Graph) feeders(id int) []*models.Match {
	var out []*models.Match
	for _, m := range g.matches {
		if m.NextWinnerMatchID != nil && *m.NextWinnerMatchID == id {
			out = append(out, m)
		}
		if m.NextLoserMatchID != nil && *m.NextLoserMatchID == id {
			out = append(out, m)
		}
	}
	return out
}

// dependents maps match id -> matches holding a slot sourced from it. This is
// the reverse index the correction cascade walks.
func (g *Graph) dependents() map[int][]*models.Match {
	deps := make(map[int][]*models.Match)
	for _, m := range g.matches {
		for slot := 1; slot <= 2; slot++ {
			src := m.SlotSourceAt(slot)
			if src == nil || src.Type == models.SourceSeed {
				continue
			}
			deps[src.MatchID] = append(deps[src.MatchID], m)
		}
	}
	return deps
}

func (g *Graph) mustGet(id int) (*models.Match, error) {
	m := g.byID[id]
	if m == nil {
		return nil, fmt.Errorf("%w: id %d", ErrMatchNotInGraph, id)
	}
	return m, nil
}
