package brackets

import "github.com/tonnahe171051/poolmate-sub000/models"

// RewindResult lists what a correction cascade undid.
type RewindResult struct {
	// Reset matches were returned to not_started with scores, winner and
	// table cleared, and the slot fed by the rewound chain vacated.
	Reset []*models.Match
	// ReleasedTables are table ids freed by the resets.
	ReleasedTables []int
}

// RewindDownstream undoes every downstream effect of the given match's
// recorded outcome so a corrected result can be applied cleanly. It walks
// the reverse dependency index: every match holding a slot sourced from the
// corrected match loses that occupant and is fully reset, then its own
// dependents are rewound in turn. Visited matches are memoized; the bracket
// graph is a DAG so no cycle should occur, but the guard is mandatory.
func (g *Graph) RewindDownstream(matchID int) (*RewindResult, error) {
	if _, err := g.mustGet(matchID); err != nil {
		return nil, err
	}

	deps := g.dependents()
	visited := make(map[int]bool)
	result := &RewindResult{}

	var rewind func(sourceID int)
	rewind = func(sourceID int) {
		for _, d := range deps[sourceID] {
			g.clearSlotsFrom(d, sourceID)
			if visited[d.ID] {
				continue
			}
			visited[d.ID] = true

			d.Status = models.MatchNotStarted
			d.ScoreP1 = nil
			d.ScoreP2 = nil
			d.WinnerID = nil
			if d.TableID != nil {
				result.ReleasedTables = append(result.ReleasedTables, *d.TableID)
				d.TableID = nil
			}
			result.Reset = append(result.Reset, d)

			rewind(d.ID)
		}
	}
	rewind(matchID)

	return result, nil
}

// clearSlotsFrom vacates every slot of m that is sourced from the given
// match. Dynamically claimed loser-drop sources are released entirely so a
// re-propagation can claim slots first-nil-wins again; static winner wiring
// stays in place.
func (g *Graph) clearSlotsFrom(m *models.Match, sourceID int) {
	for slot := 1; slot <= 2; slot++ {
		src := m.SlotSourceAt(slot)
		if src == nil || src.Type == models.SourceSeed || src.MatchID != sourceID {
			continue
		}
		m.SetSlotPlayer(slot, nil)
		if src.Type == models.SourceLoserOf {
			m.SetSlotSource(slot, nil)
		}
	}
}
