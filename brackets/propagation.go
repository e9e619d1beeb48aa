package brackets

import (
	"fmt"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// wireStage installs next-winner/next-loser pointers and static slot sources
// across the built rounds. Loser drops are NOT statically bound to a slot:
// a losers-bracket match claims slots for incoming losers dynamically,
// first-nil-wins, when the drop actually happens.
func wireStage(winners, losers [][]*models.Match, finals *models.Match) {
	// Winners-internal: match i of round r feeds match i/2 of round r+1,
	// alternating target slots.
	linkHalving(winners)

	// Winners-to-losers drops.
	for r := 1; r <= len(winners); r++ {
		target := DetermineTargetLosersRound(r, len(losers))
		if target == 0 {
			continue // round orphaned by trimming, its losers exit the stage
		}
		row := winners[r-1]
		lrow := losers[target-1]
		for i, m := range row {
			idx := i * len(lrow) / len(row)
			if idx >= len(lrow) {
				idx = len(lrow) - 1
			}
			id := lrow[idx].ID
			m.NextLoserMatchID = &id
		}
	}

	// Losers-internal: same-size rounds map index-to-index (the static slot 1
	// reservation leaves slot 2 free for the winners-bracket drop); halving
	// rounds pair up like the winners side.
	for r := 0; r+1 < len(losers); r++ {
		cur, nxt := losers[r], losers[r+1]
		if len(nxt) == len(cur) {
			for i, m := range cur {
				id := nxt[i].ID
				m.NextWinnerMatchID = &id
				nxt[i].SetSlotSource(1, &models.SlotSource{Type: models.SourceWinnerOf, MatchID: m.ID})
			}
		} else {
			for i, m := range cur {
				id := nxt[i/2].ID
				m.NextWinnerMatchID = &id
				nxt[i/2].SetSlotSource(i%2+1, &models.SlotSource{Type: models.SourceWinnerOf, MatchID: m.ID})
			}
		}
	}

	if finals != nil {
		lastW := winners[len(winners)-1][0]
		idW := finals.ID
		lastW.NextWinnerMatchID = &idW
		finals.SetSlotSource(1, &models.SlotSource{Type: models.SourceWinnerOf, MatchID: lastW.ID})

		lastL := losers[len(losers)-1][0]
		idL := finals.ID
		lastL.NextWinnerMatchID = &idL
		finals.SetSlotSource(2, &models.SlotSource{Type: models.SourceWinnerOf, MatchID: lastL.ID})
	}
}

func linkHalving(rounds [][]*models.Match) {
	for r := 0; r+1 < len(rounds); r++ {
		cur, nxt := rounds[r], rounds[r+1]
		for i, m := range cur {
			id := nxt[i/2].ID
			m.NextWinnerMatchID = &id
			nxt[i/2].SetSlotSource(i%2+1, &models.SlotSource{Type: models.SourceWinnerOf, MatchID: m.ID})
		}
	}
}

// ApplyResult pushes a completed match's outcome into its downstream
// neighbors: the winner into the next-winner match, the determined loser (nil
// for byes) into the next-loser match. Returns the matches it touched.
func (g *Graph) ApplyResult(m *models.Match) ([]*models.Match, error) {
	if m.WinnerID == nil {
		return nil, nil
	}
	var touched []*models.Match

	if m.NextWinnerMatchID != nil {
		target, err := g.mustGet(*m.NextWinnerMatchID)
		if err != nil {
			return nil, err
		}
		if err := assignToSlot(target, *m.WinnerID, models.SourceWinnerOf, m.ID); err != nil {
			return nil, err
		}
		touched = append(touched, target)
	}

	if loser := m.LoserID(); loser != nil && m.NextLoserMatchID != nil {
		target, err := g.mustGet(*m.NextLoserMatchID)
		if err != nil {
			return nil, err
		}
		if err := assignToSlot(target, *loser, models.SourceLoserOf, m.ID); err != nil {
			return nil, err
		}
		touched = append(touched, target)
	}

	return touched, nil
}

// assignToSlot places a participant into whichever slot of the target
// declares the matching source, or claims an unclaimed slot when the static
// wiring did not reserve one. Idempotent for repeated application.
func assignToSlot(target *models.Match, playerID int, srcType models.SlotSourceType, srcMatchID int) error {
	place := func(slot int) error {
		other := 3 - slot
		if p := target.SlotPlayer(other); p != nil && *p == playerID {
			return fmt.Errorf("%w: participant %d would occupy both slots of match %d",
				ErrBracketCorrupted, playerID, target.ID)
		}
		id := playerID
		target.SetSlotPlayer(slot, &id)
		return nil
	}

	for slot := 1; slot <= 2; slot++ {
		src := target.SlotSourceAt(slot)
		if src != nil && src.Type == srcType && src.MatchID == srcMatchID {
			return place(slot)
		}
	}
	for slot := 1; slot <= 2; slot++ {
		if target.SlotSourceAt(slot) == nil && target.SlotPlayer(slot) == nil {
			target.SetSlotSource(slot, &models.SlotSource{Type: srcType, MatchID: srcMatchID})
			return place(slot)
		}
	}
	return fmt.Errorf("%w: no slot in match %d for %s of match %d",
		ErrBracketCorrupted, target.ID, srcType, srcMatchID)
}

// ResolveByes runs the automatic bye sweep to fixpoint: a not-started match
// whose vacant slot can no longer be filled completes 0-0 with the lone
// occupant as winner; a match with both slots permanently vacant completes
// with no winner at all so its dependents can resolve in turn. The sweep is
// an explicit FIFO worklist rather than recursion, deduped by a queued set.
// Returns every match it completed.
func (g *Graph) ResolveByes() ([]*models.Match, error) {
	// Re-apply completed outcomes first so deliveries missed by an earlier
	// process (or a fresh load) are in place before vacancy is judged.
	for _, m := range g.matches {
		if m.Status == models.MatchCompleted {
			if _, err := g.ApplyResult(m); err != nil {
				return nil, err
			}
		}
	}

	queue := make([]*models.Match, 0, len(g.matches))
	queued := make(map[int]bool, len(g.matches))
	enqueue := func(m *models.Match) {
		if m != nil && !queued[m.ID] {
			queued[m.ID] = true
			queue = append(queue, m)
		}
	}
	for _, m := range g.matches {
		if m.Status == models.MatchNotStarted {
			enqueue(m)
		}
	}

	var completed []*models.Match
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		queued[m.ID] = false

		if m.Status != models.MatchNotStarted {
			continue
		}

		var winner *int
		switch m.OccupiedSlots() {
		case 2:
			continue // playable, nothing automatic to do
		case 1:
			lone, slot, _ := m.LoneOccupant()
			if g.slotPending(m, 3-slot) {
				continue
			}
			id := lone
			winner = &id
		case 0:
			if g.slotPending(m, 1) || g.slotPending(m, 2) {
				continue
			}
			// Both feeds are spent with nothing to deliver (byes meeting
			// byes). Complete without a winner so downstream can resolve.
		}

		zero1, zero2 := 0, 0
		m.ScoreP1 = &zero1
		m.ScoreP2 = &zero2
		m.WinnerID = winner
		m.Status = models.MatchCompleted
		completed = append(completed, m)

		touched, err := g.ApplyResult(m)
		if err != nil {
			return nil, err
		}
		for _, t := range touched {
			enqueue(t)
		}
		if m.NextWinnerMatchID != nil {
			enqueue(g.Get(*m.NextWinnerMatchID))
		}
		if m.NextLoserMatchID != nil {
			enqueue(g.Get(*m.NextLoserMatchID))
		}
	}
	return completed, nil
}

// slotPending reports whether the given vacant slot could still receive a
// participant, either from its declared source or from a dynamic loser drop
// that has not been claimed yet.
func (g *Graph) slotPending(m *models.Match, slot int) bool {
	if m.SlotPlayer(slot) != nil {
		return false
	}
	if src := m.SlotSourceAt(slot); src != nil {
		switch src.Type {
		case models.SourceSeed:
			return false
		case models.SourceWinnerOf, models.SourceLoserOf:
			f := g.Get(src.MatchID)
			if f == nil {
				return false
			}
			if f.Status != models.MatchCompleted {
				return true
			}
			if src.Type == models.SourceWinnerOf {
				return f.WinnerID != nil
			}
			return f.LoserID() != nil
		}
		return false
	}

	// No declared source: any unclaimed incoming edge could still fill it.
	for _, f := range g.matches {
		if f.NextWinnerMatchID != nil && *f.NextWinnerMatchID == m.ID &&
			!edgeClaimed(m, models.SourceWinnerOf, f.ID) {
			if f.Status != models.MatchCompleted || f.WinnerID != nil {
				return true
			}
		}
		if f.NextLoserMatchID != nil && *f.NextLoserMatchID == m.ID &&
			!edgeClaimed(m, models.SourceLoserOf, f.ID) {
			if f.Status != models.MatchCompleted || f.LoserID() != nil {
				return true
			}
		}
	}
	return false
}

// edgeClaimed reports whether a feeder's contribution already owns one of
// the target's slots.
func edgeClaimed(target *models.Match, srcType models.SlotSourceType, srcMatchID int) bool {
	for slot := 1; slot <= 2; slot++ {
		src := target.SlotSourceAt(slot)
		if src != nil && src.Type == srcType && src.MatchID == srcMatchID {
			return true
		}
	}
	return false
}

// RemapIDs rewrites every match id and id reference after persistence has
// assigned real primary keys to the ephemeral build-time ids.
func (g *Graph) RemapIDs(mapping map[int]int) error {
	remap := func(p *int) (*int, error) {
		if p == nil {
			return nil, nil
		}
		v, ok := mapping[*p]
		if !ok {
			return nil, fmt.Errorf("no id mapping for match %d", *p)
		}
		return &v, nil
	}

	byID := make(map[int]*models.Match, len(g.matches))
	for _, m := range g.matches {
		newID, ok := mapping[m.ID]
		if !ok {
			return fmt.Errorf("no id mapping for match %d", m.ID)
		}
		m.ID = newID

		var err error
		if m.NextWinnerMatchID, err = remap(m.NextWinnerMatchID); err != nil {
			return err
		}
		if m.NextLoserMatchID, err = remap(m.NextLoserMatchID); err != nil {
			return err
		}
		for slot := 1; slot <= 2; slot++ {
			src := m.SlotSourceAt(slot)
			if src == nil || src.Type == models.SourceSeed {
				continue
			}
			id, ok := mapping[src.MatchID]
			if !ok {
				return fmt.Errorf("no id mapping for source match %d", src.MatchID)
			}
			src.MatchID = id
		}
		byID[m.ID] = m
	}
	g.byID = byID
	return nil
}
