package brackets

import (
	"errors"
	"sort"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

var ErrNoFinalResult = errors.New("no completed final match to place from")

// PlacementNote labels the podium placements.
type PlacementNote string

const (
	NoteChampion    PlacementNote = "champion"
	NoteRunnerUp    PlacementNote = "runner_up"
	NoteThird       PlacementNote = "third"
	NoteSemifinal   PlacementNote = "semifinalist"
	NoteUnspecified PlacementNote = ""
)

// Placement is one row of the final standings.
type Placement struct {
	Rank          int           `json:"rank"`
	ParticipantID int           `json:"participant_id"`
	Note          PlacementNote `json:"note,omitempty"`
}

type participantTally struct {
	id        int
	wins      int
	losses    int
	rackDiff  int
	lastStage int
	active    bool
	name      string
}

// ComputePlacements ranks every participant of the tournament from its full
// match set. stageNoByID maps stage id to stage number; names supplies the
// alphabetical tiebreak.
func ComputePlacements(g *Graph, stageNoByID map[int]int, names map[int]string) ([]Placement, error) {
	final := findFinal(g, stageNoByID)
	if final == nil {
		return nil, ErrNoFinalResult
	}

	placed := make(map[int]bool)
	var out []Placement
	nextRank := 1
	place := func(id int, note PlacementNote) {
		if placed[id] {
			return
		}
		placed[id] = true
		out = append(out, Placement{Rank: nextRank, ParticipantID: id, Note: note})
		nextRank++
	}

	place(*final.WinnerID, NoteChampion)
	if loser := final.LoserID(); loser != nil {
		place(*loser, NoteRunnerUp)
	}

	// Losers of the matches feeding the final take third, or share the
	// semifinal rank when more than one feeder exists.
	var feederLosers []int
	seenFeeder := make(map[int]bool)
	for _, m := range g.matches {
		if m.Status != models.MatchCompleted || m.ID == final.ID {
			continue
		}
		feeds := (m.NextWinnerMatchID != nil && *m.NextWinnerMatchID == final.ID) ||
			(m.NextLoserMatchID != nil && *m.NextLoserMatchID == final.ID)
		if !feeds {
			continue
		}
		if loser := m.LoserID(); loser != nil && !placed[*loser] && !seenFeeder[*loser] {
			seenFeeder[*loser] = true
			feederLosers = append(feederLosers, *loser)
		}
	}
	if len(feederLosers) == 1 {
		place(feederLosers[0], NoteThird)
	} else if len(feederLosers) > 1 {
		sort.Slice(feederLosers, func(i, j int) bool {
			return names[feederLosers[i]] < names[feederLosers[j]]
		})
		shared := nextRank
		for _, id := range feederLosers {
			if placed[id] {
				continue
			}
			placed[id] = true
			out = append(out, Placement{Rank: shared, ParticipantID: id, Note: NoteSemifinal})
			nextRank++
		}
	}

	// Everyone else ranks by performance.
	tallies := tallyParticipants(g, stageNoByID, names)
	rest := make([]*participantTally, 0, len(tallies))
	for _, t := range tallies {
		if !placed[t.id] {
			rest = append(rest, t)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		a, b := rest[i], rest[j]
		if a.active != b.active {
			return a.active
		}
		if a.lastStage != b.lastStage {
			return a.lastStage > b.lastStage
		}
		if a.wins != b.wins {
			return a.wins > b.wins
		}
		if a.losses != b.losses {
			return a.losses < b.losses
		}
		if a.rackDiff != b.rackDiff {
			return a.rackDiff > b.rackDiff
		}
		return a.name < b.name
	})
	for _, t := range rest {
		place(t.id, NoteUnspecified)
	}

	return out, nil
}

// findFinal locates the completed terminal match of the highest stage.
func findFinal(g *Graph, stageNoByID map[int]int) *models.Match {
	var final *models.Match
	for _, m := range g.matches {
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			continue
		}
		if m.NextWinnerMatchID != nil && g.Get(*m.NextWinnerMatchID) != nil {
			continue
		}
		if final == nil {
			final = m
			continue
		}
		sm, sf := stageNoByID[m.StageID], stageNoByID[final.StageID]
		if sm > sf ||
			(sm == sf && m.Side == models.SideFinals && final.Side != models.SideFinals) ||
			(sm == sf && m.Side == final.Side && m.Round > final.Round) {
			final = m
		}
	}
	return final
}

func tallyParticipants(g *Graph, stageNoByID map[int]int, names map[int]string) []*participantTally {
	byID := make(map[int]*participantTally)
	get := func(id int) *participantTally {
		t := byID[id]
		if t == nil {
			t = &participantTally{id: id, name: names[id]}
			byID[id] = t
		}
		return t
	}

	for _, m := range g.matches {
		stageNo := stageNoByID[m.StageID]
		for slot := 1; slot <= 2; slot++ {
			p := m.SlotPlayer(slot)
			if p == nil {
				continue
			}
			t := get(*p)
			if stageNo > t.lastStage {
				t.lastStage = stageNo
			}
			if m.Status != models.MatchCompleted {
				t.active = true
			}
		}
		if m.Status != models.MatchCompleted || m.WinnerID == nil {
			continue
		}
		if m.NextWinnerMatchID == nil || g.Get(*m.NextWinnerMatchID) == nil {
			get(*m.WinnerID).active = true
		}
		get(*m.WinnerID).wins++
		if loser := m.LoserID(); loser != nil {
			get(*loser).losses++
		}
		if m.ScoreP1 != nil && m.ScoreP2 != nil {
			diff := *m.ScoreP1 - *m.ScoreP2
			if m.Slot1PlayerID != nil {
				get(*m.Slot1PlayerID).rackDiff += diff
			}
			if m.Slot2PlayerID != nil {
				get(*m.Slot2PlayerID).rackDiff -= diff
			}
		}
	}

	out := make([]*participantTally, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
