package brackets

import (
	"fmt"
	"math"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// TrimPlan is the set of round counts actually materialized for a stage.
// A full (untrimmed) stage materializes every round; stage 1 of a two-stage
// tournament stops early so the advance-count survivors carry over.
type TrimPlan struct {
	WinnersRounds int
	LosersRounds  int
	Finals        bool
}

// BuildParams describes one stage bracket to construct. Slots is the
// slot-line array from BuildSlots (or manual placement), already validated.
type BuildParams struct {
	TournamentID int
	StageID      int
	Type         models.BracketType
	Slots        []*int
	AdvanceCount *int
	RaceTo       int
}

// LosersRoundSizes returns the losers-bracket round sizes for a winners
// bracket of the given size: two rounds of 2^(e-2), two of 2^(e-3), down to
// two rounds of one match. A 2-player bracket gets a single losers round.
func LosersRoundSizes(size int) []int {
	e := exponentOf(size)
	if e <= 1 {
		return []int{1}
	}
	sizes := make([]int, 0, 2*(e-1))
	for s := 1 << (e - 2); s >= 1; s /= 2 {
		sizes = append(sizes, s, s)
	}
	return sizes
}

// DetermineTargetLosersRound maps a winners round to the losers round that
// receives its losers: round 1 feeds losers round 1, round r feeds losers
// round 2(r-1). Zero means the round has no losers round to feed (trimmed
// away); its losers simply exit the stage.
func DetermineTargetLosersRound(winnersRound, totalLosersRounds int) int {
	target := 1
	if winnersRound > 1 {
		target = 2 * (winnersRound - 1)
	}
	if target > totalLosersRounds {
		return 0
	}
	return target
}

// ComputeTrimPlan decides how many rounds of each side to materialize.
// Advance counts the trimmed shape cannot produce exactly fall back to the
// full plan; the stage evaluator's target still caps completion.
func ComputeTrimPlan(bracketType models.BracketType, size int, advanceCount *int) TrimPlan {
	full := exponentOf(size)
	loserSizes := []int{}
	if bracketType == models.DoubleElimination {
		loserSizes = LosersRoundSizes(size)
	}

	fullPlan := TrimPlan{
		WinnersRounds: full,
		LosersRounds:  len(loserSizes),
		Finals:        bracketType == models.DoubleElimination && advanceCount == nil,
	}
	if advanceCount == nil {
		return fullPlan
	}
	ac := *advanceCount

	if bracketType == models.SingleElimination {
		target := ac
		if target < 1 {
			target = 1
		}
		wr := clamp(ceilLog2(size/target), 1, full)
		if size>>wr != ac {
			return fullPlan
		}
		return TrimPlan{WinnersRounds: wr}
	}

	winnersTarget := ac / 2
	if winnersTarget < 1 {
		winnersTarget = 1
	}
	wr := clamp(ceilLog2(size/winnersTarget), 1, full)

	losersTarget := ac - winnersTarget
	if losersTarget < 1 {
		losersTarget = 1
	}
	lr := 0
	for i, s := range loserSizes {
		if s <= losersTarget {
			lr = i + 1
			break
		}
	}
	if lr == 0 {
		lr = len(loserSizes)
	}
	// Every materialized winners round still needs a losers round to drop
	// into, otherwise its losers would vanish from the stage.
	if required := 2 * (wr - 1); lr < required && required <= len(loserSizes) {
		lr = required
	}

	if size>>wr+loserSizes[lr-1] != ac {
		return fullPlan
	}
	return TrimPlan{WinnersRounds: wr, LosersRounds: lr}
}

// BuildStage constructs the match graph for one stage. All matches get
// ephemeral negative ids; persistence remaps them to DB ids afterwards.
// The returned graph is fully wired but no byes are resolved yet.
func BuildStage(p BuildParams) (*Graph, error) {
	size := len(p.Slots)
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("bracket size must be a power of two >= 2, got %d", size)
	}
	if err := ValidateSlots(p.Slots); err != nil {
		return nil, err
	}

	plan := ComputeTrimPlan(p.Type, size, p.AdvanceCount)

	nextID := 0
	newID := func() int {
		nextID--
		return nextID
	}

	winnersSide := models.SideKnockout
	if p.Type == models.DoubleElimination {
		winnersSide = models.SideWinners
	}

	var all []*models.Match
	newMatch := func(side models.BracketSide, round, pos int) *models.Match {
		raceTo := p.RaceTo
		m := &models.Match{
			ID:           newID(),
			TournamentID: p.TournamentID,
			StageID:      p.StageID,
			Side:         side,
			Round:        round,
			Position:     pos,
			Status:       models.MatchNotStarted,
			RaceTo:       &raceTo,
		}
		all = append(all, m)
		return m
	}

	winners := make([][]*models.Match, plan.WinnersRounds)
	for r := 1; r <= plan.WinnersRounds; r++ {
		count := size >> r
		winners[r-1] = make([]*models.Match, count)
		for i := 0; i < count; i++ {
			m := newMatch(winnersSide, r, i+1)
			if r == 1 {
				m.Slot1Source = &models.SlotSource{Type: models.SourceSeed}
				m.Slot2Source = &models.SlotSource{Type: models.SourceSeed}
				m.Slot1PlayerID = copyID(p.Slots[MatchLine(size, i, 1)])
				m.Slot2PlayerID = copyID(p.Slots[MatchLine(size, i, 2)])
			}
			winners[r-1][i] = m
		}
	}

	var losers [][]*models.Match
	if p.Type == models.DoubleElimination && plan.LosersRounds > 0 {
		sizes := LosersRoundSizes(size)
		losers = make([][]*models.Match, plan.LosersRounds)
		for r := 1; r <= plan.LosersRounds; r++ {
			losers[r-1] = make([]*models.Match, sizes[r-1])
			for i := 0; i < sizes[r-1]; i++ {
				losers[r-1][i] = newMatch(models.SideLosers, r, i+1)
			}
		}
	}

	var finals *models.Match
	if plan.Finals {
		finals = newMatch(models.SideFinals, 1, 1)
	}

	wireStage(winners, losers, finals)

	return NewGraph(all), nil
}

func copyID(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func exponentOf(size int) int {
	e := 0
	for s := size; s > 1; s >>= 1 {
		e++
	}
	return e
}

func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
