package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

func intPtr(v int) *int { return &v }

// slotLines builds a fully occupied slot-line array for ids 1..n.
func slotLines(n int) []*int {
	out := make([]*int, n)
	for i := 0; i < n; i++ {
		out[i] = intPtr(i + 1)
	}
	return out
}

func findMatch(t *testing.T, g *Graph, side models.BracketSide, round, pos int) *models.Match {
	t.Helper()
	for _, m := range g.Matches() {
		if m.Side == side && m.Round == round && m.Position == pos {
			return m
		}
	}
	t.Fatalf("no match for side=%s round=%d pos=%d", side, round, pos)
	return nil
}

func countSide(g *Graph, side models.BracketSide) int {
	n := 0
	for _, m := range g.Matches() {
		if m.Side == side {
			n++
		}
	}
	return n
}

func TestLosersRoundSizes(t *testing.T) {
	assert.Equal(t, []int{1}, LosersRoundSizes(2))
	assert.Equal(t, []int{1, 1}, LosersRoundSizes(4))
	assert.Equal(t, []int{2, 2, 1, 1}, LosersRoundSizes(8))
	assert.Equal(t, []int{4, 4, 2, 2, 1, 1}, LosersRoundSizes(16))
}

func TestDetermineTargetLosersRound(t *testing.T) {
	// Winners round 1 feeds losers round 1; round r feeds 2(r-1).
	assert.Equal(t, 1, DetermineTargetLosersRound(1, 4))
	assert.Equal(t, 2, DetermineTargetLosersRound(2, 4))
	assert.Equal(t, 4, DetermineTargetLosersRound(3, 4))
	// Trimmed away: the losers exit the stage.
	assert.Equal(t, 0, DetermineTargetLosersRound(4, 4))
}

func TestComputeTrimPlan(t *testing.T) {
	t.Run("single elimination untrimmed", func(t *testing.T) {
		plan := ComputeTrimPlan(models.SingleElimination, 8, nil)
		assert.Equal(t, TrimPlan{WinnersRounds: 3}, plan)
	})

	t.Run("single elimination advance 4 of 16", func(t *testing.T) {
		plan := ComputeTrimPlan(models.SingleElimination, 16, intPtr(4))
		assert.Equal(t, TrimPlan{WinnersRounds: 2}, plan)
	})

	t.Run("unachievable advance falls back to full", func(t *testing.T) {
		plan := ComputeTrimPlan(models.SingleElimination, 8, intPtr(3))
		assert.Equal(t, TrimPlan{WinnersRounds: 3}, plan)
	})

	t.Run("double elimination untrimmed has finals", func(t *testing.T) {
		plan := ComputeTrimPlan(models.DoubleElimination, 8, nil)
		assert.Equal(t, TrimPlan{WinnersRounds: 3, LosersRounds: 4, Finals: true}, plan)
	})

	t.Run("double elimination advance 4 of 8", func(t *testing.T) {
		plan := ComputeTrimPlan(models.DoubleElimination, 8, intPtr(4))
		assert.Equal(t, TrimPlan{WinnersRounds: 2, LosersRounds: 2}, plan)
	})
}

func TestBuildStageSingleElimination(t *testing.T) {
	g, err := BuildStage(BuildParams{
		TournamentID: 7,
		StageID:      70,
		Type:         models.SingleElimination,
		Slots:        slotLines(8),
		RaceTo:       5,
	})
	require.NoError(t, err)
	require.Len(t, g.Matches(), 7) // 4 + 2 + 1

	for _, m := range g.Matches() {
		assert.Equal(t, 7, m.TournamentID)
		assert.Equal(t, 70, m.StageID)
		assert.Equal(t, models.SideKnockout, m.Side)
		assert.Equal(t, models.MatchNotStarted, m.Status)
		require.NotNil(t, m.RaceTo)
		assert.Equal(t, 5, *m.RaceTo)
	}

	// Round 1 pairs line i with line i+4 and is seed-sourced.
	r1m1 := findMatch(t, g, models.SideKnockout, 1, 1)
	require.NotNil(t, r1m1.Slot1PlayerID)
	require.NotNil(t, r1m1.Slot2PlayerID)
	assert.Equal(t, 1, *r1m1.Slot1PlayerID)
	assert.Equal(t, 5, *r1m1.Slot2PlayerID)
	assert.Equal(t, models.SourceSeed, r1m1.Slot1Source.Type)

	// Winner routing halves: matches 1,2 of round 1 feed match 1 of round 2.
	r2m1 := findMatch(t, g, models.SideKnockout, 2, 1)
	r1m2 := findMatch(t, g, models.SideKnockout, 1, 2)
	require.NotNil(t, r1m1.NextWinnerMatchID)
	require.NotNil(t, r1m2.NextWinnerMatchID)
	assert.Equal(t, r2m1.ID, *r1m1.NextWinnerMatchID)
	assert.Equal(t, r2m1.ID, *r1m2.NextWinnerMatchID)
	require.NotNil(t, r2m1.Slot1Source)
	assert.Equal(t, models.SourceWinnerOf, r2m1.Slot1Source.Type)
	assert.Equal(t, r1m1.ID, r2m1.Slot1Source.MatchID)
	assert.Equal(t, r1m2.ID, r2m1.Slot2Source.MatchID)

	// No loser routing in single elimination.
	for _, m := range g.Matches() {
		assert.Nil(t, m.NextLoserMatchID)
	}

	final := findMatch(t, g, models.SideKnockout, 3, 1)
	assert.Nil(t, final.NextWinnerMatchID)
}

func TestBuildStageDoubleElimination(t *testing.T) {
	g, err := BuildStage(BuildParams{
		TournamentID: 1,
		StageID:      10,
		Type:         models.DoubleElimination,
		Slots:        slotLines(4),
		RaceTo:       3,
	})
	require.NoError(t, err)

	// 4-bracket: winners 2+1, losers 1+1, grand final 1.
	require.Len(t, g.Matches(), 6)
	assert.Equal(t, 3, countSide(g, models.SideWinners))
	assert.Equal(t, 2, countSide(g, models.SideLosers))
	assert.Equal(t, 1, countSide(g, models.SideFinals))

	wb1m1 := findMatch(t, g, models.SideWinners, 1, 1)
	wb1m2 := findMatch(t, g, models.SideWinners, 1, 2)
	wbFinal := findMatch(t, g, models.SideWinners, 2, 1)
	lb1 := findMatch(t, g, models.SideLosers, 1, 1)
	lb2 := findMatch(t, g, models.SideLosers, 2, 1)
	grand := findMatch(t, g, models.SideFinals, 1, 1)

	// Both round-1 losers drop into losers round 1.
	require.NotNil(t, wb1m1.NextLoserMatchID)
	require.NotNil(t, wb1m2.NextLoserMatchID)
	assert.Equal(t, lb1.ID, *wb1m1.NextLoserMatchID)
	assert.Equal(t, lb1.ID, *wb1m2.NextLoserMatchID)

	// The winners final's loser meets the losers-bracket survivor.
	require.NotNil(t, wbFinal.NextLoserMatchID)
	assert.Equal(t, lb2.ID, *wbFinal.NextLoserMatchID)
	require.NotNil(t, lb1.NextWinnerMatchID)
	assert.Equal(t, lb2.ID, *lb1.NextWinnerMatchID)

	// Grand final takes both bracket champions.
	require.NotNil(t, wbFinal.NextWinnerMatchID)
	require.NotNil(t, lb2.NextWinnerMatchID)
	assert.Equal(t, grand.ID, *wbFinal.NextWinnerMatchID)
	assert.Equal(t, grand.ID, *lb2.NextWinnerMatchID)
	assert.Equal(t, wbFinal.ID, grand.Slot1Source.MatchID)
	assert.Equal(t, lb2.ID, grand.Slot2Source.MatchID)
}

func TestBuildStageRejectsBadSlots(t *testing.T) {
	_, err := BuildStage(BuildParams{Type: models.SingleElimination, Slots: slotLines(3)})
	assert.Error(t, err)

	dup := []*int{intPtr(1), intPtr(1), nil, nil}
	_, err = BuildStage(BuildParams{Type: models.SingleElimination, Slots: dup})
	assert.ErrorIs(t, err, ErrDuplicateEntrant)
}

func TestBuildStageTrimmedStopsEarly(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:         models.SingleElimination,
		Slots:        slotLines(8),
		AdvanceCount: intPtr(4),
		RaceTo:       4,
	})
	require.NoError(t, err)

	// Only round 1 is materialized; its winners leave the stage.
	require.Len(t, g.Matches(), 4)
	for _, m := range g.Matches() {
		assert.Equal(t, 1, m.Round)
		assert.Nil(t, m.NextWinnerMatchID)
	}
}
