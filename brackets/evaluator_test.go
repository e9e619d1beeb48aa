package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// A qualification stage: 8 entrants, 4 advance. The stage is one trimmed
// round, completable exactly when the four winners are decided.
func TestEvaluateStageTrimmedAdvance(t *testing.T) {
	stage := &models.Stage{ID: 10, AdvanceCount: intPtr(4), BracketSize: 8}
	g, err := BuildStage(BuildParams{
		StageID:      10,
		Type:         models.SingleElimination,
		Slots:        slotLines(8),
		AdvanceCount: stage.AdvanceCount,
		RaceTo:       4,
	})
	require.NoError(t, err)
	require.Len(t, g.Matches(), 4)

	eval := EvaluateStage(g, stage, 8)
	assert.Equal(t, 4, eval.TargetAdvance)
	assert.False(t, eval.CanComplete)
	assert.Len(t, eval.Survivors, 8)

	var winners []int
	for _, m := range g.Matches() {
		w := *m.Slot1PlayerID
		record(t, g, m, w, 4, 2)
		winners = append(winners, w)
	}

	eval = EvaluateStage(g, stage, 8)
	assert.True(t, eval.CanComplete)
	assert.ElementsMatch(t, winners, eval.Survivors)
}

// Partially played: completed losers are out, everyone else survives.
func TestEvaluateStagePartialPlay(t *testing.T) {
	stage := &models.Stage{ID: 11, AdvanceCount: intPtr(4), BracketSize: 8}
	g, err := BuildStage(BuildParams{
		StageID:      11,
		Type:         models.SingleElimination,
		Slots:        slotLines(8),
		AdvanceCount: stage.AdvanceCount,
		RaceTo:       4,
	})
	require.NoError(t, err)

	first := findMatch(t, g, models.SideKnockout, 1, 1)
	winner, loser := *first.Slot1PlayerID, *first.Slot2PlayerID
	record(t, g, first, winner, 4, 1)

	eval := EvaluateStage(g, stage, 8)
	assert.False(t, eval.CanComplete)
	assert.Len(t, eval.Survivors, 7)
	assert.Contains(t, eval.Survivors, winner)
	assert.NotContains(t, eval.Survivors, loser)
}

// A stage without an advance count runs to a single champion.
func TestEvaluateStageRunsToChampion(t *testing.T) {
	stage := &models.Stage{ID: 12, BracketSize: 4}
	g, err := BuildStage(BuildParams{
		StageID: 12,
		Type:    models.SingleElimination,
		Slots:   slotLines(4),
		RaceTo:  3,
	})
	require.NoError(t, err)

	eval := EvaluateStage(g, stage, 4)
	assert.Zero(t, eval.TargetAdvance)
	assert.False(t, eval.CanComplete)

	m1 := findMatch(t, g, models.SideKnockout, 1, 1)
	m2 := findMatch(t, g, models.SideKnockout, 1, 2)
	record(t, g, m1, *m1.Slot1PlayerID, 3, 0)
	record(t, g, m2, *m2.Slot1PlayerID, 3, 1)

	eval = EvaluateStage(g, stage, 4)
	assert.False(t, eval.CanComplete, "final still unplayed")

	final := findMatch(t, g, models.SideKnockout, 2, 1)
	record(t, g, final, *final.Slot1PlayerID, 3, 2)

	eval = EvaluateStage(g, stage, 4)
	assert.True(t, eval.CanComplete)
}
