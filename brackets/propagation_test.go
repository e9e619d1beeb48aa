package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// record completes a match with the given winner and scores and propagates
// the outcome.
func record(t *testing.T, g *Graph, m *models.Match, winnerID, s1, s2 int) {
	t.Helper()
	m.ScoreP1 = &s1
	m.ScoreP2 = &s2
	m.WinnerID = &winnerID
	m.Status = models.MatchCompleted
	_, err := g.ApplyResult(m)
	require.NoError(t, err)
}

// Five seeded entrants in an 8-bracket: seeds 1-3 draw byes, 4 plays 5. The
// sweep must advance the bye recipients without touching the playable match.
func TestResolveByesFiveEntrants(t *testing.T) {
	slots, err := BuildSlots(seededEntrants(1, 2, 3, 4, 5), models.OrderingSeeded, nil)
	require.NoError(t, err)

	g, err := BuildStage(BuildParams{
		Type:   models.SingleElimination,
		Slots:  slots,
		RaceTo: 4,
	})
	require.NoError(t, err)

	completed, err := g.ResolveByes()
	require.NoError(t, err)
	require.Len(t, completed, 3)

	for _, m := range completed {
		assert.Equal(t, models.MatchCompleted, m.Status)
		require.NotNil(t, m.WinnerID)
		require.NotNil(t, m.ScoreP1)
		require.NotNil(t, m.ScoreP2)
		assert.Zero(t, *m.ScoreP1)
		assert.Zero(t, *m.ScoreP2)
		lone, _, ok := m.LoneOccupant()
		require.True(t, ok)
		assert.Equal(t, lone, *m.WinnerID)
	}

	// Match 2 of round 1 holds seeds 4 and 5 and stays playable.
	playable := findMatch(t, g, models.SideKnockout, 1, 2)
	assert.Equal(t, models.MatchNotStarted, playable.Status)
	assert.Equal(t, 2, playable.OccupiedSlots())

	// Bye winners landed in round 2: seed 1 awaits the 4v5 winner, 2 meets 3.
	r2m1 := findMatch(t, g, models.SideKnockout, 2, 1)
	require.NotNil(t, r2m1.Slot1PlayerID)
	assert.Equal(t, 1, *r2m1.Slot1PlayerID)
	assert.Nil(t, r2m1.Slot2PlayerID)
	assert.Equal(t, models.MatchNotStarted, r2m1.Status)

	r2m2 := findMatch(t, g, models.SideKnockout, 2, 2)
	require.NotNil(t, r2m2.Slot1PlayerID)
	require.NotNil(t, r2m2.Slot2PlayerID)
	assert.ElementsMatch(t, []int{2, 3},
		[]int{*r2m2.Slot1PlayerID, *r2m2.Slot2PlayerID})
}

// The sweep is idempotent: running it again resolves nothing new.
func TestResolveByesIdempotent(t *testing.T) {
	slots, err := BuildSlots(seededEntrants(1, 2, 3, 4, 5), models.OrderingSeeded, nil)
	require.NoError(t, err)
	g, err := BuildStage(BuildParams{Type: models.SingleElimination, Slots: slots, RaceTo: 4})
	require.NoError(t, err)

	first, err := g.ResolveByes()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := g.ResolveByes()
	require.NoError(t, err)
	assert.Empty(t, second)
}

// A losers-bracket slot is claimed dynamically, first-nil-wins, and a loser
// must land in exactly one slot across the whole bracket.
func TestLoserDropsExactlyOnce(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.DoubleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	wb1m1 := findMatch(t, g, models.SideWinners, 1, 1)
	wb1m2 := findMatch(t, g, models.SideWinners, 1, 2)
	lb1 := findMatch(t, g, models.SideLosers, 1, 1)

	record(t, g, wb1m1, *wb1m1.Slot1PlayerID, 3, 1)
	loser1 := *wb1m1.Slot2PlayerID
	record(t, g, wb1m2, *wb1m2.Slot2PlayerID, 0, 3)
	loser2 := *wb1m2.Slot1PlayerID

	assert.ElementsMatch(t, []int{loser1, loser2},
		[]int{*lb1.Slot1PlayerID, *lb1.Slot2PlayerID})

	occurrences := 0
	for _, m := range g.Matches() {
		if m.Side == models.SideLosers || m.Side == models.SideFinals {
			if m.HasPlayer(loser1) {
				occurrences++
			}
		}
	}
	assert.Equal(t, 1, occurrences)

	// Re-applying a result must not duplicate the delivery.
	_, err = g.ApplyResult(wb1m1)
	require.NoError(t, err)
	assert.Equal(t, 2, lb1.OccupiedSlots())
}

// A losers match waiting on a winners-bracket drop must not be treated as a
// bye while the drop can still arrive.
func TestByeSweepWaitsForPendingDrop(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.DoubleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	wb1m1 := findMatch(t, g, models.SideWinners, 1, 1)
	lb1 := findMatch(t, g, models.SideLosers, 1, 1)

	record(t, g, wb1m1, *wb1m1.Slot1PlayerID, 3, 0)
	completed, err := g.ResolveByes()
	require.NoError(t, err)
	assert.Empty(t, completed)

	// One loser arrived, the other is still due from the unplayed match.
	assert.Equal(t, 1, lb1.OccupiedSlots())
	assert.Equal(t, models.MatchNotStarted, lb1.Status)
}

// A winner delivered into both slots of one match is a corrupted bracket.
func TestApplyResultRejectsDuplicateOccupant(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.SingleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	m1 := findMatch(t, g, models.SideKnockout, 1, 1)
	m2 := findMatch(t, g, models.SideKnockout, 1, 2)
	winner := *m1.Slot1PlayerID

	record(t, g, m1, winner, 3, 0)

	// Force the same participant to win the sibling match.
	m2.ScoreP1 = intPtr(0)
	m2.ScoreP2 = intPtr(3)
	m2.WinnerID = &winner
	m2.Status = models.MatchCompleted
	_, err = g.ApplyResult(m2)
	assert.ErrorIs(t, err, ErrBracketCorrupted)
}
