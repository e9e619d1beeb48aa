package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// Correcting a semifinal two rounds deep: the final must be fully reset and
// the stale finalist evicted, while the other finalist stays seated.
func TestRewindDownstreamResetsDependents(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.SingleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	semi1 := findMatch(t, g, models.SideKnockout, 1, 1)
	semi2 := findMatch(t, g, models.SideKnockout, 1, 2)
	final := findMatch(t, g, models.SideKnockout, 2, 1)

	record(t, g, semi1, *semi1.Slot1PlayerID, 3, 1)
	record(t, g, semi2, *semi2.Slot1PlayerID, 3, 2)
	otherFinalist := *semi2.Slot1PlayerID

	tableID := 9
	final.TableID = &tableID
	record(t, g, final, *final.Slot1PlayerID, 3, 0)

	result, err := g.RewindDownstream(semi1.ID)
	require.NoError(t, err)

	require.Len(t, result.Reset, 1)
	assert.Equal(t, final.ID, result.Reset[0].ID)
	assert.Equal(t, []int{9}, result.ReleasedTables)

	assert.Equal(t, models.MatchNotStarted, final.Status)
	assert.Nil(t, final.ScoreP1)
	assert.Nil(t, final.ScoreP2)
	assert.Nil(t, final.WinnerID)
	assert.Nil(t, final.TableID)

	// Slot fed by the corrected chain is vacated; the other side stays.
	assert.Nil(t, final.Slot1PlayerID)
	require.NotNil(t, final.Slot2PlayerID)
	assert.Equal(t, otherFinalist, *final.Slot2PlayerID)

	// Static winner wiring survives the rewind so re-propagation lands in
	// the same slot.
	require.NotNil(t, final.Slot1Source)
	assert.Equal(t, semi1.ID, final.Slot1Source.MatchID)

	// Corrected outcome flows back in cleanly.
	semi1.WinnerID = semi1.Slot2PlayerID
	*semi1.ScoreP1, *semi1.ScoreP2 = 1, 3
	_, err = g.ApplyResult(semi1)
	require.NoError(t, err)
	require.NotNil(t, final.Slot1PlayerID)
	assert.Equal(t, *semi1.Slot2PlayerID, *final.Slot1PlayerID)
}

// A rewound loser drop releases its dynamically claimed slot entirely so the
// re-propagation can claim first-nil-wins again.
func TestRewindReleasesLoserDropClaim(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.DoubleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	wb1m1 := findMatch(t, g, models.SideWinners, 1, 1)
	lb1 := findMatch(t, g, models.SideLosers, 1, 1)

	record(t, g, wb1m1, *wb1m1.Slot1PlayerID, 3, 0)
	require.Equal(t, 1, lb1.OccupiedSlots())

	_, err = g.RewindDownstream(wb1m1.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, lb1.OccupiedSlots())
	assert.Nil(t, lb1.Slot1Source, "dynamic claim should be released")

	// Flip the result: the new loser claims the freed slot.
	wb1m1.WinnerID = wb1m1.Slot2PlayerID
	_, err = g.ApplyResult(wb1m1)
	require.NoError(t, err)
	require.NotNil(t, lb1.Slot1PlayerID)
	assert.Equal(t, *wb1m1.Slot1PlayerID, *lb1.Slot1PlayerID)
}

func TestRewindUnknownMatch(t *testing.T) {
	g, err := BuildStage(BuildParams{
		Type:   models.SingleElimination,
		Slots:  slotLines(4),
		RaceTo: 3,
	})
	require.NoError(t, err)

	_, err = g.RewindDownstream(12345)
	assert.ErrorIs(t, err, ErrMatchNotInGraph)
}
