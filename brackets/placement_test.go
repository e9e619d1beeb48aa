package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

func TestComputePlacementsPodium(t *testing.T) {
	g, err := BuildStage(BuildParams{
		StageID: 1,
		Type:    models.SingleElimination,
		Slots:   slotLines(4),
		RaceTo:  3,
	})
	require.NoError(t, err)

	semi1 := findMatch(t, g, models.SideKnockout, 1, 1)
	semi2 := findMatch(t, g, models.SideKnockout, 1, 2)
	final := findMatch(t, g, models.SideKnockout, 2, 1)

	record(t, g, semi1, *semi1.Slot1PlayerID, 3, 1) // 1 beats 3
	record(t, g, semi2, *semi2.Slot2PlayerID, 0, 3) // 4 beats 2
	record(t, g, final, *final.Slot1PlayerID, 3, 2) // 1 beats 4

	names := map[int]string{1: "Ada", 2: "Bo", 3: "Cy", 4: "Dee"}
	placements, err := ComputePlacements(g, map[int]int{1: 1}, names)
	require.NoError(t, err)
	require.Len(t, placements, 4)

	assert.Equal(t, Placement{Rank: 1, ParticipantID: 1, Note: NoteChampion}, placements[0])
	assert.Equal(t, Placement{Rank: 2, ParticipantID: 4, Note: NoteRunnerUp}, placements[1])

	// Both semifinal losers share the next rank, ordered by name.
	assert.Equal(t, Placement{Rank: 3, ParticipantID: 2, Note: NoteSemifinal}, placements[2])
	assert.Equal(t, Placement{Rank: 3, ParticipantID: 3, Note: NoteSemifinal}, placements[3])
}

func TestComputePlacementsSingleFeederTakesThird(t *testing.T) {
	// Double elimination: the losers-bracket final's loser is the only
	// unplaced feeder of the grand final, so they take third outright.
	g, err := BuildStage(BuildParams{
		StageID: 1,
		Type:    models.DoubleElimination,
		Slots:   slotLines(4),
		RaceTo:  3,
	})
	require.NoError(t, err)

	wb1m1 := findMatch(t, g, models.SideWinners, 1, 1)
	wb1m2 := findMatch(t, g, models.SideWinners, 1, 2)
	wbFinal := findMatch(t, g, models.SideWinners, 2, 1)
	lb1 := findMatch(t, g, models.SideLosers, 1, 1)
	lb2 := findMatch(t, g, models.SideLosers, 2, 1)
	grand := findMatch(t, g, models.SideFinals, 1, 1)

	record(t, g, wb1m1, *wb1m1.Slot1PlayerID, 3, 0) // 1 beats 3
	record(t, g, wb1m2, *wb1m2.Slot1PlayerID, 3, 1) // 2 beats 4
	record(t, g, wbFinal, *wbFinal.Slot1PlayerID, 3, 2)
	record(t, g, lb1, *lb1.Slot1PlayerID, 3, 1)
	record(t, g, lb2, *lb2.Slot1PlayerID, 3, 0)
	record(t, g, grand, *grand.Slot1PlayerID, 3, 1)

	names := map[int]string{1: "Ada", 2: "Bo", 3: "Cy", 4: "Dee"}
	placements, err := ComputePlacements(g, map[int]int{1: 1}, names)
	require.NoError(t, err)
	require.Len(t, placements, 4)

	assert.Equal(t, NoteChampion, placements[0].Note)
	assert.Equal(t, NoteRunnerUp, placements[1].Note)
	assert.Equal(t, NoteThird, placements[2].Note)
	assert.Equal(t, 3, placements[2].Rank)
	assert.Equal(t, 4, placements[3].Rank)
}

func TestComputePlacementsRequiresCompletedFinal(t *testing.T) {
	g, err := BuildStage(BuildParams{
		StageID: 1,
		Type:    models.SingleElimination,
		Slots:   slotLines(4),
		RaceTo:  3,
	})
	require.NoError(t, err)

	_, err = ComputePlacements(g, map[int]int{1: 1}, nil)
	assert.ErrorIs(t, err, ErrNoFinalResult)
}
