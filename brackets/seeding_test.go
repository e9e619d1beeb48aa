package brackets

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

func TestBracketSize(t *testing.T) {
	cases := []struct {
		entrants int
		expected int
	}{
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{100, 128},
		{129, 256},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, BracketSize(tc.entrants), "entrants=%d", tc.entrants)
	}
}

func TestSeedPositions(t *testing.T) {
	assert.Equal(t, []int{0, 1}, SeedPositions(2))
	assert.Equal(t, []int{0, 1, 3, 2}, SeedPositions(4))
	// Bracket order for 8 is (1v8)(4v5)(2v7)(3v6); lines follow.
	assert.Equal(t, []int{0, 2, 3, 1, 5, 7, 6, 4}, SeedPositions(8))
}

// Top seeds must land in distinct round-1 matches so they can only meet late.
func TestSeedPositionsSeparateTopSeeds(t *testing.T) {
	for _, size := range []int{4, 8, 16, 32} {
		positions := SeedPositions(size)
		half := size / 2
		matchOf := func(line int) int {
			if line < half {
				return line
			}
			return line - half
		}
		assert.NotEqual(t, matchOf(positions[0]), matchOf(positions[1]),
			"seeds 1 and 2 share a match at size %d", size)
		if size >= 8 {
			seen := map[int]bool{}
			for _, p := range positions[:4] {
				seen[matchOf(p) * 4 / half] = true
			}
			assert.Len(t, seen, 4, "top 4 seeds not spread across quarters at size %d", size)
		}
	}
}

func seededEntrants(ranks ...int) []models.Participant {
	out := make([]models.Participant, len(ranks))
	for i, r := range ranks {
		out[i] = models.Participant{ID: i + 1}
		if r > 0 {
			rank := r
			out[i].SeedRank = &rank
		}
	}
	return out
}

func TestBuildSlotsSeeded(t *testing.T) {
	// Five entrants, fully ranked: ids 1..5 carry seed ranks 1..5.
	slots, err := BuildSlots(seededEntrants(1, 2, 3, 4, 5), models.OrderingSeeded, nil)
	require.NoError(t, err)
	require.Len(t, slots, 8)

	occupant := func(line int) int {
		require.NotNil(t, slots[line], "line %d should be occupied", line)
		return *slots[line]
	}

	// positions(8) = [0 2 3 1 5 7 6 4]
	assert.Equal(t, 1, occupant(0))
	assert.Equal(t, 2, occupant(2))
	assert.Equal(t, 3, occupant(3))
	assert.Equal(t, 4, occupant(1))
	assert.Equal(t, 5, occupant(5))

	// Seeds 1, 2 and 3 draw byes; 4 meets 5.
	assert.Nil(t, slots[4])
	assert.Nil(t, slots[6])
	assert.Nil(t, slots[7])
	require.NoError(t, ValidateSlots(slots))
}

func TestBuildSlotsSeededFillsUnseededIntoEmptyMatches(t *testing.T) {
	// Two ranked, two unranked in a 4-bracket: the unranked pair completes
	// the seeded matches rather than forming a match of their own.
	slots, err := BuildSlots(seededEntrants(1, 2, 0, 0), models.OrderingSeeded, nil)
	require.NoError(t, err)
	require.Len(t, slots, 4)

	require.NotNil(t, slots[0])
	require.NotNil(t, slots[1])
	assert.Equal(t, 1, *slots[0])
	assert.Equal(t, 2, *slots[1])
	require.NotNil(t, slots[2])
	require.NotNil(t, slots[3])
	require.NoError(t, ValidateSlots(slots))
}

func TestBuildSlotsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	entrants := seededEntrants(0, 0, 0, 0, 0)
	slots, err := BuildSlots(entrants, models.OrderingRandom, rng)
	require.NoError(t, err)
	require.Len(t, slots, 8)

	seen := map[int]bool{}
	for _, s := range slots {
		if s != nil {
			assert.False(t, seen[*s], "participant %d placed twice", *s)
			seen[*s] = true
		}
	}
	assert.Len(t, seen, 5)
	require.NoError(t, ValidateSlots(slots))
}

func TestBuildSlotsRejectsTooFew(t *testing.T) {
	_, err := BuildSlots(seededEntrants(1), models.OrderingRandom, nil)
	assert.ErrorIs(t, err, ErrNotEnoughEntrants)
}

func TestValidateSlots(t *testing.T) {
	one, two := 1, 2

	t.Run("duplicate entrant", func(t *testing.T) {
		err := ValidateSlots([]*int{&one, &two, &one, nil})
		assert.ErrorIs(t, err, ErrDuplicateEntrant)
	})

	t.Run("empty match", func(t *testing.T) {
		err := ValidateSlots([]*int{&one, nil, &two, nil})
		assert.ErrorIs(t, err, ErrEmptyMatch)
	})

	t.Run("valid with byes", func(t *testing.T) {
		err := ValidateSlots([]*int{&one, &two, nil, nil})
		assert.NoError(t, err)
	})
}
