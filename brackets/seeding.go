package brackets

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// Bracket sizes are powers of two. Entrant counts in between are padded with
// byes up to the next supported size.
var supportedSizes = []int{2, 4, 8, 16, 32, 64, 128}

var (
	ErrNotEnoughEntrants = errors.New("at least 2 entrants are required")
	ErrEmptyMatch        = errors.New("first-round match has both slots empty")
	ErrDuplicateEntrant  = errors.New("entrant placed in more than one slot")
)

// BracketSize returns the smallest supported power of two >= n. Above 128 it
// keeps doubling.
func BracketSize(n int) int {
	for _, s := range supportedSizes {
		if s >= n {
			return s
		}
	}
	size := supportedSizes[len(supportedSizes)-1]
	for size < n {
		size *= 2
	}
	return size
}

// SeedPositions computes the canonical slot-line index for each seed. The
// bracket order comes from the standard interleave: start with [0] and
// repeatedly expand each seed s into (s, n-1-s), which pairs seed 1 with the
// lowest seed, keeps seeds 1 and 2 in opposite halves, and spreads the top
// four across quarters. Consecutive pairs of that order become round-1
// matches; match i pairs lines i and i+size/2.
//
// The result is indexed by seed order: element i is the line the i-th seed
// occupies.
func SeedPositions(size int) []int {
	order := []int{0}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n-1-s)
		}
		order = next
	}

	half := size / 2
	positions := make([]int, size)
	for k := 0; k < half; k++ {
		positions[order[2*k]] = k
		positions[order[2*k+1]] = k + half
	}
	return positions
}

// MatchLine maps (round-1 match index, slot) to the index in a slot-line
// array of the given bracket size. Slot 1 lines come first, then slot 2
// lines, so a round-robin fill naturally gives every match its first entrant
// before any match gets its second.
func MatchLine(size, matchIndex, slot int) int {
	if slot == 1 {
		return matchIndex
	}
	return matchIndex + size/2
}

// BuildSlots turns an entrant list and an ordering policy into a slot-line
// array of length BracketSize(len(entrants)). Vacant lines are byes.
func BuildSlots(entrants []models.Participant, ordering models.OrderingPolicy, rng *rand.Rand) ([]*int, error) {
	n := len(entrants)
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughEntrants, n)
	}
	size := BracketSize(n)

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	switch ordering {
	case models.OrderingSeeded:
		return buildSeededSlots(entrants, size), nil
	default:
		return buildRandomSlots(entrants, size, rng), nil
	}
}

func buildRandomSlots(entrants []models.Participant, size int, rng *rand.Rand) []*int {
	shuffled := make([]models.Participant, len(entrants))
	copy(shuffled, entrants)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	slots := make([]*int, size)
	half := size / 2
	for k := range shuffled {
		id := shuffled[k].ID
		slots[MatchLine(size, k%half, k/half+1)] = &id
	}
	return slots
}

func buildSeededSlots(entrants []models.Participant, size int) []*int {
	seeded := make([]models.Participant, 0, len(entrants))
	unseeded := make([]models.Participant, 0, len(entrants))
	for _, e := range entrants {
		if e.SeedRank != nil {
			seeded = append(seeded, e)
		} else {
			unseeded = append(unseeded, e)
		}
	}
	sort.SliceStable(seeded, func(i, j int) bool {
		return *seeded[i].SeedRank < *seeded[j].SeedRank
	})

	slots := make([]*int, size)
	positions := SeedPositions(size)
	for i := range seeded {
		id := seeded[i].ID
		slots[positions[i]] = &id
	}

	// Matches that hold no seeded entrant get an unseeded occupant first so
	// byes and weak pairings spread evenly across the draw.
	half := size / 2
	next := 0
	for mi := 0; mi < half && next < len(unseeded); mi++ {
		if slots[mi] == nil && slots[mi+half] == nil {
			id := unseeded[next].ID
			slots[mi] = &id
			next++
		}
	}
	for line := 0; line < size && next < len(unseeded); line++ {
		if slots[line] == nil {
			id := unseeded[next].ID
			slots[line] = &id
			next++
		}
	}
	return slots
}

// ValidateSlots rejects slot arrays that would produce a first-round match
// with both slots empty, or place one entrant twice.
func ValidateSlots(slots []*int) error {
	size := len(slots)
	half := size / 2
	seen := make(map[int]int, size)
	for line, p := range slots {
		if p == nil {
			continue
		}
		if prev, dup := seen[*p]; dup {
			return fmt.Errorf("%w: participant %d in lines %d and %d", ErrDuplicateEntrant, *p, prev, line)
		}
		seen[*p] = line
	}
	for mi := 0; mi < half; mi++ {
		if slots[mi] == nil && slots[mi+half] == nil {
			return fmt.Errorf("%w: match %d", ErrEmptyMatch, mi+1)
		}
	}
	return nil
}
