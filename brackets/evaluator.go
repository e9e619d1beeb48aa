package brackets

import (
	"sort"

	"github.com/tonnahe171051/poolmate-sub000/models"
)

// StageEval is the evaluator's verdict over one stage's match set.
type StageEval struct {
	// Survivors are the participants still eligible to continue: occupants
	// of unfinished matches plus winners the stage no longer routes anywhere.
	Survivors []int
	// TargetAdvance is the capped advance count, zero when the stage runs to
	// a single champion.
	TargetAdvance int
	CanComplete   bool
}

// EvaluateStage computes the survivor set and completability of a stage from
// its full match graph. bracketSize is the stage's actual slot count.
func EvaluateStage(g *Graph, stage *models.Stage, bracketSize int) StageEval {
	alive := make(map[int]bool)
	allCompleted := true

	for _, m := range g.matches {
		if m.Status != models.MatchCompleted {
			allCompleted = false
			if m.Slot1PlayerID != nil {
				alive[*m.Slot1PlayerID] = true
			}
			if m.Slot2PlayerID != nil {
				alive[*m.Slot2PlayerID] = true
			}
			continue
		}
		if m.WinnerID == nil {
			continue
		}
		// A completed match whose winner has nowhere further to go caps the
		// stage for that participant: they survive it.
		if m.NextWinnerMatchID == nil || g.Get(*m.NextWinnerMatchID) == nil {
			alive[*m.WinnerID] = true
		}
	}

	survivors := make([]int, 0, len(alive))
	for id := range alive {
		survivors = append(survivors, id)
	}
	sort.Ints(survivors)

	eval := StageEval{Survivors: survivors}
	if stage.AdvanceCount != nil {
		cap := bracketSize / 2
		if cap < 1 {
			cap = 1
		}
		eval.TargetAdvance = *stage.AdvanceCount
		if eval.TargetAdvance > cap {
			eval.TargetAdvance = cap
		}
		eval.CanComplete = eval.TargetAdvance > 0 && len(survivors) == eval.TargetAdvance
	} else {
		eval.CanComplete = allCompleted
	}
	return eval
}
