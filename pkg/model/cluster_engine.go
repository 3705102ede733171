package model

import (
	"slices"

	"github.com/samber/lo"
)

// Session is a block of consecutive slots used by one allocation
type Session struct {
	Day      uint64
	Slot     uint64
	Duration uint64
}

func (session Session) overlaps(other Session) bool {
	return session.Day == other.Day &&
		session.Slot < other.Slot+other.Duration &&
		other.Slot < session.Slot+session.Duration
}

// IsClusterSatisfied decides whether the sessions can be packed into blocks whose lengths are taken
// from budgets, each budget used at most once. A block opened at the earliest remaining slot covers
// every slot before its end, gaps included. With no budgets the sessions only must not overlap.
func IsClusterSatisfied(budgets []uint64, sessions []Session) bool {
	if len(budgets) == 0 {
		for i := range sessions {
			for j := i + 1; j < len(sessions); j++ {
				if sessions[i].overlaps(sessions[j]) {
					return false
				}
			}
		}
		return true
	}

	timeline := projectSessions(sessions)
	if len(timeline) == 0 {
		return true
	}

	generator := newPermutationGenerator()
	return generator.Permutations(budgets, MaxBudgetPermutations, func(permutation []uint64) bool {
		return consumes(permutation, timeline)
	})
}

// projectSessions returns the sorted, duplicate-free slot-of-week indices used by the sessions
func projectSessions(sessions []Session) []uint64 {
	indexer := newIndexer()
	timeline := lo.FlatMap(sessions, func(session Session, _ int) []uint64 {
		return lo.Map(contiguousSlots(session.Slot, session.Duration), func(slot uint64, _ int) uint64 {
			return indexer.Index(session.Day, slot)
		})
	})
	slices.Sort(timeline)
	return slices.Compact(timeline)
}

// consumes walks the timeline opening one block per budget, in order, at the earliest slot left
func consumes(blocks []uint64, timeline []uint64) bool {
	position := 0
	for _, block := range blocks {
		if position == len(timeline) {
			break
		}
		end := timeline[position] + block
		for position < len(timeline) && timeline[position] < end {
			position++
		}
	}
	return position == len(timeline)
}
