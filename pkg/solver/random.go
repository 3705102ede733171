package solver

import (
	"math/rand"
	"slices"

	"github.com/limaJavier/slotplanner/pkg/model"
)

type randomStrategy struct {
	random *rand.Rand
}

func newRandomStrategy(settings settings) strategy {
	return &randomStrategy{random: settings.random}
}

func (strategy *randomStrategy) order(_ *model.Problem, groupIds []uint64) ([]uint64, error) {
	shuffled := slices.Clone(groupIds)
	strategy.random.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled, nil
}

func (strategy *randomStrategy) reorder(_ *model.Problem, remaining []uint64) ([]uint64, error) {
	return remaining, nil
}

// Picks a placement uniformly, then one of its room combinations with shuffled candidates
func (strategy *randomStrategy) choose(_ *model.Problem, placements []model.Placement) (model.Allocation, bool) {
	for _, index := range strategy.random.Perm(len(placements)) {
		if allocation, ok := placements[index].RandomAllocation(strategy.random); ok {
			return allocation, true
		}
	}
	return model.Allocation{}, false
}
