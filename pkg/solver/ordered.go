package solver

import (
	"math/rand"
	"slices"

	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/samber/lo"
)

type orderedStrategy struct {
	random *rand.Rand
	deep   bool // Re-sort after every booking
}

func newOrderedStrategy(settings settings) strategy {
	return &orderedStrategy{random: settings.random}
}

func newDeepOrderedStrategy(settings settings) strategy {
	return &orderedStrategy{random: settings.random, deep: true}
}

func (strategy *orderedStrategy) order(problem *model.Problem, groupIds []uint64) ([]uint64, error) {
	return byScarcity(problem, groupIds, true)
}

func (strategy *orderedStrategy) reorder(problem *model.Problem, remaining []uint64) ([]uint64, error) {
	if !strategy.deep {
		return remaining, nil
	}
	return byScarcity(problem, remaining, true)
}

// Picks uniformly among every concrete allocation of the placements
func (strategy *orderedStrategy) choose(_ *model.Problem, placements []model.Placement) (model.Allocation, bool) {
	return pickUniformly(strategy.random, expand(placements))
}

// byScarcity sorts groups ascending by their number of placements in the current state. With
// pullClusters, every group governed by a cluster takes the smallest count among the cluster's
// groups being sorted. Ties keep the incoming order.
func byScarcity(problem *model.Problem, groupIds []uint64, pullClusters bool) ([]uint64, error) {
	scarcity := make(map[uint64]int, len(groupIds))
	for _, groupId := range groupIds {
		placements, err := problem.Placements(groupId)
		if err != nil {
			return nil, err
		}
		scarcity[groupId] = len(placements)
	}

	if pullClusters {
		for _, cluster := range problem.Clusters {
			members := lo.Filter(cluster.GroupIds, func(groupId uint64, _ int) bool {
				_, ok := scarcity[groupId]
				return ok
			})
			if len(members) == 0 {
				continue
			}
			scarcest := lo.Min(lo.Map(members, func(groupId uint64, _ int) int { return scarcity[groupId] }))
			for _, groupId := range members {
				scarcity[groupId] = scarcest
			}
		}
	}

	sorted := slices.Clone(groupIds)
	slices.SortStableFunc(sorted, func(a, b uint64) int { return scarcity[a] - scarcity[b] })
	return sorted, nil
}

func expand(placements []model.Placement) []model.Allocation {
	return lo.FlatMap(placements, func(placement model.Placement, _ int) []model.Allocation {
		return placement.Allocations()
	})
}

func pickUniformly(random *rand.Rand, allocations []model.Allocation) (model.Allocation, bool) {
	if len(allocations) == 0 {
		return model.Allocation{}, false
	}
	return allocations[random.Intn(len(allocations))], true
}
