package model

import (
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// matchRooms assigns a distinct room to every label requirement, where candidates[i] lists the rooms
// able to serve requirement i. Returns false when no such assignment exists.
func matchRooms(candidates [][]uint64) ([]uint64, bool) {
	if len(candidates) == 0 {
		return []uint64{}, true
	}

	requirements := lo.Range(len(candidates))
	rooms := lo.Uniq(lo.Flatten(candidates))

	// Build neighbors predicate based on candidate lists
	neighbors := func(requirementAny any, roomAny any) (bool, error) {
		requirement := requirementAny.(int)
		room := roomAny.(uint64)
		return slices.Contains(candidates[requirement], room), nil
	}

	// Transform requirements and rooms to slices of any
	requirementsAny, roomsAny := lo.Map(requirements, func(requirement int, _ int) any { return requirement }), lo.Map(rooms, func(room uint64, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(requirementsAny, roomsAny, neighbors)
	if err != nil {
		return nil, false
	}

	matching := graph.LargestMatching()

	// Check the matching is a maximum one
	if len(matching) < len(candidates) {
		return nil, false
	}

	assignment := make([]uint64, len(candidates))
	for _, edge := range matching {
		requirementIndex, roomIndex := edge.Node1, edge.Node2-len(candidates)
		assignment[requirementIndex] = rooms[roomIndex]
	}
	return assignment, true
}

// distinctCombinations visits every choice of one room per requirement that uses no room twice,
// stopping early when visit returns true. The slice handed to visit is reused between calls.
func distinctCombinations(candidates [][]uint64, visit func(combination []uint64) bool) bool {
	combination := make([]uint64, len(candidates))
	used := make(map[uint64]bool)

	var choose func(requirement int) bool
	choose = func(requirement int) bool {
		if requirement == len(candidates) {
			return visit(combination)
		}
		for _, room := range candidates[requirement] {
			if used[room] {
				continue
			}
			used[room] = true
			combination[requirement] = room
			stop := choose(requirement + 1)
			used[room] = false
			if stop {
				return true
			}
		}
		return false
	}

	return choose(0)
}
