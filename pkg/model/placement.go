package model

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"github.com/samber/lo"
)

// Placement is a feasible time for a group together with the rooms able to serve each of its label
// requirements. Rooms is empty when the group needs no room.
type Placement struct {
	GroupId uint64
	Rooms   [][]uint64
	Day     uint64
	Slots   []uint64
}

// Allocations expands the placement into every concrete allocation, taking one room per label
// requirement and never the same room twice
func (placement Placement) Allocations() []Allocation {
	allocations := make([]Allocation, 0)
	distinctCombinations(placement.Rooms, func(combination []uint64) bool {
		allocations = append(allocations, placement.allocation(combination))
		return false
	})
	return allocations
}

// RandomAllocation picks one concrete allocation, shuffling the room candidates of every requirement
func (placement Placement) RandomAllocation(random *rand.Rand) (Allocation, bool) {
	shuffled := lo.Map(placement.Rooms, func(rooms []uint64, _ int) []uint64 {
		rooms = slices.Clone(rooms)
		random.Shuffle(len(rooms), func(i, j int) { rooms[i], rooms[j] = rooms[j], rooms[i] })
		return rooms
	})

	var allocation Allocation
	found := distinctCombinations(shuffled, func(combination []uint64) bool {
		allocation = placement.allocation(combination)
		return true
	})
	return allocation, found
}

func (placement Placement) allocation(rooms []uint64) Allocation {
	return Allocation{
		GroupId: placement.GroupId,
		RoomIds: slices.Clone(rooms),
		Day:     placement.Day,
		Slots:   slices.Clone(placement.Slots),
	}
}

// Placements enumerates every (day, start, room candidates) combination where the group can take
// place given the current availabilities and the clusters governing it
func (problem *Problem) Placements(groupId uint64) ([]Placement, error) {
	group, ok := problem.Groups[groupId]
	if !ok {
		return nil, fmt.Errorf("there is no group with id=%v", groupId)
	}

	teachers := make([]*Teacher, 0, len(group.TeacherIds))
	for _, teacherId := range group.TeacherIds {
		teacher, ok := problem.Teachers[teacherId]
		if !ok {
			return nil, fmt.Errorf("group with id=%v requires teacher with id=%v, which does not exist", group.Id, teacherId)
		}
		teachers = append(teachers, teacher)
	}

	rooms := lo.Values(problem.Rooms)
	slices.SortFunc(rooms, func(a, b *Room) int { return cmp.Compare(a.Id, b.Id) })
	clusters := problem.ClustersOf(group.Id)

	placements := make([]Placement, 0)
	for _, day := range group.Availability.Days() {
		for _, start := range group.Availability.Slots(day) {
			//** Time must suit the group and every teacher
			if !group.Availability.Covers(day, start, group.Duration) {
				continue
			}
			if !lo.EveryBy(teachers, func(teacher *Teacher) bool {
				return teacher.Availability.FreeRange(day, start, group.Duration, group.Occurrence)
			}) {
				continue
			}

			//** Find room candidates for every label requirement
			candidates := make([][]uint64, 0, len(group.Labels))
			for _, requirement := range group.Labels {
				candidates = append(candidates, lo.FilterMap(rooms, func(room *Room, _ int) (uint64, bool) {
					return room.Id, room.SatisfiesLabels(requirement) &&
						room.Fits(group.Capacity) &&
						room.Availability.FreeRange(day, start, group.Duration, group.Occurrence)
				}))
			}
			if group.NeedsRooms() {
				if lo.SomeBy(candidates, func(rooms []uint64) bool { return len(rooms) == 0 }) {
					continue
				}
				if _, ok := matchRooms(candidates); !ok {
					continue
				}
			}

			//** Clusters must stay satisfiable
			if !lo.EveryBy(clusters, func(cluster *Cluster) bool {
				return cluster.CanUse(day, start, group.Duration)
			}) {
				continue
			}

			placements = append(placements, Placement{
				GroupId: group.Id,
				Rooms:   candidates,
				Day:     day,
				Slots:   contiguousSlots(start, group.Duration),
			})
		}
	}

	return placements, nil
}
