package model

import (
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

type CheckMode int

const (
	FailFast CheckMode = iota // Stop at the first violated rule
	Full                      // Report every violated rule
)

type checkState struct {
	problem     *Problem
	allocations []Allocation
}

type allocationRule func(state checkState, index int, group *Group) []Issue

// Rules are evaluated in this order for every allocation
var allocationRules = []allocationRule{
	allocationShapeConstraints,
	groupAvailabilityConstraints,
	teacherAvailabilityConstraints,
	teacherConflictConstraints,
	roomAvailabilityConstraints,
	roomConflictConstraints,
	roomLabelConstraints,
	roomCapacityConstraints,
}

// Check validates the allocations in force as a complete solution: every rule must hold and every
// group must be allocated. Availabilities are read as they are, so Check is meant for problems whose
// allocations were registered without booking.
func (problem *Problem) Check(mode CheckMode) []Issue {
	return problem.check(mode, true)
}

// Precheck validates the allocations in force without requiring every group to be allocated
func (problem *Problem) Precheck() []Issue {
	return problem.check(Full, false)
}

func (problem *Problem) check(mode CheckMode, requireCoverage bool) []Issue {
	state := checkState{problem: problem, allocations: problem.Allocations}
	issues := make([]Issue, 0)

	// Collect issues and tell whether checking must stop
	collect := func(found []Issue) bool {
		if len(found) == 0 {
			return false
		}
		if mode == FailFast {
			issues = append(issues, found[0])
			return true
		}
		issues = append(issues, found...)
		return false
	}

	//** References between entities
	if collect(problem.referenceConstraints()) {
		return issues
	}

	//** Per-allocation rules
	for index, allocation := range state.allocations {
		group, ok := problem.Groups[allocation.GroupId]
		if !ok {
			if collect([]Issue{NewIssue(IssueAllocation, allocation.GroupId, "allocation with group_id %v exists, but there is no group with such id", allocation.GroupId)}) {
				return issues
			}
			continue
		}

		for _, rule := range allocationRules {
			if collect(rule(state, index, group)) {
				return issues
			}
		}
	}

	//** Clusters
	if collect(clusterConstraints(state)) {
		return issues
	}

	//** Coverage
	if requireCoverage {
		allocated := problem.AllocatedGroupIds()
		for _, groupId := range problem.GroupIds() {
			if !allocated[groupId] {
				if collect([]Issue{NewIssue(IssueGroup, groupId, "Group with id=%v is not present in solution", groupId)}) {
					return issues
				}
			}
		}
	}

	return issues
}

func (problem *Problem) referenceConstraints() []Issue {
	issues := make([]Issue, 0)
	for _, groupId := range problem.GroupIds() {
		for _, teacherId := range problem.Groups[groupId].TeacherIds {
			if _, ok := problem.Teachers[teacherId]; !ok {
				issues = append(issues, NewIssue(IssueProblem, groupId, "Group with id=%v requires teacher with id=%v, but there is no teacher with such id", groupId, teacherId))
			}
		}
	}
	for _, cluster := range problem.Clusters {
		for _, groupId := range cluster.GroupIds {
			if _, ok := problem.Groups[groupId]; !ok {
				issues = append(issues, NewIssue(IssueCluster, cluster.Id, "Cluster with id=%v governs group with id=%v, but there is no group with such id", cluster.Id, groupId))
			}
		}
	}
	return issues
}

func allocationShapeConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)

	if _, length, contiguous := allocation.Span(); !contiguous || length != group.Duration {
		issues = append(issues, NewIssue(IssueAllocation, group.Id, "Allocation of group with id=%v must occupy %v contiguous slots, got %v", group.Id, group.Duration, allocation.Slots))
	}
	if duplicated := lo.FindDuplicates(allocation.RoomIds); len(duplicated) > 0 {
		issues = append(issues, NewIssue(IssueAllocation, group.Id, "Allocation of group with id=%v assigns room(s) %v more than once", group.Id, duplicated))
	}
	if lo.ContainsBy(state.allocations[:index], func(other Allocation) bool { return other.GroupId == allocation.GroupId }) {
		issues = append(issues, NewIssue(IssueAllocation, group.Id, "Group with id=%v has more than one allocation", group.Id))
	}
	return issues
}

func groupAvailabilityConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	if lo.EveryBy(allocation.Slots, func(slot uint64) bool { return group.Availability.Has(allocation.Day, slot) }) {
		return nil
	}
	start, end := bounds(allocation)
	return []Issue{NewIssue(IssueGroup, group.Id, "Group with id=%v cannot take place on %v between %v and %v", group.Id, allocation.Day, start, end)}
}

func teacherAvailabilityConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)
	start, end := bounds(allocation)

	for _, teacherId := range group.TeacherIds {
		teacher, ok := state.problem.Teachers[teacherId]
		if !ok {
			continue // Reported as a reference issue
		}
		if !lo.EveryBy(allocation.Slots, func(slot uint64) bool {
			return teacher.Availability.Free(allocation.Day, slot, group.Occurrence)
		}) {
			issues = append(issues, NewIssue(IssueTeacher, teacherId, "Teacher with id=%v is not available on %v between %v and %v", teacherId, allocation.Day, start, end))
		}
	}
	return issues
}

func teacherConflictConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)

	// Every pair is inspected once, from its first allocation
	for _, other := range state.allocations[index+1:] {
		otherGroup, ok := state.problem.Groups[other.GroupId]
		if !ok || other.GroupId == allocation.GroupId || !collide(allocation, other, group, otherGroup) {
			continue
		}
		for _, teacherId := range group.TeacherIds {
			if !otherGroup.HasTeacher(teacherId) {
				continue
			}
			start, end := jointBounds(allocation, other)
			issues = append(issues, NewIssue(IssueTeacher, teacherId, "Teacher with id=%v has conflicting classes on %v between %v and %v", teacherId, allocation.Day, start, end))
		}
	}
	return issues
}

func roomAvailabilityConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)
	start, end := bounds(allocation)

	for _, roomId := range allocation.RoomIds {
		room, ok := state.problem.Rooms[roomId]
		if !ok {
			issues = append(issues, NewIssue(IssueRoom, roomId, "Allocation of group with id=%v assigns room with id=%v, but there is no room with such id", group.Id, roomId))
			continue
		}
		if !lo.EveryBy(allocation.Slots, func(slot uint64) bool {
			return room.Availability.Free(allocation.Day, slot, group.Occurrence)
		}) {
			issues = append(issues, NewIssue(IssueRoom, roomId, "Room with id=%v is not available on %v between %v and %v", roomId, allocation.Day, start, end))
		}
	}
	return issues
}

func roomConflictConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)

	for _, other := range state.allocations[index+1:] {
		otherGroup, ok := state.problem.Groups[other.GroupId]
		if !ok || other.GroupId == allocation.GroupId || !collide(allocation, other, group, otherGroup) {
			continue
		}
		shared := lo.Intersect(lo.Uniq(allocation.RoomIds), other.RoomIds)
		if len(shared) == 0 {
			continue
		}
		start, end := bounds(allocation)
		roomIds := strings.Join(lo.Map(shared, func(roomId uint64, _ int) string { return strconv.FormatUint(roomId, 10) }), ", ")
		issues = append(issues, NewIssue(IssueRoom, shared[0], "At least two groups (id=%v, id=%v) use room(s) with id=%v in the same time on %v between %v and %v", group.Id, otherGroup.Id, roomIds, allocation.Day, start, end))
	}
	return issues
}

func roomLabelConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	rooms := lo.FilterMap(allocation.RoomIds, func(roomId uint64, _ int) (*Room, bool) {
		room, ok := state.problem.Rooms[roomId]
		return room, ok
	})

	for _, requirement := range group.Labels {
		if !lo.SomeBy(rooms, func(room *Room) bool { return room.SatisfiesLabels(requirement) }) {
			labels := lo.Map(rooms, func(room *Room, _ int) []string { return room.Labels })
			return []Issue{NewIssue(IssueRoom, group.Id, "Group with id=%v has room(s) with labels=%v but needs labels=%v", group.Id, labels, group.Labels)}
		}
	}
	return nil
}

func roomCapacityConstraints(state checkState, index int, group *Group) []Issue {
	allocation := state.allocations[index]
	issues := make([]Issue, 0)

	for _, roomId := range allocation.RoomIds {
		room, ok := state.problem.Rooms[roomId]
		if ok && !room.Fits(group.Capacity) {
			issues = append(issues, NewIssue(IssueRoom, roomId, "Group with id=%v has capacity=%v but has assigned room (id=%v) with capacity=%v", group.Id, group.Capacity, roomId, room.Capacity))
		}
	}
	return issues
}

func clusterConstraints(state checkState) []Issue {
	issues := make([]Issue, 0)

	for _, cluster := range state.problem.Clusters {
		sessions := make([]Session, 0)
		for _, allocation := range state.allocations {
			if _, ok := state.problem.Groups[allocation.GroupId]; !ok || !cluster.Governs(allocation.GroupId) {
				continue
			}
			start, length, _ := allocation.Span()
			sessions = append(sessions, Session{Day: allocation.Day, Slot: start, Duration: length})
		}

		if !IsClusterSatisfied(cluster.Range, sessions) {
			groupIds := slices.Clone(cluster.GroupIds)
			slices.Sort(groupIds)
			ids := strings.Join(lo.Map(groupIds, func(groupId uint64, _ int) string { return strconv.FormatUint(groupId, 10) }), ", ")
			issues = append(issues, NewIssue(IssueCluster, cluster.Id, "Cluster connecting groups with ids %v is not satisfied", ids))
		}
	}
	return issues
}

// Checks whether two allocations use a common slot for a common occurrence
func collide(allocation1, allocation2 Allocation, group1, group2 *Group) bool {
	return allocation1.Overlaps(allocation2) && OccurrencesOverlap(group1.Occurrence, group2.Occurrence)
}

// bounds returns the half-open slot range spanned by the allocation
func bounds(allocation Allocation) (start, end uint64) {
	if len(allocation.Slots) == 0 {
		return 0, 0
	}
	return slices.Min(allocation.Slots), slices.Max(allocation.Slots) + 1
}

func jointBounds(allocation1, allocation2 Allocation) (start, end uint64) {
	start1, end1 := bounds(allocation1)
	start2, end2 := bounds(allocation2)
	return min(start1, start2), max(end1, end2)
}
