package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

type bookingError struct {
	allocation Allocation
	reason     string
}

func (err bookingError) Error() string {
	return fmt.Sprintf("cannot book %v: %v", err.allocation, err.reason)
}

// Problem aggregates every entity of a timetabling instance together with the allocations in force
type Problem struct {
	Teachers    map[uint64]*Teacher
	Rooms       map[uint64]*Room
	Groups      map[uint64]*Group
	Clusters    []*Cluster
	Allocations []Allocation
}

func NewProblem() *Problem {
	return &Problem{
		Teachers: make(map[uint64]*Teacher),
		Rooms:    make(map[uint64]*Room),
		Groups:   make(map[uint64]*Group),
	}
}

func (problem *Problem) AddTeacher(teacher *Teacher) error {
	if _, ok := problem.Teachers[teacher.Id]; ok {
		return newIssueError(IssueTeacher, teacher.Id, "teachers should have unique ids: id %v repeats", teacher.Id)
	}
	problem.Teachers[teacher.Id] = teacher
	return nil
}

func (problem *Problem) AddRoom(room *Room) error {
	if _, ok := problem.Rooms[room.Id]; ok {
		return newIssueError(IssueRoom, room.Id, "rooms should have unique ids: id %v repeats", room.Id)
	}
	problem.Rooms[room.Id] = room
	return nil
}

func (problem *Problem) AddGroup(group *Group) error {
	if _, ok := problem.Groups[group.Id]; ok {
		return newIssueError(IssueGroup, group.Id, "groups should have unique ids: id %v repeats", group.Id)
	}
	problem.Groups[group.Id] = group
	return nil
}

// AddCluster registers the cluster and attaches the allocations of its groups already in force
func (problem *Problem) AddCluster(cluster *Cluster) error {
	if lo.ContainsBy(problem.Clusters, func(other *Cluster) bool { return other.Id == cluster.Id }) {
		return newIssueError(IssueCluster, cluster.Id, "clusters should have unique ids: id %v repeats", cluster.Id)
	}
	cluster.detachAll()
	for _, allocation := range problem.Allocations {
		cluster.attach(allocation)
	}
	problem.Clusters = append(problem.Clusters, cluster)
	return nil
}

// AddAllocation registers an allocation without touching availabilities. Allocations registered
// this way are the established ones: solvers keep them untouched.
func (problem *Problem) AddAllocation(allocation Allocation) {
	allocation = allocation.Clone()
	problem.Allocations = append(problem.Allocations, allocation)
	for _, cluster := range problem.Clusters {
		cluster.attach(allocation)
	}
}

// Book registers the allocation and claims its slots in the availability of every teacher of the
// group and every assigned room. Either everything is claimed or nothing is.
func (problem *Problem) Book(allocation Allocation) error {
	group, ok := problem.Groups[allocation.GroupId]
	if !ok {
		return bookingError{allocation, fmt.Sprintf("there is no group with id=%v", allocation.GroupId)}
	}

	start, length, contiguous := allocation.Span()
	if !contiguous || length != group.Duration {
		return bookingError{allocation, fmt.Sprintf("slots must be a contiguous range of %v slots", group.Duration)}
	}
	if len(lo.Uniq(allocation.RoomIds)) != len(allocation.RoomIds) {
		return bookingError{allocation, "a room cannot be assigned twice"}
	}

	//** Verify every claim before mutating anything
	teachers := make([]*Teacher, 0, len(group.TeacherIds))
	for _, teacherId := range lo.Uniq(group.TeacherIds) {
		teacher, ok := problem.Teachers[teacherId]
		if !ok {
			return bookingError{allocation, fmt.Sprintf("there is no teacher with id=%v", teacherId)}
		}
		if !teacher.Availability.FreeRange(allocation.Day, start, length, group.Occurrence) {
			return bookingError{allocation, fmt.Sprintf("teacher with id=%v is not free", teacherId)}
		}
		teachers = append(teachers, teacher)
	}
	rooms := make([]*Room, 0, len(allocation.RoomIds))
	for _, roomId := range allocation.RoomIds {
		room, ok := problem.Rooms[roomId]
		if !ok {
			return bookingError{allocation, fmt.Sprintf("there is no room with id=%v", roomId)}
		}
		if !room.Availability.FreeRange(allocation.Day, start, length, group.Occurrence) {
			return bookingError{allocation, fmt.Sprintf("room with id=%v is not free", roomId)}
		}
		rooms = append(rooms, room)
	}

	//** Claim slots
	for slot := start; slot < start+length; slot++ {
		for _, teacher := range teachers {
			if !teacher.Book(allocation.Day, slot, group.Occurrence) {
				panic(fmt.Sprintf("teacher with id=%v was verified free on day %v slot %v", teacher.Id, allocation.Day, slot))
			}
		}
		for _, room := range rooms {
			if !room.Book(allocation.Day, slot, group.Occurrence) {
				panic(fmt.Sprintf("room with id=%v was verified free on day %v slot %v", room.Id, allocation.Day, slot))
			}
		}
	}

	problem.AddAllocation(allocation)
	return nil
}

// ClearAllocations drops every allocation in force and returns them
func (problem *Problem) ClearAllocations() []Allocation {
	allocations := problem.Allocations
	problem.Allocations = nil
	for _, cluster := range problem.Clusters {
		cluster.detachAll()
	}
	return allocations
}

// SetAllocations replaces the allocations in force without touching availabilities
func (problem *Problem) SetAllocations(allocations []Allocation) {
	problem.ClearAllocations()
	for _, allocation := range allocations {
		problem.AddAllocation(allocation)
	}
}

// GroupIds returns every group id in ascending order
func (problem *Problem) GroupIds() []uint64 {
	ids := lo.Keys(problem.Groups)
	slices.Sort(ids)
	return ids
}

// AllocatedGroupIds returns the set of groups having at least one allocation in force
func (problem *Problem) AllocatedGroupIds() map[uint64]bool {
	return lo.SliceToMap(problem.Allocations, func(allocation Allocation) (uint64, bool) {
		return allocation.GroupId, true
	})
}

// ClustersOf returns the clusters governing the group
func (problem *Problem) ClustersOf(groupId uint64) []*Cluster {
	return lo.Filter(problem.Clusters, func(cluster *Cluster, _ int) bool {
		return cluster.Governs(groupId)
	})
}

// Clone returns a deep copy sharing no mutable state with the original
func (problem *Problem) Clone() *Problem {
	return &Problem{
		Teachers: lo.MapValues(problem.Teachers, func(teacher *Teacher, _ uint64) *Teacher { return teacher.clone() }),
		Rooms:    lo.MapValues(problem.Rooms, func(room *Room, _ uint64) *Room { return room.clone() }),
		Groups:   lo.MapValues(problem.Groups, func(group *Group, _ uint64) *Group { return group.clone() }),
		Clusters: lo.Map(problem.Clusters, func(cluster *Cluster, _ int) *Cluster { return cluster.clone() }),
		Allocations: lo.Map(problem.Allocations, func(allocation Allocation, _ int) Allocation {
			return allocation.Clone()
		}),
	}
}

func (problem *Problem) String() string {
	return fmt.Sprintf("Problem<groups = %v, teachers = %v, rooms = %v, clusters = %v, allocations = %v>",
		len(problem.Groups), len(problem.Teachers), len(problem.Rooms), len(problem.Clusters), len(problem.Allocations))
}
