package model

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAllocations() []Allocation {
	return []Allocation{
		{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 9}},
		{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8}},
	}
}

func TestCheckValidSolution(t *testing.T) {
	//** Arrange
	problem := newTestProblem()
	problem.SetAllocations(validAllocations())

	//** Act
	full := problem.Check(Full)
	failFast := problem.Check(FailFast)

	//** Assert
	assert.Empty(t, full)
	assert.Empty(t, failFast)
}

func TestCheckCoverage(t *testing.T) {
	//** Arrange
	problem := newTestProblem()
	problem.SetAllocations(validAllocations()[:1])

	//** Act
	issues := problem.Check(Full)
	preIssues := problem.Precheck()

	//** Assert
	assert.Equal(t, []Issue{{Type: IssueGroup, Id: 2, Message: "Group with id=2 is not present in solution"}}, issues)
	assert.Empty(t, preIssues)
}

func TestCheckRules(t *testing.T) {
	testCases := []struct {
		name        string
		prepare     func(problem *Problem)
		allocations []Allocation
		expected    []Issue
	}{
		{
			name:        "Non contiguous slots",
			allocations: []Allocation{{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 10}}},
			expected:    []Issue{{Type: IssueAllocation, Id: 1, Message: "Allocation of group with id=1 must occupy 2 contiguous slots, got [8 10]"}},
		},
		{
			name: "Repeated group",
			allocations: []Allocation{
				{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8}},
				{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8}},
			},
			expected: []Issue{{Type: IssueAllocation, Id: 2, Message: "Group with id=2 has more than one allocation"}},
		},
		{
			name:        "Unknown group",
			allocations: []Allocation{{GroupId: 7, Day: 1, Slots: []uint64{8}}},
			expected:    []Issue{{Type: IssueAllocation, Id: 7, Message: "allocation with group_id 7 exists, but there is no group with such id"}},
		},
		{
			name:        "Group and teacher unavailable",
			allocations: []Allocation{{GroupId: 1, RoomIds: []uint64{101}, Day: 2, Slots: []uint64{8, 9}}},
			expected: []Issue{
				{Type: IssueGroup, Id: 1, Message: "Group with id=1 cannot take place on 2 between 8 and 10"},
				{Type: IssueTeacher, Id: 1, Message: "Teacher with id=1 is not available on 2 between 8 and 10"},
			},
		},
		{
			name:    "Teacher conflict",
			prepare: func(problem *Problem) { problem.Groups[2].TeacherIds = []uint64{1} },
			allocations: []Allocation{
				{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 9}},
				{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{9}},
			},
			expected: []Issue{{Type: IssueTeacher, Id: 1, Message: "Teacher with id=1 has conflicting classes on 1 between 8 and 10"}},
		},
		{
			name: "Disjoint occurrences never conflict",
			prepare: func(problem *Problem) {
				problem.Groups[1].Occurrence = []uint64{1}
				problem.Groups[2].TeacherIds = []uint64{1}
				problem.Groups[2].Occurrence = []uint64{2}
			},
			allocations: []Allocation{
				{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 9}},
				{GroupId: 2, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{9}},
			},
			expected: []Issue{},
		},
		{
			name: "Room conflict",
			allocations: []Allocation{
				{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 9}},
				{GroupId: 2, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{9}},
			},
			expected: []Issue{{Type: IssueRoom, Id: 101, Message: "At least two groups (id=1, id=2) use room(s) with id=101 in the same time on 1 between 8 and 10"}},
		},
		{
			name:        "Room unavailable",
			prepare:     func(problem *Problem) { problem.Rooms[102].Availability.Remove(1, 8, nil) },
			allocations: []Allocation{{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8}}},
			expected:    []Issue{{Type: IssueRoom, Id: 102, Message: "Room with id=102 is not available on 1 between 8 and 9"}},
		},
		{
			name:        "Unknown room",
			allocations: []Allocation{{GroupId: 2, RoomIds: []uint64{999}, Day: 1, Slots: []uint64{8}}},
			expected: []Issue{
				{Type: IssueRoom, Id: 999, Message: "Allocation of group with id=2 assigns room with id=999, but there is no room with such id"},
				{Type: IssueRoom, Id: 2, Message: "Group with id=2 has room(s) with labels=[] but needs labels=[[[lab] [lecture]]]"},
			},
		},
		{
			name:        "Room too small",
			prepare:     func(problem *Problem) { problem.Groups[2].Capacity = 30 },
			allocations: []Allocation{{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8}}},
			expected:    []Issue{{Type: IssueRoom, Id: 102, Message: "Group with id=2 has capacity=30 but has assigned room (id=102) with capacity=20"}},
		},
		{
			name:        "Wrong labels and capacity",
			allocations: []Allocation{{GroupId: 1, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8, 9}}},
			expected: []Issue{
				{Type: IssueRoom, Id: 1, Message: "Group with id=1 has room(s) with labels=[[lab]] but needs labels=[[[lecture]]]"},
				{Type: IssueRoom, Id: 102, Message: "Group with id=1 has capacity=40 but has assigned room (id=102) with capacity=20"},
			},
		},
		{
			name:    "Unsatisfied cluster",
			prepare: func(problem *Problem) { lo.Must0(problem.AddCluster(NewCluster(3, []uint64{1}, []uint64{2, 1}))) },
			allocations: []Allocation{
				{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{8, 9}},
				{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{12}},
			},
			expected: []Issue{{Type: IssueCluster, Id: 3, Message: "Cluster connecting groups with ids 1, 2 is not satisfied"}},
		},
		{
			name:    "Unknown teacher",
			prepare: func(problem *Problem) { problem.Groups[2].TeacherIds = []uint64{9} },
			expected: []Issue{
				{Type: IssueProblem, Id: 2, Message: "Group with id=2 requires teacher with id=9, but there is no teacher with such id"},
			},
		},
		{
			name:    "Unknown cluster member",
			prepare: func(problem *Problem) { lo.Must0(problem.AddCluster(NewCluster(2, nil, []uint64{1, 8}))) },
			expected: []Issue{
				{Type: IssueCluster, Id: 2, Message: "Cluster with id=2 governs group with id=8, but there is no group with such id"},
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			//** Arrange
			problem := newTestProblem()
			if testCase.prepare != nil {
				testCase.prepare(problem)
			}
			problem.SetAllocations(testCase.allocations)

			//** Act
			issues := problem.Precheck()

			//** Assert
			assert.Equal(t, testCase.expected, issues)
		})
	}
}

func TestCheckFailFast(t *testing.T) {
	//** Arrange
	problem := newTestProblem()
	problem.SetAllocations([]Allocation{
		{GroupId: 1, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{8, 9}},
		{GroupId: 2, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{9}},
	})

	//** Act
	failFast := problem.Check(FailFast)
	full := problem.Check(Full)

	//** Assert
	require.Len(t, failFast, 1)
	assert.Equal(t, full[0], failFast[0])
	assert.Greater(t, len(full), 1)
}

func TestCheckReadsUnbookedLedgers(t *testing.T) {
	problem := newTestProblem()
	for _, allocation := range validAllocations() {
		require.NoError(t, problem.Book(allocation))
	}

	assert.NotEmpty(t, problem.Check(Full))

	fresh := newTestProblem()
	fresh.SetAllocations(problem.Allocations)
	assert.Empty(t, fresh.Check(Full))
}
