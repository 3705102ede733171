package solver

import (
	"errors"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/limaJavier/slotplanner/pkg/model"
	. "github.com/onsi/gomega"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requestDirectory = "../../test/requests"

// newSingleGroupProblem builds an instance with exactly one solution: group 1 in room 101 on day 1,
// slots 10 to 12
func newSingleGroupProblem() *model.Problem {
	slots := map[uint64][]uint64{1: {10, 11, 12}}
	problem := model.NewProblem()
	lo.Must0(problem.AddTeacher(model.NewTeacher(1, model.MustAvailability(slots))))
	lo.Must0(problem.AddRoom(model.NewRoom(101, 50, model.MustAvailability(slots), []string{"lecture"})))
	lo.Must0(problem.AddRoom(model.NewRoom(102, 10, model.MustAvailability(slots), []string{"lecture"})))
	lo.Must0(problem.AddGroup(model.MustGroup(1, 3, 30, model.MustAvailability(slots), [][][]string{{{"lecture"}}}, []uint64{1}, nil)))
	return problem
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func TestSolveSingleSolution(t *testing.T) {
	for _, algorithm := range Algorithms() {
		t.Run(algorithm.String(), func(t *testing.T) {
			g := NewWithT(t)

			//** Arrange
			problem := newSingleGroupProblem()

			//** Act
			outcome, err := Solve(problem, algorithm, seeded(1))

			//** Assert
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(outcome.Success).To(BeTrue())
			g.Expect(outcome.Issues).To(BeEmpty())
			g.Expect(outcome.Solution).To(Equal([]model.Allocation{
				{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{10, 11, 12}},
			}))
			g.Expect(problem.Allocations).To(BeEmpty())
		})
	}
}

func TestSolveInfeasible(t *testing.T) {
	for _, algorithm := range Algorithms() {
		t.Run(algorithm.String(), func(t *testing.T) {
			g := NewWithT(t)

			//** Arrange
			request, err := model.InputFromJson(filepath.Join(requestDirectory, "unsatisfiable", "1.json"), model.DefaultParsePolicy())
			g.Expect(err).NotTo(HaveOccurred())

			//** Act
			outcome, err := Solve(request.Problem, algorithm, seeded(2))

			//** Assert
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(outcome.Success).To(BeFalse())
			g.Expect(outcome.Solution).To(BeEmpty())
			g.Expect(outcome.Issues).To(ConsistOf(model.Issue{
				Type:    model.IssueGroup,
				Id:      1,
				Message: "Could not find placement for group with id=1 (" + algorithm.String() + ")",
			}))
		})
	}
}

func TestSolveOverSubscribedRoom(t *testing.T) {
	request, err := model.InputFromJson(filepath.Join(requestDirectory, "unsatisfiable", "2.json"), model.DefaultParsePolicy())
	require.NoError(t, err)

	for _, algorithm := range Algorithms() {
		for seed := range int64(5) {
			outcome, err := Solve(request.Problem, algorithm, seeded(seed))

			require.NoError(t, err)
			assert.False(t, outcome.Success)
			require.Len(t, outcome.Issues, 1)
			assert.Equal(t, model.IssueGroup, outcome.Issues[0].Type)
		}
	}
}

func TestSolveKeepsEstablishedAllocations(t *testing.T) {
	files := []string{
		filepath.Join(requestDirectory, "satisfiable", "1.json"),
		filepath.Join(requestDirectory, "satisfiable", "2.json"),
	}

	for _, file := range files {
		request, err := model.InputFromJson(file, model.DefaultParsePolicy())
		require.NoError(t, err)
		original := request.Problem.Clone()

		for _, algorithm := range Algorithms() {
			for seed := range int64(10) {
				//** Act
				outcome, err := Solve(request.Problem, algorithm, seeded(seed))

				//** Assert
				require.NoError(t, err, "%v with %v", file, algorithm)
				require.True(t, outcome.Success, "%v with %v: %v", file, algorithm, outcome.Issues)
				assert.Len(t, outcome.Solution, len(request.Problem.Groups))
				for _, established := range request.Problem.Allocations {
					assert.True(t, lo.ContainsBy(outcome.Solution, established.Equal))
				}

				installed := request.Problem.Clone()
				installed.SetAllocations(outcome.Solution)
				assert.Empty(t, installed.Check(model.Full))
			}
		}

		assert.Equal(t, original.Allocations, request.Problem.Allocations)
		for id, teacher := range original.Teachers {
			assert.True(t, request.Problem.Teachers[id].Availability.Equal(&teacher.Availability))
		}
	}
}

func TestSolveRejectsInvalidEstablishedAllocations(t *testing.T) {
	g := NewWithT(t)

	//** Arrange
	problem := newSingleGroupProblem()
	problem.AddAllocation(model.Allocation{GroupId: 1, RoomIds: []uint64{102}, Day: 1, Slots: []uint64{10, 11, 12}})

	//** Act
	outcome, err := Solve(problem, Ordered)

	//** Assert
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(outcome.Success).To(BeFalse())
	g.Expect(outcome.Solution).To(BeEmpty())
	g.Expect(outcome.Issues).To(HaveLen(1))
	g.Expect(outcome.Issues[0].Message).To(Equal("Given allocations do not satisfy constraints: Group with id=1 has capacity=30 but has assigned room (id=102) with capacity=10"))
}

func TestSolveFullyEstablished(t *testing.T) {
	problem := newSingleGroupProblem()
	established := model.Allocation{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{10, 11, 12}}
	problem.AddAllocation(established)

	outcome, err := Solve(problem, DeepOrdered)

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, []model.Allocation{established}, outcome.Solution)
}

func TestSolveIsReproducible(t *testing.T) {
	request, err := model.InputFromJson(filepath.Join(requestDirectory, "satisfiable", "1.json"), model.DefaultParsePolicy())
	require.NoError(t, err)

	for _, algorithm := range Algorithms() {
		first, err := Solve(request.Problem, algorithm, seeded(42))
		require.NoError(t, err)
		second, err := Solve(request.Problem, algorithm, seeded(42))
		require.NoError(t, err)

		assert.Equal(t, first, second, algorithm.String())
	}
}

func TestSolveUnknownAlgorithm(t *testing.T) {
	_, err := Solve(newSingleGroupProblem(), Algorithm(42))

	assert.Error(t, err)
}

func TestSolveObserver(t *testing.T) {
	//** Arrange
	calls := 0
	var observed Outcome
	observer := func(algorithm Algorithm, outcome Outcome, err error, elapsed time.Duration) {
		calls++
		observed = outcome
		assert.Equal(t, Rating, algorithm)
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	}

	//** Act
	outcome, err := Solve(newSingleGroupProblem(), Rating, WithObserver(observer))

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, outcome, observed)
}

func TestVerify(t *testing.T) {
	problem := newSingleGroupProblem()
	established := model.Allocation{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{10, 11, 12}}

	t.Run("Established allocation missing", func(t *testing.T) {
		withEstablished := problem.Clone()
		withEstablished.AddAllocation(established)

		err := verify(withEstablished, []model.Allocation{{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{11, 12, 13}}}, Random)

		var violation *InvariantViolationError
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, Random, violation.Algorithm)
		assert.Contains(t, violation.Error(), "was affected")
	})

	t.Run("Solution failing the checker", func(t *testing.T) {
		err := verify(problem, []model.Allocation{}, Ordered)

		var violation *InvariantViolationError
		require.True(t, errors.As(err, &violation))
		assert.Len(t, violation.Issues, 1)
		assert.True(t, strings.HasSuffix(violation.Error(), "Group with id=1 is not present in solution"))
	})

	t.Run("Valid solution", func(t *testing.T) {
		assert.NoError(t, verify(problem, []model.Allocation{established}, Rating))
	})
}

func TestParseAlgorithm(t *testing.T) {
	for _, algorithm := range Algorithms() {
		parsed, err := ParseAlgorithm(algorithm.String())

		require.NoError(t, err)
		assert.Equal(t, algorithm, parsed)
	}

	parsed, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, Random, parsed)

	_, err = ParseAlgorithm("fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sent 'fast'")
	assert.Contains(t, err.Error(), "'rating_function_alg'")

	assert.Equal(t, []Algorithm{Random, Ordered, DeepOrdered, Rating}, Algorithms())
	assert.Equal(t, "Algorithm(42)", Algorithm(42).String())
}
