package solver

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Algorithm int

const (
	Random      Algorithm = iota // Groups shuffled, placements picked uniformly
	Ordered                      // Groups sorted once by scarcity
	DeepOrdered                  // Groups re-sorted by scarcity after every booking
	Rating                       // Groups sorted by scarcity, placements picked by score
)

var algorithmNames = map[Algorithm]string{
	Random:      "probabilistic_alg",
	Ordered:     "ordered_groups_alg",
	DeepOrdered: "deep_ordered_groups_alg",
	Rating:      "rating_function_alg",
}

// Dispatch table from algorithm to strategy constructor
var strategies = map[Algorithm]func(settings settings) strategy{
	Random:      newRandomStrategy,
	Ordered:     newOrderedStrategy,
	DeepOrdered: newDeepOrderedStrategy,
	Rating:      newRatingStrategy,
}

func (algorithm Algorithm) String() string {
	if name, ok := algorithmNames[algorithm]; ok {
		return name
	}
	return fmt.Sprintf("Algorithm(%d)", int(algorithm))
}

// Algorithms returns every supported algorithm
func Algorithms() []Algorithm {
	algorithms := lo.Keys(algorithmNames)
	slices.Sort(algorithms)
	return algorithms
}

// ParseAlgorithm resolves a wire name. An empty name selects Random.
func ParseAlgorithm(name string) (Algorithm, error) {
	if name == "" {
		return Random, nil
	}
	for algorithm, algorithmName := range algorithmNames {
		if algorithmName == name {
			return algorithm, nil
		}
	}
	names := lo.Map(Algorithms(), func(algorithm Algorithm, _ int) string { return fmt.Sprintf("'%v'", algorithm) })
	return Random, fmt.Errorf("field 'method' values in Request must be one of the following: %v. Sent '%v'", strings.Join(names, ", "), name)
}

// Outcome is the uniform result of a run. Solution is empty unless Success holds.
type Outcome struct {
	Success  bool               `json:"success"`
	Issues   []model.Issue      `json:"errors"`
	Solution []model.Allocation `json:"solution"`
}

func failure(issues ...model.Issue) Outcome {
	return Outcome{Success: false, Issues: issues, Solution: []model.Allocation{}}
}

// InvariantViolationError signals a defective run: an established allocation was altered or the
// solution does not pass the constraint checker
type InvariantViolationError struct {
	Algorithm Algorithm
	Reason    string
	Issues    []model.Issue
}

func (err *InvariantViolationError) Error() string {
	if len(err.Issues) == 0 {
		return fmt.Sprintf("solver has a bug: %v (method=%v)", err.Reason, err.Algorithm)
	}
	messages := lo.Map(err.Issues, func(issue model.Issue, _ int) string { return issue.Message })
	return fmt.Sprintf("solver has a bug: %v (method=%v): %v", err.Reason, err.Algorithm, strings.Join(messages, "; "))
}

//** Options

// Observer is notified once per run. err is non-nil only for invariant violations.
type Observer func(algorithm Algorithm, outcome Outcome, err error, elapsed time.Duration)

type settings struct {
	random   *rand.Rand
	logger   *zap.Logger
	rate     RatingFunction
	observer Observer
}

type Option func(*settings)

func WithRand(random *rand.Rand) Option {
	return func(settings *settings) { settings.random = random }
}

func WithLogger(logger *zap.Logger) Option {
	return func(settings *settings) { settings.logger = logger }
}

// WithRatingFunction replaces the default scoring used by Rating
func WithRatingFunction(rate RatingFunction) Option {
	return func(settings *settings) { settings.rate = rate }
}

func WithObserver(observer Observer) Option {
	return func(settings *settings) { settings.observer = observer }
}

func newSettings(options []Option) settings {
	settings := settings{}
	for _, option := range options {
		option(&settings)
	}
	if settings.random == nil {
		settings.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if settings.logger == nil {
		settings.logger = zap.NewNop()
	}
	if settings.rate == nil {
		settings.rate = Rate
	}
	return settings
}

//** Solving

// strategy holds the ordering and selection policies of an algorithm
type strategy interface {
	// Returns the groups to place in the order they are attempted
	order(problem *model.Problem, groupIds []uint64) ([]uint64, error)
	// Returns the remaining groups, possibly reordered, after a booking
	reorder(problem *model.Problem, remaining []uint64) ([]uint64, error)
	// Selects one allocation out of a non-empty list of placements
	choose(problem *model.Problem, placements []model.Placement) (model.Allocation, bool)
}

// Solve places every unallocated group of the problem, keeping the allocations already registered.
// The problem is never mutated: the run works on a deep copy and the solution is returned in the
// Outcome. Infeasibility and invalid established allocations yield a failed Outcome; a nil error
// accompanies every Outcome except for *InvariantViolationError and unknown algorithms.
func Solve(problem *model.Problem, algorithm Algorithm, options ...Option) (Outcome, error) {
	newStrategy, ok := strategies[algorithm]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown algorithm %v", algorithm)
	}
	settings := newSettings(options)

	started := time.Now()
	outcome, err := solve(problem, algorithm, newStrategy(settings), settings.logger.With(zap.Stringer("algorithm", algorithm)))
	if settings.observer != nil {
		settings.observer(algorithm, outcome, err, time.Since(started))
	}
	return outcome, err
}

func solve(problem *model.Problem, algorithm Algorithm, strategy strategy, logger *zap.Logger) (Outcome, error) {
	logger.Debug("solving started", zap.Stringer("problem", problem))

	//** Reject invalid established allocations
	if issues := problem.Precheck(); len(issues) > 0 {
		logger.Info("established allocations rejected", zap.Int("issues", len(issues)))
		return failure(lo.Map(issues, func(issue model.Issue, _ int) model.Issue {
			issue.Message = "Given allocations do not satisfy constraints: " + issue.Message
			return issue
		})...), nil
	}

	//** Book established allocations on an owned copy
	working := problem.Clone()
	established := working.ClearAllocations()
	for _, allocation := range established {
		if err := working.Book(allocation); err != nil {
			violation := &InvariantViolationError{Algorithm: algorithm, Reason: fmt.Sprintf("established allocation could not be booked: %v", err)}
			logger.Error("invariant violated", zap.Error(violation))
			return Outcome{}, violation
		}
	}
	logger.Debug("established allocations booked", zap.Int("allocations", len(established)))

	//** Place remaining groups
	allocated := working.AllocatedGroupIds()
	remaining := lo.Filter(working.GroupIds(), func(groupId uint64, _ int) bool { return !allocated[groupId] })
	remaining, err := strategy.order(working, remaining)
	if err != nil {
		return failure(model.NewIssue(model.IssueSolver, 0, "Unexpected error while looking for solution: %v", err)), nil
	}

	for len(remaining) > 0 {
		groupId := remaining[0]
		remaining = remaining[1:]

		placements, err := working.Placements(groupId)
		if err != nil {
			return failure(model.NewIssue(model.IssueSolver, groupId, "Unexpected error while looking for solution: %v", err)), nil
		}
		if len(placements) == 0 {
			logger.Info("group cannot be placed", zap.Uint64("group", groupId))
			return failure(model.NewIssue(model.IssueGroup, groupId, "Could not find placement for group with id=%v (%v)", groupId, algorithm)), nil
		}

		allocation, ok := strategy.choose(working, placements)
		if !ok {
			return failure(model.NewIssue(model.IssueSolver, groupId, "Unexpected error while looking for solution: no allocation selected for group with id=%v", groupId)), nil
		}
		if err := working.Book(allocation); err != nil {
			logger.Warn("booking failed", zap.Uint64("group", groupId), zap.Error(err))
			return failure(model.NewIssue(model.IssueSolver, groupId, "Unexpected error while looking for solution: %v", err)), nil
		}

		if remaining, err = strategy.reorder(working, remaining); err != nil {
			return failure(model.NewIssue(model.IssueSolver, 0, "Unexpected error while looking for solution: %v", err)), nil
		}
	}

	solution := lo.Map(working.Allocations, func(allocation model.Allocation, _ int) model.Allocation { return allocation.Clone() })

	//** Post-run invariants
	if err := verify(problem, solution, algorithm); err != nil {
		logger.Error("invariant violated", zap.Error(err))
		return Outcome{}, err
	}

	logger.Debug("solving finished", zap.Int("allocations", len(solution)))
	return Outcome{Success: true, Issues: []model.Issue{}, Solution: solution}, nil
}

// verify checks the solution against the problem it was computed for
func verify(problem *model.Problem, solution []model.Allocation, algorithm Algorithm) error {
	for _, allocation := range problem.Allocations {
		if !lo.ContainsBy(solution, allocation.Equal) {
			return &InvariantViolationError{Algorithm: algorithm, Reason: fmt.Sprintf("established %v was affected while looking for a solution", allocation)}
		}
	}

	installed := problem.Clone()
	installed.SetAllocations(solution)
	if issues := installed.Check(model.Full); len(issues) > 0 {
		return &InvariantViolationError{Algorithm: algorithm, Reason: "solution does not pass the constraint checker", Issues: issues}
	}
	return nil
}
