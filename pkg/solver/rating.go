package solver

import (
	"math/rand"

	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/samber/lo"
)

// RatingFunction scores a candidate allocation against the problem state; higher is better
type RatingFunction func(allocation model.Allocation, problem *model.Problem) int

// Scores within this distance of the best one are considered equally good
const ratingTolerance = 2

type ratingStrategy struct {
	random *rand.Rand
	rate   RatingFunction
}

func newRatingStrategy(settings settings) strategy {
	return &ratingStrategy{random: settings.random, rate: settings.rate}
}

func (strategy *ratingStrategy) order(problem *model.Problem, groupIds []uint64) ([]uint64, error) {
	return byScarcity(problem, groupIds, false)
}

func (strategy *ratingStrategy) reorder(_ *model.Problem, remaining []uint64) ([]uint64, error) {
	return remaining, nil
}

func (strategy *ratingStrategy) choose(problem *model.Problem, placements []model.Placement) (model.Allocation, bool) {
	allocations := expand(placements)
	if len(allocations) == 0 {
		return model.Allocation{}, false
	}

	scores := lo.Map(allocations, func(allocation model.Allocation, _ int) int { return strategy.rate(allocation, problem) })
	best := lo.Max(scores)
	candidates := lo.Filter(allocations, func(_ model.Allocation, index int) bool {
		return scores[index] >= best-ratingTolerance
	})
	return pickUniformly(strategy.random, candidates)
}

// Rate is the default rating function. It rewards:
//   - rooms that fit the group tightly
//   - teachers without classes on the allocation's day
//   - keeping days 1 and 5 free for teachers not yet teaching on them
//   - even start slots
//   - start slots between 10 and 17
func Rate(allocation model.Allocation, problem *model.Problem) int {
	group, ok := problem.Groups[allocation.GroupId]
	if !ok {
		return 0
	}
	score := 0

	//** Room fit
	for _, roomId := range allocation.RoomIds {
		room, ok := problem.Rooms[roomId]
		if !ok || room.Capacity < group.Capacity {
			continue
		}
		freeSeats := room.Capacity - group.Capacity
		if freeSeats <= 10 {
			score += 2
		} else if freeSeats < 20 {
			score += 1
		}
	}

	//** Teacher load
	for _, teacherId := range lo.Uniq(group.TeacherIds) {
		days := teachingDays(problem, teacherId)
		if !days[allocation.Day] {
			score += 2
		}
		if !days[1] && allocation.Day != 1 {
			score += 2
		}
		if !days[5] && allocation.Day != 5 {
			score += 2
		}
	}

	//** Start time
	start := allocation.Start()
	if start%2 == 0 {
		score += 5
	}
	if start >= 10 && start <= 17 {
		score += 2
	}

	return score
}

// teachingDays returns the days on which the teacher already has an allocation
func teachingDays(problem *model.Problem, teacherId uint64) map[uint64]bool {
	days := make(map[uint64]bool)
	for _, allocation := range problem.Allocations {
		if group, ok := problem.Groups[allocation.GroupId]; ok && group.HasTeacher(teacherId) {
			days[allocation.Day] = true
		}
	}
	return days
}
