package model

import (
	"fmt"
	"slices"
)

type Allocation struct {
	GroupId uint64   `json:"group_id"`
	RoomIds []uint64 `json:"room_ids"`
	Day     uint64   `json:"day"`
	Slots   []uint64 `json:"slots"`
}

func NewAllocation(groupId uint64, roomIds []uint64, day uint64, slots []uint64) (Allocation, error) {
	if day < FirstDay || day > LastDay {
		return Allocation{}, fmt.Errorf("field 'day' value in allocation must be between %v and %v: sent %v", FirstDay, LastDay, day)
	}
	return Allocation{
		GroupId: groupId,
		RoomIds: slices.Clone(roomIds),
		Day:     day,
		Slots:   slices.Clone(slots),
	}, nil
}

// Span returns the first slot and the number of slots of the allocation, together with whether the
// slot set is a contiguous range.
func (allocation Allocation) Span() (start, length uint64, contiguous bool) {
	if len(allocation.Slots) == 0 {
		return 0, 0, false
	}
	sorted := slices.Clone(allocation.Slots)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return sorted[0], uint64(len(sorted)), false
		}
	}
	return sorted[0], uint64(len(sorted)), true
}

// Start returns the smallest occupied slot
func (allocation Allocation) Start() uint64 {
	start, _, _ := allocation.Span()
	return start
}

// Overlaps reports whether both allocations occupy a common slot of the same day
func (allocation Allocation) Overlaps(other Allocation) bool {
	if allocation.Day != other.Day {
		return false
	}
	for _, slot := range allocation.Slots {
		if slices.Contains(other.Slots, slot) {
			return true
		}
	}
	return false
}

func (allocation Allocation) Equal(other Allocation) bool {
	return allocation.GroupId == other.GroupId &&
		allocation.Day == other.Day &&
		slices.Equal(allocation.RoomIds, other.RoomIds) &&
		slices.Equal(allocation.Slots, other.Slots)
}

func (allocation Allocation) Clone() Allocation {
	return Allocation{
		GroupId: allocation.GroupId,
		RoomIds: slices.Clone(allocation.RoomIds),
		Day:     allocation.Day,
		Slots:   slices.Clone(allocation.Slots),
	}
}

func (allocation Allocation) String() string {
	return fmt.Sprintf("Allocation(group_id=%v, room_ids=%v, day=%v, slots=%v)", allocation.GroupId, allocation.RoomIds, allocation.Day, allocation.Slots)
}

func contiguousSlots(start, duration uint64) []uint64 {
	slots := make([]uint64, 0, duration)
	for slot := start; slot < start+duration; slot++ {
		slots = append(slots, slot)
	}
	return slots
}
