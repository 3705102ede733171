package model

import (
	"fmt"
	"maps"
	"slices"

	"github.com/samber/lo"
)

const (
	FirstDay uint64 = 1
	LastDay  uint64 = 7
)

var Days = []uint64{1, 2, 3, 4, 5, 6, 7}

// Availability records, per day, the open slots of an entity plus an overlay of periods already
// claimed on each (day, slot). A slot with an empty overlay is fully open.
type Availability struct {
	slots        map[uint64][]uint64    // Sorted and duplicate-free per day
	takenPeriods map[[2]uint64][]uint64 // (day, slot) -> claimed periods
}

func NewAvailability(slots map[uint64][]uint64) (Availability, error) {
	availability := Availability{
		slots:        make(map[uint64][]uint64),
		takenPeriods: make(map[[2]uint64][]uint64),
	}

	for day, daySlots := range slots {
		if day < FirstDay || day > LastDay {
			return Availability{}, fmt.Errorf("invalid day %v in availability: days must be between %v and %v", day, FirstDay, LastDay)
		}
		if len(daySlots) == 0 {
			continue
		}
		sorted := slices.Clone(daySlots)
		slices.Sort(sorted)
		availability.slots[day] = slices.Compact(sorted)
	}

	return availability, nil
}

// MustAvailability is NewAvailability for literals known to be valid.
func MustAvailability(slots map[uint64][]uint64) Availability {
	return lo.Must(NewAvailability(slots))
}

// WithTakenPeriods seeds the overlay. Entries for slots that are not present are ignored.
func (availability Availability) WithTakenPeriods(taken map[[2]uint64][]uint64) Availability {
	result := availability.Clone()
	for key, periods := range taken {
		if len(periods) == 0 || !result.Has(key[0], key[1]) {
			continue
		}
		result.takenPeriods[key] = append(result.takenPeriods[key], periods...)
	}
	return result
}

func (availability *Availability) Has(day, slot uint64) bool {
	_, found := slices.BinarySearch(availability.slots[day], slot)
	return found
}

// Covers checks whether the contiguous range [start, start+duration) is open on the day.
func (availability *Availability) Covers(day, start, duration uint64) bool {
	for slot := start; slot < start+duration; slot++ {
		if !availability.Has(day, slot) {
			return false
		}
	}
	return true
}

// Free checks whether the slot is open and the mask can still be claimed on it.
func (availability *Availability) Free(day, slot uint64, mask []uint64) bool {
	return availability.Has(day, slot) && !PeriodsConflict(mask, availability.Taken(day, slot))
}

// FreeRange is Free over the contiguous range [start, start+duration).
func (availability *Availability) FreeRange(day, start, duration uint64, mask []uint64) bool {
	for slot := start; slot < start+duration; slot++ {
		if !availability.Free(day, slot, mask) {
			return false
		}
	}
	return true
}

func (availability *Availability) Taken(day, slot uint64) []uint64 {
	return availability.takenPeriods[[2]uint64{day, slot}]
}

// Slots returns the open slots of a day. The returned slice must not be modified.
func (availability *Availability) Slots(day uint64) []uint64 {
	return availability.slots[day]
}

// Days returns, in ascending order, the days having at least one open slot.
func (availability *Availability) Days() []uint64 {
	days := lo.Filter(lo.Keys(availability.slots), func(day uint64, _ int) bool {
		return len(availability.slots[day]) > 0
	})
	slices.Sort(days)
	return days
}

// Remove books a slot for the given mask. An empty mask claims every occurrence, so the slot is
// deleted; a non-empty mask is appended to the overlay and the slot stays open for other periods.
// Nothing is mutated when the slot is absent or the mask conflicts with the overlay.
func (availability *Availability) Remove(day, slot uint64, mask []uint64) bool {
	index, found := slices.BinarySearch(availability.slots[day], slot)
	if !found {
		return false
	}

	key := [2]uint64{day, slot}
	if PeriodsConflict(mask, availability.takenPeriods[key]) {
		return false
	}

	if len(mask) == 0 {
		availability.slots[day] = slices.Delete(availability.slots[day], index, index+1)
		delete(availability.takenPeriods, key)
		return true
	}

	if availability.takenPeriods == nil {
		availability.takenPeriods = make(map[[2]uint64][]uint64)
	}
	availability.takenPeriods[key] = append(availability.takenPeriods[key], mask...)
	return true
}

func (availability Availability) Clone() Availability {
	clone := Availability{
		slots:        make(map[uint64][]uint64, len(availability.slots)),
		takenPeriods: make(map[[2]uint64][]uint64, len(availability.takenPeriods)),
	}
	for day, slots := range availability.slots {
		clone.slots[day] = slices.Clone(slots)
	}
	for key, periods := range availability.takenPeriods {
		clone.takenPeriods[key] = slices.Clone(periods)
	}
	return clone
}

// Equal compares open slots and overlays. Overlays are compared as multisets.
func (availability *Availability) Equal(other *Availability) bool {
	if !maps.EqualFunc(nonEmpty(availability.slots), nonEmpty(other.slots), slices.Equal[[]uint64]) {
		return false
	}
	return maps.EqualFunc(nonEmpty(availability.takenPeriods), nonEmpty(other.takenPeriods), func(a, b []uint64) bool {
		a, b = slices.Clone(a), slices.Clone(b)
		slices.Sort(a)
		slices.Sort(b)
		return slices.Equal(a, b)
	})
}

func nonEmpty[K comparable](entries map[K][]uint64) map[K][]uint64 {
	return lo.PickBy(entries, func(_ K, value []uint64) bool { return len(value) > 0 })
}

// PeriodsConflict reports whether a requested mask collides with the periods already taken.
// An empty mask claims every occurrence and therefore collides with any specific claim.
func PeriodsConflict(mask, taken []uint64) bool {
	if len(mask) == 0 {
		return len(taken) != 0
	}
	if len(taken) == 0 {
		return false
	}
	return lo.SomeBy(taken, func(period uint64) bool { return slices.Contains(mask, period) })
}

// OccurrencesOverlap reports whether two bookings target a common occurrence. Unlike
// PeriodsConflict, two empty descriptors overlap, since both claim every occurrence.
func OccurrencesOverlap(occurrence1, occurrence2 []uint64) bool {
	if len(occurrence1) == 0 || len(occurrence2) == 0 {
		return true
	}
	return lo.SomeBy(occurrence1, func(period uint64) bool { return slices.Contains(occurrence2, period) })
}
