package model

// WeekStride separates consecutive days on the slot-of-week timeline. It is far larger than any
// slot index, so ranges projected from different days can never touch.
const WeekStride uint64 = 1 << 20

// indexer projects (day, slot) pairs onto a single ascending slot-of-week timeline and back
type indexer interface {
	// Returns the slot-of-week index of a (day, slot) pair
	Index(day, slot uint64) uint64
	// Returns the (day, slot) pair of a slot-of-week index
	Attributes(index uint64) (day uint64, slot uint64)
}

func newIndexer() indexer {
	return &weekIndexer{stride: WeekStride}
}

type weekIndexer struct {
	stride uint64
}

func (indexer *weekIndexer) Index(day, slot uint64) uint64 {
	return (day-FirstDay)*indexer.stride + slot
}

func (indexer *weekIndexer) Attributes(index uint64) (day, slot uint64) {
	return index/indexer.stride + FirstDay, index % indexer.stride
}
