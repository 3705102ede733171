package model

import (
	"slices"

	"github.com/samber/lo"
)

type Room struct {
	Id           uint64
	Capacity     uint64
	Availability Availability
	Labels       []string
}

func NewRoom(id, capacity uint64, availability Availability, labels []string) *Room {
	return &Room{
		Id:           id,
		Capacity:     capacity,
		Availability: availability,
		Labels:       slices.Clone(labels),
	}
}

func (room *Room) Book(day, slot uint64, mask []uint64) bool {
	return room.Availability.Remove(day, slot, mask)
}

// SatisfiesLabels checks a disjunction of conjunctions: the room must hold every tag of at least one conjunction.
func (room *Room) SatisfiesLabels(conjunctions [][]string) bool {
	return lo.SomeBy(conjunctions, func(conjunction []string) bool {
		return lo.Every(room.Labels, conjunction)
	})
}

// Fits checks whether a group of the given size fits in the room
func (room *Room) Fits(capacity uint64) bool {
	return room.Capacity >= capacity
}

func (room *Room) clone() *Room {
	return &Room{
		Id:           room.Id,
		Capacity:     room.Capacity,
		Availability: room.Availability.Clone(),
		Labels:       slices.Clone(room.Labels),
	}
}
