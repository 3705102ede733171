package model

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

type Group struct {
	Id           uint64
	Duration     uint64
	Capacity     uint64
	Availability Availability
	Labels       [][][]string // One DNF requirement per room the group needs
	TeacherIds   []uint64
	Occurrence   []uint64 // Periods the sessions claim; empty means every occurrence
}

func NewGroup(id, duration, capacity uint64, availability Availability, labels [][][]string, teacherIds, occurrence []uint64) (*Group, error) {
	if duration == 0 {
		return nil, fmt.Errorf("group with id=%v must have a positive duration", id)
	}
	if !validLabels(labels) {
		return nil, fmt.Errorf("labels %v passed to the group with id=%v have incorrect format: every requirement must hold at least one non-empty conjunction", labels, id)
	}

	return &Group{
		Id:           id,
		Duration:     duration,
		Capacity:     capacity,
		Availability: availability,
		Labels:       cloneLabels(labels),
		TeacherIds:   slices.Clone(teacherIds),
		Occurrence:   slices.Clone(occurrence),
	}, nil
}

// MustGroup is NewGroup for literals known to be valid.
func MustGroup(id, duration, capacity uint64, availability Availability, labels [][][]string, teacherIds, occurrence []uint64) *Group {
	return lo.Must(NewGroup(id, duration, capacity, availability, labels, teacherIds, occurrence))
}

// NeedsRooms reports whether placements of the group must select rooms at all
func (group *Group) NeedsRooms() bool {
	return len(group.Labels) > 0
}

func (group *Group) HasTeacher(teacherId uint64) bool {
	return slices.Contains(group.TeacherIds, teacherId)
}

func (group *Group) clone() *Group {
	return &Group{
		Id:           group.Id,
		Duration:     group.Duration,
		Capacity:     group.Capacity,
		Availability: group.Availability.Clone(),
		Labels:       cloneLabels(group.Labels),
		TeacherIds:   slices.Clone(group.TeacherIds),
		Occurrence:   slices.Clone(group.Occurrence),
	}
}

func validLabels(labels [][][]string) bool {
	return lo.EveryBy(labels, func(requirement [][]string) bool {
		return len(requirement) > 0 && lo.EveryBy(requirement, func(conjunction []string) bool {
			return len(conjunction) > 0
		})
	})
}

func cloneLabels(labels [][][]string) [][][]string {
	return lo.Map(labels, func(requirement [][]string, _ int) [][]string {
		return lo.Map(requirement, func(conjunction []string, _ int) []string {
			return slices.Clone(conjunction)
		})
	})
}
