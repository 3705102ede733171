package model

import (
	"slices"

	"github.com/samber/lo"
)

type Cluster struct {
	Id       uint64
	Range    []uint64 // Block-length budgets
	GroupIds []uint64

	allocations []Allocation // Allocations of member groups currently in force
}

func NewCluster(id uint64, budgets, groupIds []uint64) *Cluster {
	return &Cluster{
		Id:       id,
		Range:    slices.Clone(budgets),
		GroupIds: slices.Clone(groupIds),
	}
}

func (cluster *Cluster) Governs(groupId uint64) bool {
	return slices.Contains(cluster.GroupIds, groupId)
}

// Sessions returns the sessions of the attached allocations
func (cluster *Cluster) Sessions() []Session {
	return lo.Map(cluster.allocations, func(allocation Allocation, _ int) Session {
		start, length, _ := allocation.Span()
		return Session{Day: allocation.Day, Slot: start, Duration: length}
	})
}

// CanUse probes whether one more session keeps the cluster satisfiable
func (cluster *Cluster) CanUse(day, start, duration uint64) bool {
	sessions := append(cluster.Sessions(), Session{Day: day, Slot: start, Duration: duration})
	return IsClusterSatisfied(cluster.Range, sessions)
}

func (cluster *Cluster) Satisfied() bool {
	return IsClusterSatisfied(cluster.Range, cluster.Sessions())
}

func (cluster *Cluster) attach(allocation Allocation) {
	if cluster.Governs(allocation.GroupId) {
		cluster.allocations = append(cluster.allocations, allocation.Clone())
	}
}

func (cluster *Cluster) detachAll() {
	cluster.allocations = nil
}

func (cluster *Cluster) clone() *Cluster {
	return &Cluster{
		Id:          cluster.Id,
		Range:       slices.Clone(cluster.Range),
		GroupIds:    slices.Clone(cluster.GroupIds),
		allocations: lo.Map(cluster.allocations, func(allocation Allocation, _ int) Allocation { return allocation.Clone() }),
	}
}
