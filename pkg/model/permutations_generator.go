package model

import "slices"

// MaxBudgetPermutations bounds how many budget orderings a single cluster probe may try
const MaxBudgetPermutations = 40320

type permutationGenerator interface {
	// Calls visit with every distinct ordering of the multiset, at most limit times, stopping early
	// when visit returns true. Returns whether some visit returned true.
	//
	// Example:
	//
	//	generator := newPermutationGenerator()
	//	found := generator.Permutations([]uint64{2, 4, 2}, MaxBudgetPermutations, func(permutation []uint64) bool {
	//		return permutation[0] == 4
	//	})
	//
	// The slice handed to visit is reused between calls; copy it to keep it.
	Permutations(multiset []uint64, limit int, visit func(permutation []uint64) bool) bool
}

func newPermutationGenerator() permutationGenerator {
	return &lexicographicGenerator{}
}

type lexicographicGenerator struct{}

func (generator *lexicographicGenerator) Permutations(multiset []uint64, limit int, visit func(permutation []uint64) bool) bool {
	permutation := slices.Clone(multiset)
	slices.Sort(permutation)

	for visited := 0; visited < limit; visited++ {
		if visit(permutation) {
			return true
		}
		if !nextPermutation(permutation) {
			return false
		}
	}
	return false
}

// nextPermutation rearranges values into the lexicographically next ordering. Equal values are never
// swapped with each other, so multisets yield each distinct ordering once.
func nextPermutation(values []uint64) bool {
	pivot := len(values) - 2
	for pivot >= 0 && values[pivot] >= values[pivot+1] {
		pivot--
	}
	if pivot < 0 {
		return false
	}

	successor := len(values) - 1
	for values[successor] <= values[pivot] {
		successor--
	}
	values[pivot], values[successor] = values[successor], values[pivot]
	slices.Reverse(values[pivot+1:])
	return true
}
