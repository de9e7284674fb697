// Package density maps joint states onto sub-lattice coordinates and builds
// reduced density matrices by partial trace, together with the diagnostics
// used to judge thermalization.
package density

import (
	"fmt"

	"github.com/patrikhermansson/thermal/core"
	"github.com/patrikhermansson/thermal/lattice"
)

// Label locates a joint state in the block structure of the reduced density matrices.
type Label struct {
	A int // value of the A pattern counter of class N when the state is visited
	N int // number of particles on sub-lattice A
	B int // 1-based index of the B occupation pattern, cycling per N class
}

// Table holds one label per state, in state space order.
type Table []Label

// Relabel assigns every state of the joint space its (A, N, B) label.
// sizeB is the number of sites of sub-lattice B and labelsA the site labels of sub-lattice A.
//
// A counts distinct A patterns per class N and increments only on the first sight
// of a pattern; every state is labelled with the counter's current value. B counts
// states per class N and restarts after C(sizeB, particles-N) states, one full
// cycle of B patterns. The labels address distinct cells only when the A patterns
// of each class appear contiguously, which holds when A carries the smallest labels.
func Relabel(space *lattice.StateSpace, particles, sizeB int, labelsA []int) Table {
	inA := make(map[int]struct{}, len(labelsA))
	for _, label := range labelsA {
		inA[label] = struct{}{}
	}

	countA := make([]int, particles+1)
	countB := make([]int, particles+1)
	seen := make(map[string]struct{})
	table := make(Table, space.Len())

	comm := make([]int, 0, particles)
	for i := range table {
		comm = comm[:0]
		for _, label := range space.State(i) {
			if _, ok := inA[label]; ok {
				comm = append(comm, label)
			}
		}
		n := len(comm)

		countB[n]++
		key := fmt.Sprint(comm)
		if _, ok := seen[key]; !ok {
			countA[n]++
			seen[key] = struct{}{}
		}
		table[i] = Label{A: countA[n], N: n, B: countB[n]}

		if countB[n] == core.NCr(sizeB, particles-n) {
			countB[n] = 0
		}
	}
	return table
}
