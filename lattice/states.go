package lattice

import (
	"fmt"
	"sync"

	"github.com/patrikhermansson/thermal/core"
	"github.com/rs/zerolog/log"
)

// State is one occupation configuration: strictly increasing site labels.
type State []int

// StateSpace holds all states of a fixed particle number in lexicographic order.
// States are stored row by row in one flat slice.
type StateSpace struct {
	particles int
	data      []int
	sums      []int
	indexOnce sync.Once
	index     map[string]int
}

// States enumerates every combination of particles distinct sites of the lattice.
// Zero particles give a single empty state.
func (l *Lattice) States(particles int) (*StateSpace, error) {
	n := len(l.sites)
	if particles < 0 || particles > n {
		return nil, fmt.Errorf("%w: %d particles on %d sites", ErrParticles, particles, n)
	}

	nos := core.NCr(n, particles)
	space := &StateSpace{
		particles: particles,
		data:      make([]int, 0, nos*particles),
		sums:      make([]int, 0, nos),
	}

	// idx walks the combinations of site indices in lexicographic order.
	idx := make([]int, particles)
	for i := range idx {
		idx[i] = i
	}
	for {
		sum := 0
		for _, k := range idx {
			space.data = append(space.data, l.sites[k])
			sum += l.sites[k]
		}
		space.sums = append(space.sums, sum)

		i := particles - 1
		for i >= 0 && idx[i] == n-particles+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < particles; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	log.Debug().Msgf("Enumerated %d states of %d particles on %d sites", space.Len(), particles, n)
	return space, nil
}

// Enumerate builds the lattice and its state space in one call.
// It returns the state space together with its size.
func Enumerate(size, particles int, deletePositions []int) (*StateSpace, int, error) {
	lat, err := New(size, deletePositions)
	if err != nil {
		return nil, 0, err
	}
	space, err := lat.States(particles)
	if err != nil {
		return nil, 0, err
	}
	return space, space.Len(), nil
}

// Len returns the number of states.
func (s *StateSpace) Len() int { return len(s.sums) }

// Particles returns the number of particles per state.
func (s *StateSpace) Particles() int { return s.particles }

// State returns state i. The slice aliases internal storage and must not be modified.
func (s *StateSpace) State(i int) State {
	return State(s.data[i*s.particles : (i+1)*s.particles : (i+1)*s.particles])
}

// Sum returns the sum of the labels of state i.
func (s *StateSpace) Sum(i int) int { return s.sums[i] }

// Index returns the position of the given state, or -1 if it is not part of the space.
// The lookup table is built on first use.
func (s *StateSpace) Index(state State) int {
	s.indexOnce.Do(func() {
		s.index = make(map[string]int, s.Len())
		for i := 0; i < s.Len(); i++ {
			s.index[s.State(i).key()] = i
		}
	})
	if i, ok := s.index[state.key()]; ok {
		return i
	}
	return -1
}

// Common returns the number and the label sum of sites occupied in both states.
// Both states must be strictly increasing.
func Common(a, b State) (count, sum int) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			count++
			sum += a[i]
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return count, sum
}

// key encodes the state for map lookups.
func (s State) key() string {
	return fmt.Sprint([]int(s))
}
