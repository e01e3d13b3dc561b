package scene

import "sort"

// Scene is the display list: the nodes currently on screen, in insertion order.
type Scene struct {
	nodes []*Node
	set   map[*Node]struct{}
}

func New() *Scene {
	return &Scene{set: make(map[*Node]struct{})}
}

// Add puts the leaves of every object on screen. Leaves already shown keep their place.
func (s *Scene) Add(ms ...Mobject) {
	for _, m := range ms {
		for _, n := range m.Leaves() {
			if _, ok := s.set[n]; ok {
				continue
			}
			s.set[n] = struct{}{}
			s.nodes = append(s.nodes, n)
		}
	}
}

// Remove takes the leaves of every object off screen.
func (s *Scene) Remove(ms ...Mobject) {
	drop := make(map[*Node]struct{})
	for _, m := range ms {
		for _, n := range m.Leaves() {
			if _, ok := s.set[n]; ok {
				drop[n] = struct{}{}
				delete(s.set, n)
			}
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if _, ok := drop[n]; !ok {
			kept = append(kept, n)
		}
	}
	s.nodes = kept
}

// Contains reports whether every leaf of m is on screen.
func (s *Scene) Contains(m Mobject) bool {
	leaves := m.Leaves()
	if len(leaves) == 0 {
		return false
	}
	for _, n := range leaves {
		if _, ok := s.set[n]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of nodes on screen.
func (s *Scene) Len() int { return len(s.nodes) }

// Nodes returns the nodes in drawing order: by Z, then by insertion.
func (s *Scene) Nodes() []*Node {
	out := append([]*Node(nil), s.nodes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Z < out[j].Z })
	return out
}
