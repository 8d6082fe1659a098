// Package sparse implements the Briggs–Torczon sparse set.
//
// A Set holds unsigned integers below a fixed capacity with O(1) Add,
// Contains and Reset, and an optional uint32 payload per member. The index
// builder uses the payload to point at a per-trigram posting buffer.
package sparse

import "fmt"

// Item is one member of a Set.
type Item struct {
	Value uint32
	Data  uint32
}

// Set is a sparse set bounded by its capacity. It is not safe for
// concurrent use.
type Set struct {
	dense  []Item
	sparse []uint32
}

// New returns an empty set accepting values in [0, capacity).
func New(capacity int) *Set {
	if capacity <= 0 {
		panic(fmt.Sprintf("sparse: invalid capacity %d", capacity))
	}
	return &Set{
		sparse: make([]uint32, capacity),
	}
}

// Cap returns the exclusive upper bound for values.
func (s *Set) Cap() int { return len(s.sparse) }

// Len returns the number of members.
func (s *Set) Len() int { return len(s.dense) }

func (s *Set) check(v uint32) {
	if int(v) >= len(s.sparse) {
		panic(fmt.Sprintf("sparse: value %d out of range [0,%d)", v, len(s.sparse)))
	}
}

func (s *Set) index(v uint32) (int, bool) {
	s.check(v)
	i := s.sparse[v]
	if int(i) < len(s.dense) && s.dense[i].Value == v {
		return int(i), true
	}
	return 0, false
}

// Add inserts v. It reports false if v was already present.
func (s *Set) Add(v uint32) bool {
	return s.AddWithData(v, 0)
}

// AddWithData inserts v with a payload. An existing member keeps its payload
// and false is returned.
func (s *Set) AddWithData(v, data uint32) bool {
	if _, ok := s.index(v); ok {
		return false
	}
	s.sparse[v] = uint32(len(s.dense))
	s.dense = append(s.dense, Item{Value: v, Data: data})
	return true
}

// Get returns the payload stored for v.
func (s *Set) Get(v uint32) (uint32, bool) {
	i, ok := s.index(v)
	if !ok {
		return 0, false
	}
	return s.dense[i].Data, true
}

// Contains reports whether v is a member.
func (s *Set) Contains(v uint32) bool {
	_, ok := s.index(v)
	return ok
}

// Reset removes every member in O(1).
func (s *Set) Reset() {
	s.dense = s.dense[:0]
}

// At returns the i-th member in insertion order.
func (s *Set) At(i int) Item { return s.dense[i] }

// Items exposes the members in insertion order. The slice is only valid
// until the next mutation.
func (s *Set) Items() []Item { return s.dense }

// Values returns a copy of the member values in insertion order.
func (s *Set) Values() []uint32 {
	out := make([]uint32, len(s.dense))
	for i, it := range s.dense {
		out[i] = it.Value
	}
	return out
}
