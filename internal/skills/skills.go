// Package skills canonicalizes skill names for comparison.
package skills

import "strings"

// Normalize lower-cases and trims a skill name. Empty input yields an empty string.
func Normalize(name string) string {
	return strings.TrimSpace(strings.ToLower(name))
}

// Set is an insertion-ordered collection of distinct normalized skill names.
type Set struct {
	names []string
	index map[string]struct{}
}

// NewSet builds a set from raw names, dropping blanks and duplicates.
func NewSet(names ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add normalizes name and appends it unless it is blank or already present.
// It reports whether the set changed.
func (s *Set) Add(name string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}

	key := Normalize(name)
	if key == "" {
		return false
	}
	if _, ok := s.index[key]; ok {
		return false
	}

	s.index[key] = struct{}{}
	s.names = append(s.names, key)
	return true
}

func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[Normalize(name)]
	return ok
}

// Names returns the normalized names in insertion order. The slice is a copy.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}
