package branch

import (
	"strings"
	"time"
)

// Set is an immutable snapshot of fully-scheduled branches in canonical order.
type Set struct {
	all    []Branch
	byName map[string]Branch
}

// NewSet builds a snapshot from branches given in canonical order.
func NewSet(branches ...Branch) *Set {
	s := &Set{all: append([]Branch(nil), branches...), byName: make(map[string]Branch, len(branches))}
	for _, b := range branches {
		s.byName[Name(b)] = b
	}
	return s
}

// All returns every branch in canonical order.
func (s *Set) All() []Branch { return append([]Branch(nil), s.all...) }

// Order returns branch names in canonical order.
func (s *Set) Order() []string {
	out := make([]string, len(s.all))
	for i, b := range s.all {
		out[i] = Name(b)
	}
	return out
}

// Get finds a branch by exact name.
func (s *Set) Get(name string) (Branch, bool) {
	b, ok := s.byName[name]
	return b, ok
}

// Find finds a branch by case-insensitive name, as used in URL paths.
func (s *Set) Find(name string) (Branch, bool) {
	if b, ok := s.byName[name]; ok {
		return b, true
	}
	for _, b := range s.all {
		if strings.EqualFold(Name(b), name) {
			return b, true
		}
	}
	return nil, false
}

// Application finds an application branch by exact name.
func (s *Set) Application(name string) (*ApplicationBranch, bool) {
	b, ok := s.byName[name].(*ApplicationBranch)
	return b, ok
}

// Confirmation finds a confirmation branch by exact name.
func (s *Set) Confirmation(name string) (*ConfirmationBranch, bool) {
	b, ok := s.byName[name].(*ConfirmationBranch)
	return b, ok
}

// Applications returns the application branches in canonical order.
func (s *Set) Applications() []*ApplicationBranch {
	var out []*ApplicationBranch
	for _, b := range s.all {
		if v, ok := b.(*ApplicationBranch); ok {
			out = append(out, v)
		}
	}
	return out
}

// Confirmations returns the confirmation branches in canonical order.
func (s *Set) Confirmations() []*ConfirmationBranch {
	var out []*ConfirmationBranch
	for _, b := range s.all {
		if v, ok := b.(*ConfirmationBranch); ok {
			out = append(out, v)
		}
	}
	return out
}

// Noops returns the noop branches in canonical order.
func (s *Set) Noops() []*NoopBranch {
	var out []*NoopBranch
	for _, b := range s.all {
		if v, ok := b.(*NoopBranch); ok {
			out = append(out, v)
		}
	}
	return out
}

// ApplicationsByName indexes application branches by exact name.
func (s *Set) ApplicationsByName() map[string]*ApplicationBranch {
	out := make(map[string]*ApplicationBranch)
	for _, b := range s.Applications() {
		out[b.Name] = b
	}
	return out
}

// OpenApplications returns the application branches open at now.
func (s *Set) OpenApplications(now time.Time) []*ApplicationBranch {
	var out []*ApplicationBranch
	for _, b := range s.Applications() {
		if b.IsOpen(now) {
			out = append(out, b)
		}
	}
	return out
}
