package lifecycle

import (
	"slices"

	"github.com/smallbiznis/nel3/internal/apperror"
)

// Status is any closed string enumeration.
type Status interface {
	~string
}

// Machine is an explicit allowed-transition table for one status domain.
type Machine[S Status] struct {
	entity     string
	states     map[S]struct{}
	edges      map[S]map[S]struct{}
	idempotent map[S]struct{}
}

// Edge is one allowed transition.
type Edge[S Status] struct {
	From S
	To   S
}

func New[S Status](entity string, states []S, edges []Edge[S]) *Machine[S] {
	m := &Machine[S]{
		entity:     entity,
		states:     make(map[S]struct{}, len(states)),
		edges:      make(map[S]map[S]struct{}),
		idempotent: map[S]struct{}{},
	}
	for _, s := range states {
		m.states[s] = struct{}{}
	}
	for _, e := range edges {
		if m.edges[e.From] == nil {
			m.edges[e.From] = map[S]struct{}{}
		}
		m.edges[e.From][e.To] = struct{}{}
	}
	return m
}

// Idempotent marks states whose self-transition is an accepted no-op.
func (m *Machine[S]) Idempotent(states ...S) *Machine[S] {
	for _, s := range states {
		m.idempotent[s] = struct{}{}
	}
	return m
}

// Valid reports whether s belongs to the domain.
func (m *Machine[S]) Valid(s S) bool {
	_, ok := m.states[s]
	return ok
}

// Can reports whether from -> to is in the table.
func (m *Machine[S]) Can(from, to S) bool {
	if from == to {
		_, ok := m.idempotent[from]
		return ok
	}
	_, ok := m.edges[from][to]
	return ok
}

// NoOp reports whether from -> to is an accepted self-transition.
func (m *Machine[S]) NoOp(from, to S) bool {
	if from != to {
		return false
	}
	_, ok := m.idempotent[from]
	return ok
}

// Check returns a *apperror.TransitionError when from -> to is not allowed.
func (m *Machine[S]) Check(id string, from, to S) error {
	if m.Can(from, to) {
		return nil
	}
	return &apperror.TransitionError{
		Entity: m.entity,
		ID:     id,
		From:   string(from),
		To:     string(to),
	}
}

// Terminal reports whether no transition leaves s.
func (m *Machine[S]) Terminal(s S) bool {
	return len(m.edges[s]) == 0
}

// Next lists the states reachable from s in one step.
func (m *Machine[S]) Next(s S) []S {
	out := make([]S, 0, len(m.edges[s]))
	for to := range m.edges[s] {
		out = append(out, to)
	}
	slices.Sort(out)
	return out
}
