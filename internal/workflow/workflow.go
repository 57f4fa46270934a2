// Package workflow holds the status transition tables for the approval
// entities. Services consult a Machine instead of comparing status strings
// inline, so the legal graph for each entity lives in one testable place.
package workflow

import (
	"fmt"
	"sort"
	"strings"
)

type Machine[S ~string] struct {
	entity string
	edges  map[S][]S
}

func NewMachine[S ~string](entity string, edges map[S][]S) *Machine[S] {
	return &Machine[S]{entity: entity, edges: edges}
}

// Allowed reports whether the transition from → to is a legal edge.
func (m *Machine[S]) Allowed(from, to S) bool {
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Step validates a transition. The error for an illegal edge names the
// states the target is actually reachable from.
func (m *Machine[S]) Step(from, to S) error {
	if m.Allowed(from, to) {
		return nil
	}
	sources := m.Sources(to)
	if len(sources) == 0 {
		return fmt.Errorf("%s: transition %s -> %s is not allowed, %s has no inbound transitions", m.entity, from, to, to)
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return fmt.Errorf("%s: transition %s -> %s is not allowed, %s is only reachable from %s",
		m.entity, from, to, to, strings.Join(names, ", "))
}

// Sources returns every state that may transition into the given state,
// sorted for stable error text.
func (m *Machine[S]) Sources(to S) []S {
	var sources []S
	for from, targets := range m.edges {
		for _, next := range targets {
			if next == to {
				sources = append(sources, from)
			}
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
