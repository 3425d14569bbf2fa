// Package fsm provides explicit status transition tables for document lifecycles.
package fsm

import (
	"slices"

	"backoffice/internal/core/apperror"
)

// Table maps each status to the statuses it may move to.
// A status with no outgoing edges is terminal.
type Table[S ~string] struct {
	entity      string
	transitions map[S][]S
}

// New creates a transition table for the named entity.
func New[S ~string](entity string, transitions map[S][]S) *Table[S] {
	return &Table[S]{entity: entity, transitions: transitions}
}

// Entity returns the entity name the table governs.
func (t *Table[S]) Entity() string { return t.entity }

// Can reports whether from → to is an allowed transition.
func (t *Table[S]) Can(from, to S) bool {
	return slices.Contains(t.transitions[from], to)
}

// IsTerminal reports whether no transition leaves s.
func (t *Table[S]) IsTerminal(s S) bool {
	return len(t.transitions[s]) == 0
}

// Next lists the statuses reachable from s.
func (t *Table[S]) Next(s S) []S {
	return slices.Clone(t.transitions[s])
}

// Invalid builds the INVALID_TRANSITION error for from → to. Details list the
// statuses that are reachable from from.
func (t *Table[S]) Invalid(from, to S, message string) *apperror.AppError {
	allowed := make([]string, 0, len(t.transitions[from]))
	for _, s := range t.Next(from) {
		allowed = append(allowed, string(s))
	}
	return apperror.NewInvalidTransition(t.Entity(), string(from), string(to), message).
		WithDetail("allowed", allowed)
}
