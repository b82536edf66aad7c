// Package model holds the in-memory form of a constraint-based metabolic
// reconstruction: reactions with flux bounds and objective coefficients,
// metabolites, and the stoichiometry that links them.
//
// A Model is owned by one simulation step at a time and is mutated in place
// (objective swaps, bound edits, reaction renames). Callers that fan work out
// across goroutines must Clone the model per task.
package model

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrReactionNotFound is returned when an operation names a reaction id
	// that is not part of the model.
	ErrReactionNotFound = errors.New("reaction not found")
	// ErrEmptyModel is returned by Validate for models without reactions or metabolites.
	ErrEmptyModel = errors.New("model has no reactions or metabolites")
)

// Reaction is a single column of the stoichiometric matrix.
type Reaction struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Metabolites map[string]float64 `json:"metabolites" yaml:"metabolites"`
	Lower       float64            `json:"lower_bound" yaml:"lower_bound"`
	Upper       float64            `json:"upper_bound" yaml:"upper_bound"`
	Objective   float64            `json:"objective_coefficient,omitempty" yaml:"objective_coefficient,omitempty"`
	Subsystem   string             `json:"subsystem,omitempty" yaml:"subsystem,omitempty"`
}

// Metabolite is a single row of the stoichiometric matrix.
type Metabolite struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Compartment string `json:"compartment,omitempty" yaml:"compartment,omitempty"`
}

// Model is a metabolic reconstruction. Reaction and metabolite order is
// significant: it defines the column and row order of Stoichiometry.
// Lookups by id use an index built on first use; a Model is not safe for
// concurrent use, so share it between goroutines through Clone.
type Model struct {
	ID          string       `json:"id" yaml:"id"`
	Metabolites []Metabolite `json:"metabolites" yaml:"metabolites"`
	Reactions   []Reaction   `json:"reactions" yaml:"reactions"`

	rxnIdx map[string]int
	metIdx map[string]int
}

// New builds a model and indexes it. It fails on duplicate ids.
func New(id string, mets []Metabolite, rxns []Reaction) (*Model, error) {
	m := &Model{ID: id, Metabolites: mets, Reactions: rxns}
	if err := m.reindex(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reindex() error {
	m.rxnIdx = make(map[string]int, len(m.Reactions))
	for i, r := range m.Reactions {
		if _, dup := m.rxnIdx[r.ID]; dup {
			return fmt.Errorf("model %s: duplicate reaction id %q", m.ID, r.ID)
		}
		m.rxnIdx[r.ID] = i
	}
	m.metIdx = make(map[string]int, len(m.Metabolites))
	for i, met := range m.Metabolites {
		if _, dup := m.metIdx[met.ID]; dup {
			return fmt.Errorf("model %s: duplicate metabolite id %q", m.ID, met.ID)
		}
		m.metIdx[met.ID] = i
	}
	return nil
}

func (m *Model) ensureIndex() {
	if m.rxnIdx == nil || m.metIdx == nil || len(m.rxnIdx) != len(m.Reactions) || len(m.metIdx) != len(m.Metabolites) {
		_ = m.reindex()
	}
}

// Clone returns a deep copy that shares nothing with m.
func (m *Model) Clone() *Model {
	out := &Model{
		ID:          m.ID,
		Metabolites: append([]Metabolite(nil), m.Metabolites...),
		Reactions:   make([]Reaction, len(m.Reactions)),
	}
	for i, r := range m.Reactions {
		cp := r
		cp.Metabolites = make(map[string]float64, len(r.Metabolites))
		for k, v := range r.Metabolites {
			cp.Metabolites[k] = v
		}
		out.Reactions[i] = cp
	}
	_ = out.reindex()
	return out
}

// ReactionIndex returns the column of reaction id.
func (m *Model) ReactionIndex(id string) (int, bool) {
	m.ensureIndex()
	i, ok := m.rxnIdx[id]
	if ok && m.Reactions[i].ID != id {
		_ = m.reindex()
		i, ok = m.rxnIdx[id]
	}
	return i, ok
}

// MetaboliteIndex returns the row of metabolite id.
func (m *Model) MetaboliteIndex(id string) (int, bool) {
	m.ensureIndex()
	i, ok := m.metIdx[id]
	if ok && m.Metabolites[i].ID != id {
		_ = m.reindex()
		i, ok = m.metIdx[id]
	}
	return i, ok
}

// HasReaction reports whether id names a reaction in m.
func (m *Model) HasReaction(id string) bool {
	_, ok := m.ReactionIndex(id)
	return ok
}

// Reaction returns a pointer to the named reaction for in-place edits of
// bounds, coefficients and stoichiometry. Ids change only through
// RenameReactions; an id edited through the pointer is not indexed.
func (m *Model) Reaction(id string) (*Reaction, bool) {
	i, ok := m.ReactionIndex(id)
	if !ok {
		return nil, false
	}
	return &m.Reactions[i], true
}

// SetObjective makes the given reactions the objective with coefficient 1
// and clears every other coefficient. Nothing changes if any id is missing.
func (m *Model) SetObjective(ids ...string) error {
	for _, id := range ids {
		if !m.HasReaction(id) {
			return fmt.Errorf("set objective %q: %w", id, ErrReactionNotFound)
		}
	}
	for i := range m.Reactions {
		m.Reactions[i].Objective = 0
	}
	for _, id := range ids {
		i, _ := m.ReactionIndex(id)
		m.Reactions[i].Objective = 1
	}
	return nil
}

// ObjectiveReactions lists reactions with a non-zero objective coefficient.
func (m *Model) ObjectiveReactions() []string {
	var out []string
	for _, r := range m.Reactions {
		if r.Objective != 0 {
			out = append(out, r.ID)
		}
	}
	return out
}

// Bound selects which flux bound ChangeBounds edits.
type Bound int

const (
	BoundLower Bound = iota
	BoundUpper
	BoundBoth
)

// ChangeBounds sets the selected bound of every listed reaction to value.
// Unknown ids fail the whole call before any bound is changed.
func (m *Model) ChangeBounds(ids []string, value float64, which Bound) error {
	idx := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := m.ReactionIndex(id)
		if !ok {
			return fmt.Errorf("change bounds %q: %w", id, ErrReactionNotFound)
		}
		idx = append(idx, i)
	}
	for _, i := range idx {
		switch which {
		case BoundLower:
			m.Reactions[i].Lower = value
		case BoundUpper:
			m.Reactions[i].Upper = value
		case BoundBoth:
			m.Reactions[i].Lower = value
			m.Reactions[i].Upper = value
		}
	}
	return nil
}

// SetBounds sets both bounds of one reaction.
func (m *Model) SetBounds(id string, lower, upper float64) error {
	r, ok := m.Reaction(id)
	if !ok {
		return fmt.Errorf("set bounds %q: %w", id, ErrReactionNotFound)
	}
	r.Lower, r.Upper = lower, upper
	return nil
}

// RenameReactions applies fn to every reaction id. Ids for which fn returns
// the input are left alone. A rename that collides with another id fails and
// leaves m unchanged.
func (m *Model) RenameReactions(fn func(id string) string) (int, error) {
	next := make([]string, len(m.Reactions))
	seen := make(map[string]struct{}, len(m.Reactions))
	renamed := 0
	for i, r := range m.Reactions {
		id := fn(r.ID)
		if id != r.ID {
			renamed++
		}
		if _, dup := seen[id]; dup {
			return 0, fmt.Errorf("model %s: rename produces duplicate reaction id %q", m.ID, id)
		}
		seen[id] = struct{}{}
		next[i] = id
	}
	for i := range m.Reactions {
		m.Reactions[i].ID = next[i]
	}
	return renamed, m.reindex()
}

// Stoichiometry returns the dense metabolite x reaction matrix. It panics on
// an empty model; call Validate first.
func (m *Model) Stoichiometry() *mat.Dense {
	m.ensureIndex()
	s := mat.NewDense(len(m.Metabolites), len(m.Reactions), nil)
	for j, r := range m.Reactions {
		for met, coef := range r.Metabolites {
			if i, ok := m.metIdx[met]; ok {
				s.Set(i, j, coef)
			}
		}
	}
	return s
}

// Validate checks structural consistency: non-empty, unique ids, known
// metabolite references and lower <= upper.
func (m *Model) Validate() error {
	if len(m.Reactions) == 0 || len(m.Metabolites) == 0 {
		return fmt.Errorf("model %s: %w", m.ID, ErrEmptyModel)
	}
	if err := m.reindex(); err != nil {
		return err
	}
	var problems []string
	for _, r := range m.Reactions {
		for met := range r.Metabolites {
			if _, ok := m.metIdx[met]; !ok {
				problems = append(problems, fmt.Sprintf("reaction %s references unknown metabolite %s", r.ID, met))
			}
		}
		if r.Lower > r.Upper {
			problems = append(problems, fmt.Sprintf("reaction %s has lower bound %g above upper bound %g", r.ID, r.Lower, r.Upper))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("model %s: %s", m.ID, strings.Join(problems, "; "))
	}
	return nil
}
