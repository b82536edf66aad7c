package model

import "strings"

// Predicate selects reactions.
type Predicate func(Reaction) bool

// ReactionIDs returns the ids of reactions matching pred, in model order.
func (m *Model) ReactionIDs(pred Predicate) []string {
	var out []string
	for _, r := range m.Reactions {
		if pred == nil || pred(r) {
			out = append(out, r.ID)
		}
	}
	return out
}

func HasPrefix(prefix string) Predicate {
	return func(r Reaction) bool { return strings.HasPrefix(r.ID, prefix) }
}

func HasSuffix(suffix string) Predicate {
	return func(r Reaction) bool { return strings.HasSuffix(r.ID, suffix) }
}

// ContainsFold matches ids containing sub, ignoring case.
func ContainsFold(sub string) Predicate {
	sub = strings.ToLower(sub)
	return func(r Reaction) bool { return strings.Contains(strings.ToLower(r.ID), sub) }
}

// And matches when every predicate matches.
func And(preds ...Predicate) Predicate {
	return func(r Reaction) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Not inverts p.
func Not(p Predicate) Predicate {
	return func(r Reaction) bool { return !p(r) }
}

// Except matches every reaction whose id is not listed.
func Except(ids ...string) Predicate {
	skip := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	return func(r Reaction) bool {
		_, ok := skip[r.ID]
		return !ok
	}
}
