package seam

import (
	"sort"
)

// resolver implements the candidate-resolution algorithm: registry query,
// type matching, qualifier narrowing, then cardinality-specific selection and
// ordering.
type resolver struct {
	prioritySort bool
}

func (r *resolver) resolve(req ResolutionRequest, reg Registry) (ResolutionResult, error) {
	candidates := reg.Candidates(req.Requirement.MatchTarget())

	matched := candidates[:0:0]
	for _, c := range candidates {
		if matches(c, req.Requirement) {
			matched = append(matched, c)
		}
	}

	// Qualifier narrowing happens before any cardinality branching: a tag
	// match or an exact registry-name match keeps the candidate.
	if req.Qualifier != "" {
		narrowed := matched[:0:0]
		for _, c := range matched {
			if c.hasQualifier(req.Qualifier) || c.name == req.Qualifier {
				narrowed = append(narrowed, c)
			}
		}
		matched = narrowed
	}

	if req.Cardinality == CardinalitySingle {
		return r.resolveSingle(req, reg, matched)
	}
	return r.resolveMany(req, reg, matched)
}

func (r *resolver) resolveSingle(req ResolutionRequest, reg Registry, matched []*Candidate) (ResolutionResult, error) {
	switch len(matched) {
	case 0:
		if !req.Required {
			return emptyResult(), nil
		}
		return ResolutionResult{}, errNotFound(req.Requirement.describe())
	case 1:
		return valueResult(matched[0]), nil
	}

	// A candidate registered under the point's implied name wins outright.
	if req.Name != "" {
		for _, c := range matched {
			if c.name == req.Name {
				return valueResult(c), nil
			}
		}
	}

	// Else a single primary candidate wins. Two primaries are as ambiguous
	// as none.
	var primary *Candidate
	for _, c := range matched {
		if !reg.IsPrimary(c) {
			continue
		}
		if primary != nil {
			primary = nil
			break
		}
		primary = c
	}
	if primary != nil {
		return valueResult(primary), nil
	}

	// Priority never auto-picks a winner in single mode; unresolved ties are
	// fatal regardless of the point being optional.
	names := make([]string, len(matched))
	for i, c := range matched {
		names[i] = c.name
	}
	return ResolutionResult{}, errAmbiguous(req.Requirement.describe(), names)
}

func (r *resolver) resolveMany(req ResolutionRequest, reg Registry, matched []*Candidate) (ResolutionResult, error) {
	if len(matched) == 0 {
		if req.Required {
			return ResolutionResult{}, errNotFound(req.Requirement.describe())
		}
		return emptyResult(), nil
	}

	if r.prioritySort {
		r.sortByPriority(matched, reg)
	}

	return valuesResult(matched), nil
}

// sortByPriority orders ascending by explicit priority; candidates without
// one sort after all prioritized ones. Ties keep registration order (the
// input is already in registration order and the sort is stable).
func (r *resolver) sortByPriority(matched []*Candidate, reg Registry) {
	sort.SliceStable(matched, func(i, j int) bool {
		pi, iok := reg.PriorityOf(matched[i])
		pj, jok := reg.PriorityOf(matched[j])
		switch {
		case iok && jok:
			return pi < pj
		case iok:
			return true
		default:
			return false
		}
	})
}
