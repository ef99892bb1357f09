package seam

import (
	"fmt"
	reflectPkg "reflect"
	"strings"

	"github.com/danpasecinic/seam/internal/reflect"
)

type Cardinality int

const (
	// CardinalitySingle expects exactly one candidate.
	CardinalitySingle Cardinality = iota
	// CardinalitySlice collects every matching candidate into an ordered slice.
	CardinalitySlice
	// CardinalityArray is CardinalitySlice for array-typed points; candidates
	// fill the array left to right and must fit its capacity.
	CardinalityArray
	// CardinalityMap collects matches keyed by registry name.
	CardinalityMap
)

var cardinalityNames = map[Cardinality]string{
	CardinalitySingle: "single",
	CardinalitySlice:  "slice",
	CardinalityArray:  "array",
	CardinalityMap:    "map",
}

func (c Cardinality) String() string {
	if name, ok := cardinalityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cardinality(%d)", int(c))
}

// TypeRequirement is the type side of a resolution request. Type is the
// declared point type (the container type for collection points), Elem is
// what candidates are matched against, and Generic carries the required
// parameterization when the match target is generic or an explicit capability
// requirement was declared.
type TypeRequirement struct {
	Type    reflectPkg.Type
	Elem    reflectPkg.Type
	Generic *Capability
}

// MatchTarget is the type candidates must satisfy: the element type for
// slices and arrays, the value type for maps, the point type itself
// otherwise.
func (tr TypeRequirement) MatchTarget() reflectPkg.Type {
	if tr.Elem != nil {
		return tr.Elem
	}
	return tr.Type
}

func (tr TypeRequirement) describe() string {
	target := tr.MatchTarget()
	// An explicit capability requirement on an uninformative target (e.g. an
	// any-typed field) reads better than "interface {}".
	if tr.Generic != nil && target.Kind() == reflectPkg.Interface && target.NumMethod() == 0 {
		if len(tr.Generic.Args) == 0 {
			return tr.Generic.Base
		}
		return fmt.Sprintf("%s[%s]", tr.Generic.Base, strings.Join(tr.Generic.Args, ","))
	}
	return reflect.TypeKeyFromType(target)
}

// ResolutionRequest describes one injectable slot: what type is required, how
// many values it takes, and how candidates may be narrowed.
type ResolutionRequest struct {
	Requirement TypeRequirement
	// Name is the implied point name (lower-camel field name or declared
	// parameter name); a candidate registered under exactly this name wins
	// single-mode ties.
	Name        string
	Qualifier   string
	Cardinality Cardinality
	Required    bool
}

// RequestFor derives a request from a declared point type: map[string]E maps
// to CardinalityMap over E, slices and arrays to their collection modes over
// the element type, everything else to CardinalitySingle. The generic
// requirement is parsed off the match target when it is an instantiated
// generic type.
func RequestFor(t reflectPkg.Type) (ResolutionRequest, error) {
	req := ResolutionRequest{
		Requirement: TypeRequirement{Type: t},
		Cardinality: CardinalitySingle,
		Required:    true,
	}

	switch t.Kind() {
	case reflectPkg.Slice:
		req.Cardinality = CardinalitySlice
		req.Requirement.Elem = t.Elem()
	case reflectPkg.Array:
		req.Cardinality = CardinalityArray
		req.Requirement.Elem = t.Elem()
	case reflectPkg.Map:
		if t.Key().Kind() != reflectPkg.String {
			return req, fmt.Errorf("map point must be keyed by string, got %s", t.Key())
		}
		req.Cardinality = CardinalityMap
		req.Requirement.Elem = t.Elem()
	}

	if g, ok := reflect.ParseGeneric(req.Requirement.MatchTarget()); ok {
		req.Requirement.Generic = &Capability{Base: g.Base, Args: g.Args}
	}

	return req, nil
}

type ResultKind int

const (
	// ResultEmpty means an optional request found nothing; collection
	// results with zero matches on an optional point are also Empty.
	ResultEmpty ResultKind = iota
	ResultValue
	ResultValues
)

// ResolutionResult is the successful outcome of a resolution: a single
// candidate, an ordered set of candidates, or nothing (optional point,
// nothing found). Failures travel as errors and are never folded into an
// Empty result.
type ResolutionResult struct {
	Kind       ResultKind
	Candidate  *Candidate
	Candidates []*Candidate
}

func emptyResult() ResolutionResult {
	return ResolutionResult{Kind: ResultEmpty}
}

func valueResult(c *Candidate) ResolutionResult {
	return ResolutionResult{Kind: ResultValue, Candidate: c}
}

func valuesResult(cs []*Candidate) ResolutionResult {
	return ResolutionResult{Kind: ResultValues, Candidates: cs}
}
