package seam

import (
	reflectPkg "reflect"

	"github.com/danpasecinic/seam/internal/reflect"
)

// matches decides whether a candidate satisfies a type requirement.
//
// Assignability of the candidate's declared type to the match target is the
// baseline: Go interface satisfaction is structural, and instantiated generic
// interfaces are distinct types, so this alone separates Repository[string]
// from Repository[int]. On top of that, a generic requirement checks the
// candidate's capabilities: its own parsed instantiation, the instantiations
// of its embedded types, and any explicitly declared ones. A raw capability
// (no type arguments) satisfies any requested parameterization; this
// permissive fallback is deliberate and load-bearing for mixed-typing setups.
func matches(c *Candidate, req TypeRequirement) bool {
	target := req.MatchTarget()
	if !c.typ.AssignableTo(target) {
		return false
	}
	if req.Generic == nil {
		return true
	}

	want := reflect.Generic{Base: req.Generic.Base, Args: req.Generic.Args}
	sawBase := false
	for _, have := range c.declaredCapabilities() {
		if !reflect.BaseMatches(have.Base, want.Base) {
			continue
		}
		sawBase = true
		if reflect.ArgsMatch(have.Args, want.Args) {
			return true
		}
	}
	if sawBase {
		// The candidate fixes this base to different arguments.
		return false
	}

	// The candidate declares nothing about the requested base. When the
	// requirement was parsed off the target type itself, assignability has
	// already proven satisfaction (the target is the instantiated generic).
	// Otherwise the requirement is an explicit capability the candidate does
	// not carry.
	if tg, ok := reflect.ParseGeneric(target); ok && reflect.BaseMatches(tg.Base, want.Base) {
		return true
	}
	return false
}

// couldSatisfy is the registry-side pre-filter: declared-type assignability,
// or capability plausibility for bases the target's assignability cannot
// prove. It may overshoot; the resolver re-applies matches on every
// candidate.
func couldSatisfy(c *Candidate, base reflectPkg.Type) bool {
	if c.typ.AssignableTo(base) {
		return true
	}
	bg, ok := reflect.ParseGeneric(base)
	if !ok {
		return false
	}
	for _, have := range c.declaredCapabilities() {
		if reflect.BaseMatches(have.Base, bg.Base) {
			return true
		}
	}
	return false
}
