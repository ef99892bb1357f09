package seam

import (
	reflectPkg "reflect"
	"sort"
	"sync"
)

// ConstructorCandidate is a selected constructor: the function to invoke plus
// one resolution request per parameter. The selection is cached per type;
// argument values resolved while probing candidates are reused for the first
// construction only, later constructions re-resolve against the live
// registry.
type ConstructorCandidate struct {
	fn     reflectPkg.Value
	out    reflectPkg.Type
	hasErr bool

	Marked   bool
	Required bool
	Params   []ResolutionRequest

	// synthesized constructors build the zero value of the component struct;
	// they stand in for the missing no-argument constructor.
	synthesized bool

	mu            sync.Mutex
	selectionArgs []reflectPkg.Value
}

func (cc *ConstructorCandidate) NumParams() int {
	return len(cc.Params)
}

func (cc *ConstructorCandidate) takeSelectionArgs() ([]reflectPkg.Value, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.selectionArgs == nil {
		return nil, false
	}
	args := cc.selectionArgs
	cc.selectionArgs = nil
	return args, true
}

func (cc *ConstructorCandidate) stashSelectionArgs(args []reflectPkg.Value) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	cc.selectionArgs = args
}

func buildConstructorCandidate(base reflectPkg.Type, component string, decl ConstructorDecl) (*ConstructorCandidate, error) {
	fnVal := reflectPkg.ValueOf(decl.Fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflectPkg.Func {
		return nil, errUnsupportedPoint(component, "constructor", "constructor must be a function")
	}

	fnType := fnVal.Type()
	errType := reflectPkg.TypeOf((*error)(nil)).Elem()
	switch fnType.NumOut() {
	case 1:
	case 2:
		if !fnType.Out(1).Implements(errType) {
			return nil, errUnsupportedPoint(component, "constructor", "second constructor return must be error")
		}
	default:
		return nil, errUnsupportedPoint(component, "constructor", "constructor must return T or (T, error)")
	}

	out := fnType.Out(0)
	outBase := out
	for outBase.Kind() == reflectPkg.Pointer {
		outBase = outBase.Elem()
	}
	if outBase != base {
		return nil, errUnsupportedPoint(component, "constructor",
			"constructor must produce the component type, returns "+out.String())
	}

	params := make([]ResolutionRequest, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		req, err := RequestFor(fnType.In(i))
		if err != nil {
			return nil, errUnsupportedPoint(component, "constructor", err.Error())
		}
		if i < len(decl.ParamNames) {
			req.Name = decl.ParamNames[i]
		}
		if i < len(decl.ParamQualifiers) {
			req.Qualifier = decl.ParamQualifiers[i]
		}
		params[i] = req
	}
	for _, oi := range decl.OptionalParams {
		if oi >= 0 && oi < len(params) {
			params[oi].Required = false
		}
	}

	return &ConstructorCandidate{
		fn:       fnVal,
		out:      out,
		hasErr:   fnType.NumOut() == 2,
		Marked:   decl.Marked,
		Required: decl.Required,
		Params:   params,
	}, nil
}

// zeroValueConstructor stands in when a type declares no constructors: the
// component is built as reflect.New(base) and everything is injected
// post-construction.
func zeroValueConstructor(base reflectPkg.Type) *ConstructorCandidate {
	return &ConstructorCandidate{
		out:         reflectPkg.PointerTo(base),
		synthesized: true,
	}
}

// selectConstructor picks the constructor to build a component with:
//
//  1. No declared constructors: the synthesized zero-value constructor.
//  2. Exactly one declared, taking no arguments: selected outright, no
//     resolution attempted.
//  3. Exactly one marked required: selected; a later parameter failure is
//     fatal. More than one marked required is a configuration error.
//  4. Marked non-required candidates (plus the no-argument constructor, if
//     declared) — or, with nothing marked, all candidates — compete in
//     implicit mode: probe in descending parameter-count order, eliminating
//     a candidate when a single-mode parameter has no candidate or is
//     ambiguous; the first fully resolvable one wins.
func selectConstructor(base reflectPkg.Type, component string, decls Declarations, reg Registry, res *resolver) (*ConstructorCandidate, error) {
	declared := decls.Constructors(base)
	if len(declared) == 0 {
		return zeroValueConstructor(base), nil
	}

	candidates := make([]*ConstructorCandidate, len(declared))
	for i, decl := range declared {
		cc, err := buildConstructorCandidate(base, component, decl)
		if err != nil {
			return nil, err
		}
		candidates[i] = cc
	}

	if len(candidates) == 1 && candidates[0].NumParams() == 0 {
		return candidates[0], nil
	}

	var requiredMarked, marked []*ConstructorCandidate
	var noArg *ConstructorCandidate
	for _, cc := range candidates {
		if cc.NumParams() == 0 && noArg == nil {
			noArg = cc
		}
		if !cc.Marked {
			continue
		}
		if cc.Required {
			requiredMarked = append(requiredMarked, cc)
		} else {
			marked = append(marked, cc)
		}
	}

	if len(requiredMarked) > 1 {
		return nil, errMultipleRequiredConstructors(component, len(requiredMarked))
	}
	if len(requiredMarked) == 1 {
		if len(marked) > 0 {
			return nil, newError(ErrCodeMultipleRequiredConstructors,
				"a required constructor must be the only marked constructor", nil).
				WithComponent(component)
		}
		return requiredMarked[0], nil
	}

	pool := candidates
	if len(marked) > 0 {
		pool = marked
		if noArg != nil && !noArg.Marked {
			pool = append(append([]*ConstructorCandidate{}, marked...), noArg)
		}
	}

	return selectImplicit(component, pool, reg, res)
}

func selectImplicit(component string, pool []*ConstructorCandidate, reg Registry, res *resolver) (*ConstructorCandidate, error) {
	sorted := make([]*ConstructorCandidate, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NumParams() > sorted[j].NumParams()
	})

	for _, cc := range sorted {
		args, ok, err := probeConstructor(cc, reg, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		cc.stashSelectionArgs(args)
		return cc, nil
	}

	return nil, errNoConstructor(component)
}

// probeConstructor attempts to resolve every parameter as an
// optional-by-construction request. A single-mode parameter resolving to
// nothing eliminates the candidate, as does an ambiguity — neither is fatal
// during probing. Genuine failures (a candidate factory blowing up) still
// propagate.
func probeConstructor(cc *ConstructorCandidate, reg Registry, res *resolver) ([]reflectPkg.Value, bool, error) {
	args := make([]reflectPkg.Value, cc.NumParams())
	for i, req := range cc.Params {
		probe := req
		probe.Required = false

		result, err := res.resolve(probe, reg)
		if err != nil {
			if IsAmbiguous(err) {
				return nil, false, nil
			}
			return nil, false, err
		}
		if result.Kind == ResultEmpty && probe.Cardinality == CardinalitySingle {
			return nil, false, nil
		}

		value, err := assembleValue(probe, result)
		if err != nil {
			return nil, false, err
		}
		args[i] = value
	}
	return args, true, nil
}

// materializeArgs resolves the selected constructor's parameters against the
// live registry, honoring each parameter's own required flag.
func materializeArgs(cc *ConstructorCandidate, component string, reg Registry, res *resolver) ([]reflectPkg.Value, error) {
	args := make([]reflectPkg.Value, cc.NumParams())
	for i, req := range cc.Params {
		result, err := res.resolve(req, reg)
		if err != nil {
			return nil, attribute(err, component, "constructor")
		}

		value, err := assembleValue(req, result)
		if err != nil {
			return nil, attribute(err, component, "constructor")
		}
		args[i] = value
	}
	return args, nil
}

// invoke calls the constructor with the given arguments and returns the new
// instance.
func (cc *ConstructorCandidate) invoke(base reflectPkg.Type, component string, args []reflectPkg.Value) (reflectPkg.Value, error) {
	if cc.synthesized {
		return reflectPkg.New(base), nil
	}

	results := cc.fn.Call(args)
	if cc.hasErr && !results[1].IsNil() {
		err := results[1].Interface().(error)
		return reflectPkg.Value{}, newError(ErrCodeFactoryFailed, "constructor returned error", err).
			WithComponent(component)
	}
	return results[0], nil
}
