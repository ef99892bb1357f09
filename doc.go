// Package seam is a dependency-resolution engine for Go: it decides, for
// every injectable point on a component (field, setter method, or constructor
// parameter), which candidates from a registry should be supplied — single
// values, slices, arrays, and name-keyed maps, with generic-aware type
// matching, qualifier narrowing, and priority ordering.
//
// Seam deliberately stops there. Lifecycle, scoping, proxying, and
// configuration loading belong to whatever container sits on top; seam only
// needs a Registry to query and a Declarations source describing each
// component's injectable surface.
//
// # Quick Start
//
// Register candidates, tag fields, build:
//
//	reg := seam.NewRegistry()
//	reg.Register("db", &Database{URL: "postgres://localhost"})
//	reg.Register("logger", &Logger{})
//
//	type UserService struct {
//	    DB  *Database `seam:""`
//	    Log *Logger   `seam:""`
//	}
//
//	a := seam.New()
//	svc, err := seam.Build[*UserService](a, reg)
//
// # Field Tags
//
// The seam tag declares a field injectable:
//
//	Repo  Repository[string] `seam:""`                  // by type
//	DB    *Database          `seam:"primary"`           // qualified
//	Cache *Cache             `seam:",optional"`         // zero value when absent
//	Named *Database          `seam:",name=replica"`     // implied name override
//	Any   any                `seam:",cap=Repository[string]"` // explicit capability
//
// Slice, array, and map[string]E fields collect every matching candidate;
// maps are keyed by registry name. Collection order follows registration
// order, or ascending candidate priority under WithPriorityOrdering.
//
// # Generic Matching
//
// Instantiated generic types are distinct types in Go, so Repository[string]
// and Repository[int] candidates separate naturally. On top of that, seam
// matches declared capabilities: a candidate registered with
// WithCapability("Repository") — a raw capability, no type arguments —
// satisfies any requested parameterization. Raw candidates are matched
// permissively and checked only when the value is written.
//
// # Setters and Constructors
//
// Go has no method annotations, so setters and constructors are declared
// explicitly against the engine's TagDeclarations:
//
//	decls := seam.NewTagDeclarations()
//	seam.DeclareMethod[*UserService](decls, "SetClock")
//	seam.DeclareConstructor[*UserService](decls, NewUserService, seam.CtorRequired())
//	a := seam.New(seam.WithDeclarations(decls))
//
// With several constructors declared and none required, the engine probes
// them in descending parameter-count order and selects the first whose
// parameters all resolve, falling back to a no-argument constructor.
//
// # Failure Semantics
//
// A required point with no candidate fails with NOT_FOUND; an optional one
// keeps its zero value. Two or more indistinguishable candidates for a
// single-mode point fail with AMBIGUOUS even when the point is optional —
// only an exact registry-name match or a single primary candidate breaks the
// tie. Errors carry the component and point they occurred at; check them with
// the IsNotFound, IsAmbiguous, ... predicates.
package seam
