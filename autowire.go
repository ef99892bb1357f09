package seam

import (
	"log/slog"
	reflectPkg "reflect"
	"sync"

	"github.com/danpasecinic/seam/internal/reflect"
)

// Autowirer is the resolution engine: it scans component types into injection
// metadata, selects constructors, and wires instances from a candidate
// registry. Both per-type caches are built at most once and shared read-only,
// so a single Autowirer can serve concurrent constructions.
type Autowirer struct {
	decls  Declarations
	logger *slog.Logger
	res    resolver

	metadata sync.Map // reflect.Type -> *metadataEntry
	ctors    sync.Map // reflect.Type -> *ctorEntry
}

type metadataEntry struct {
	once sync.Once
	md   *ClassMetadata
	err  error
}

type ctorEntry struct {
	once sync.Once
	cc   *ConstructorCandidate
	err  error
}

func New(opts ...Option) *Autowirer {
	cfg := &engineConfig{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	decls := cfg.decls
	if decls == nil {
		decls = NewTagDeclarations()
	}

	return &Autowirer{
		decls:  decls,
		logger: cfg.logger,
		res:    resolver{prioritySort: cfg.prioritySort},
	}
}

// Declarations returns the declaration source the engine scans with.
func (a *Autowirer) Declarations() Declarations {
	return a.decls
}

// Metadata returns the injection metadata for a component type, building it
// on first request. Configuration defects (unsupported point shapes) surface
// here, before any instance exists.
func (a *Autowirer) Metadata(t reflectPkg.Type) (*ClassMetadata, error) {
	base := t
	for base.Kind() == reflectPkg.Pointer {
		base = base.Elem()
	}

	entry, _ := a.metadata.LoadOrStore(base, &metadataEntry{})
	e := entry.(*metadataEntry)
	e.once.Do(func() {
		e.md, e.err = buildMetadata(base, a.decls)
		if e.err == nil {
			a.logger.Debug("built injection metadata",
				"component", e.md.Component, "points", len(e.md.Points))
		}
	})
	return e.md, e.err
}

// SelectConstructor picks (and caches) the constructor used to build the
// component type. More than one constructor marked required is a
// configuration error and fails here, before any instance is created.
func (a *Autowirer) SelectConstructor(t reflectPkg.Type, reg Registry) (*ConstructorCandidate, error) {
	base := t
	for base.Kind() == reflectPkg.Pointer {
		base = base.Elem()
	}

	entry, _ := a.ctors.LoadOrStore(base, &ctorEntry{})
	e := entry.(*ctorEntry)
	e.once.Do(func() {
		component := reflect.TypeKeyFromType(base)
		e.cc, e.err = selectConstructor(base, component, a.decls, reg, &a.res)
		if e.err == nil {
			a.logger.Debug("selected constructor",
				"component", component, "params", e.cc.NumParams(), "synthesized", e.cc.synthesized)
		}
	})
	return e.cc, e.err
}

// Resolve runs one resolution request against a registry. Most callers want
// InjectInto or Construct instead; this is the raw resolver surface.
func (a *Autowirer) Resolve(req ResolutionRequest, reg Registry) (ResolutionResult, error) {
	return a.res.resolve(req, reg)
}

// InjectInto fills every injection point of an already-constructed instance.
// instance must be a non-nil pointer to struct. On error the instance may be
// partially written and must be discarded by the caller.
func (a *Autowirer) InjectInto(instance any, reg Registry) error {
	md, rv, err := a.instanceMetadata(instance)
	if err != nil {
		return err
	}
	return a.injectValue(rv, md, reg)
}

// InjectWithMetadata is InjectInto for callers that already hold the
// component's metadata.
func (a *Autowirer) InjectWithMetadata(instance any, md *ClassMetadata, reg Registry) error {
	_, rv, err := a.instanceMetadata(instance)
	if err != nil {
		return err
	}
	return a.injectValue(rv, md, reg)
}

func (a *Autowirer) instanceMetadata(instance any) (*ClassMetadata, reflectPkg.Value, error) {
	rv := reflectPkg.ValueOf(instance)
	if !rv.IsValid() || rv.Kind() != reflectPkg.Pointer || rv.IsNil() ||
		rv.Elem().Kind() != reflectPkg.Struct {
		return nil, reflectPkg.Value{}, errUnsupportedPoint(
			reflect.TypeKeyFromType(reflectPkg.TypeOf(instance)), "",
			"instance must be a non-nil pointer to struct")
	}

	md, err := a.Metadata(rv.Type())
	if err != nil {
		return nil, reflectPkg.Value{}, err
	}
	return md, rv, nil
}

func (a *Autowirer) injectValue(rv reflectPkg.Value, md *ClassMetadata, reg Registry) error {
	for _, pt := range md.Points {
		if err := applyPoint(rv, md, pt, reg, &a.res); err != nil {
			return err
		}
	}
	return nil
}

// Construct builds a new component: constructor injection first, then field
// and setter injection in metadata order. The requested type's shape decides
// what comes back — a pointer for pointer types, a value otherwise.
func (a *Autowirer) Construct(t reflectPkg.Type, reg Registry) (any, error) {
	base := t
	for base.Kind() == reflectPkg.Pointer {
		base = base.Elem()
	}
	component := reflect.TypeKeyFromType(base)

	md, err := a.Metadata(base)
	if err != nil {
		return nil, err
	}

	cc, err := a.SelectConstructor(base, reg)
	if err != nil {
		return nil, err
	}

	// The first construction reuses the argument values resolved while
	// probing; later constructions resolve fresh against the live registry.
	args, ok := cc.takeSelectionArgs()
	if !ok {
		args, err = materializeArgs(cc, component, reg, &a.res)
		if err != nil {
			return nil, err
		}
	}

	out, err := cc.invoke(base, component, args)
	if err != nil {
		return nil, err
	}

	ptr := out
	if out.Kind() != reflectPkg.Pointer {
		ptr = reflectPkg.New(base)
		ptr.Elem().Set(out)
	} else if out.IsNil() {
		return nil, newError(ErrCodeFactoryFailed, "constructor returned nil", nil).
			WithComponent(component)
	}

	if err := a.injectValue(ptr, md, reg); err != nil {
		return nil, err
	}

	if t.Kind() == reflectPkg.Pointer {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

// Build constructs and injects a component of type T.
func Build[T any](a *Autowirer, reg Registry) (T, error) {
	var zero T

	t := reflectPkg.TypeOf((*T)(nil)).Elem()
	instance, err := a.Construct(t, reg)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, errAssignmentFailed(reflectPkg.TypeOf(instance).String(), t.String())
	}
	return typed, nil
}

func MustBuild[T any](a *Autowirer, reg Registry) T {
	v, err := Build[T](a, reg)
	if err != nil {
		panic(err)
	}
	return v
}
