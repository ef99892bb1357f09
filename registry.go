package seam

import (
	"fmt"
	reflectPkg "reflect"
	"sync"

	"github.com/danpasecinic/seam/internal/reflect"
)

// Registry is the candidate store the resolver draws from. Implementations
// must return every eligible candidate whose declared type is assignable to
// the requested base type; they may also include permissive matches (raw
// capabilities), since the resolver re-filters everything through the type
// matcher anyway. Passing a nil base asks for all eligible candidates.
//
// Candidate slices must preserve registration order: it is the tie-break for
// collection ordering when no priority is configured.
type Registry interface {
	Candidates(base reflectPkg.Type) []*Candidate
	Lookup(name string) (*Candidate, bool)
	PriorityOf(c *Candidate) (int, bool)
	IsPrimary(c *Candidate) bool
}

// Capability declares that a candidate can act as a given generic base. Args
// written the way reflect prints them ("string", "*pkg.Widget"). No Args
// means a raw capability that satisfies any parameterization of Base.
type Capability struct {
	Base string
	Args []string
}

// Candidate is a single registry entry: a named value (or factory) with the
// metadata the resolver disambiguates on. Immutable after registration.
type Candidate struct {
	name         string
	typ          reflectPkg.Type
	qualifiers   []string
	capabilities []reflect.Generic
	priority     *int
	primary      bool
	eligible     bool
	order        int

	value      any
	factory    reflectPkg.Value
	factoryErr bool
}

func (c *Candidate) Name() string { return c.name }

// Type is the candidate's declared type: the registered value's dynamic type,
// or the factory's first return type.
func (c *Candidate) Type() reflectPkg.Type { return c.typ }

func (c *Candidate) Qualifiers() []string {
	out := make([]string, len(c.qualifiers))
	copy(out, c.qualifiers)
	return out
}

// Capabilities lists the generic capabilities the candidate carries: parsed
// from its declared type and embedded chain, plus any declared at
// registration.
func (c *Candidate) Capabilities() []Capability {
	have := c.declaredCapabilities()
	out := make([]Capability, len(have))
	for i, g := range have {
		out[i] = Capability{Base: g.Base, Args: g.Args}
	}
	return out
}

func (c *Candidate) hasQualifier(tag string) bool {
	for _, q := range c.qualifiers {
		if q == tag {
			return true
		}
	}
	return false
}

// Get materializes the candidate's value. Value entries return the registered
// value; factory entries invoke the factory, so repeated calls may yield
// distinct instances.
func (c *Candidate) Get() (any, error) {
	if !c.factory.IsValid() {
		return c.value, nil
	}

	results := c.factory.Call(nil)
	if c.factoryErr && !results[1].IsNil() {
		return nil, errFactoryFailed(c.name, results[1].Interface().(error))
	}
	return results[0].Interface(), nil
}

func (c *Candidate) declaredCapabilities() []reflect.Generic {
	caps := reflect.TypeCapabilities(c.typ)
	if len(c.capabilities) == 0 {
		return caps
	}
	out := make([]reflect.Generic, 0, len(caps)+len(c.capabilities))
	out = append(out, caps...)
	out = append(out, c.capabilities...)
	return out
}

type RegisterOption func(*registerConfig)

type registerConfig struct {
	qualifiers   []string
	priority     *int
	primary      bool
	ineligible   bool
	capabilities []reflect.Generic
}

// WithQualifiers tags the candidate so qualified requests can narrow to it.
func WithQualifiers(tags ...string) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.qualifiers = append(cfg.qualifiers, tags...)
	}
}

// WithPriority gives the candidate an explicit ordering value; lower values
// sort first in collection results when priority ordering is enabled.
func WithPriority(n int) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.priority = &n
	}
}

// AsPrimary marks the candidate to win single-mode ties among peers.
func AsPrimary() RegisterOption {
	return func(cfg *registerConfig) {
		cfg.primary = true
	}
}

// NotAutowirable keeps the candidate out of autowiring consideration; it
// remains reachable through Lookup.
func NotAutowirable() RegisterOption {
	return func(cfg *registerConfig) {
		cfg.ineligible = true
	}
}

// WithCapability declares a generic capability the candidate's declared type
// does not carry on its own, e.g. a legacy implementation registered raw.
func WithCapability(base string, args ...string) RegisterOption {
	return func(cfg *registerConfig) {
		cfg.capabilities = append(cfg.capabilities, reflect.Generic{Base: base, Args: args})
	}
}

// MemoryRegistry is the reference Registry: an in-memory, read-mostly
// candidate store keyed by unique name, preserving registration order.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byName  map[string]*Candidate
	ordered []*Candidate
}

func NewRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byName: make(map[string]*Candidate),
	}
}

// Register adds a value candidate under a unique name. The declared type is
// the value's dynamic type.
func (r *MemoryRegistry) Register(name string, value any, opts ...RegisterOption) error {
	if reflect.IsNil(value) {
		return fmt.Errorf("candidate %q: value must not be nil", name)
	}

	c := &Candidate{
		name:  name,
		typ:   reflectPkg.TypeOf(value),
		value: value,
	}
	return r.add(c, opts)
}

// RegisterFactory adds a factory candidate. fn must be func() T or
// func() (T, error); the declared type is T and the factory is invoked each
// time the candidate is materialized.
func (r *MemoryRegistry) RegisterFactory(name string, fn any, opts ...RegisterOption) error {
	fnVal := reflectPkg.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflectPkg.Func {
		return fmt.Errorf("candidate %q: factory must be a function", name)
	}

	fnType := fnVal.Type()
	if fnType.NumIn() != 0 {
		return fmt.Errorf("candidate %q: factory must take no arguments", name)
	}

	errType := reflectPkg.TypeOf((*error)(nil)).Elem()
	switch fnType.NumOut() {
	case 1:
	case 2:
		if !fnType.Out(1).Implements(errType) {
			return fmt.Errorf("candidate %q: second factory return must be error", name)
		}
	default:
		return fmt.Errorf("candidate %q: factory must return T or (T, error)", name)
	}

	c := &Candidate{
		name:       name,
		typ:        fnType.Out(0),
		factory:    fnVal,
		factoryErr: fnType.NumOut() == 2,
	}
	return r.add(c, opts)
}

func (r *MemoryRegistry) add(c *Candidate, opts []RegisterOption) error {
	cfg := &registerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	c.qualifiers = cfg.qualifiers
	c.priority = cfg.priority
	c.primary = cfg.primary
	c.eligible = !cfg.ineligible
	c.capabilities = cfg.capabilities

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[c.name]; exists {
		return errDuplicateCandidate(c.name)
	}

	c.order = len(r.ordered)
	r.byName[c.name] = c
	r.ordered = append(r.ordered, c)
	return nil
}

func (r *MemoryRegistry) Candidates(base reflectPkg.Type) []*Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Candidate, 0, len(r.ordered))
	for _, c := range r.ordered {
		if !c.eligible {
			continue
		}
		if base == nil || couldSatisfy(c, base) {
			out = append(out, c)
		}
	}
	return out
}

func (r *MemoryRegistry) Lookup(name string) (*Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byName[name]
	return c, ok
}

func (r *MemoryRegistry) PriorityOf(c *Candidate) (int, bool) {
	if c == nil || c.priority == nil {
		return 0, false
	}
	return *c.priority, true
}

func (r *MemoryRegistry) IsPrimary(c *Candidate) bool {
	return c != nil && c.primary
}

func (r *MemoryRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ordered)
}

func (r *MemoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.ordered))
	for i, c := range r.ordered {
		names[i] = c.name
	}
	return names
}
