package seam

import (
	"fmt"
	reflectPkg "reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/danpasecinic/seam/internal/reflect"
)

const TagKey = "seam"

// Declarations enumerates the injectable surface of a component type: its own
// tagged fields, its own declared setter methods, and its constructor
// candidates. The scanner walks the embedding chain itself, so each call must
// describe only the given type's own declarations, not inherited ones.
type Declarations interface {
	Fields(t reflectPkg.Type) ([]FieldDecl, error)
	Methods(t reflectPkg.Type) []MethodDecl
	Constructors(t reflectPkg.Type) []ConstructorDecl
}

// FieldDecl marks one struct field for injection.
type FieldDecl struct {
	// Index of the field within its declaring struct.
	Index int
	// Name is the Go field name.
	Name string
	// ImpliedName is the lower-camel name candidates may be matched against;
	// overridable via the name= tag attribute.
	ImpliedName string
	Qualifier   string
	Optional    bool
	// Capability is an explicit generic requirement (cap= tag attribute) for
	// fields whose declared type is uninformative.
	Capability *Capability
}

// MethodDecl marks one setter method. A declaration with Marked=false is a
// plain redeclaration: it records that the type defines the method without
// the injection marking, which suppresses a marked declaration inherited from
// an embedded type.
type MethodDecl struct {
	Name            string
	Marked          bool
	Optional        bool
	ParamNames      []string
	ParamQualifiers []string
}

// ConstructorDecl is one constructor candidate for a component type: a
// function func(deps...) T or func(deps...) (T, error).
type ConstructorDecl struct {
	Fn              any
	Marked          bool
	Required        bool
	ParamNames      []string
	ParamQualifiers []string
	OptionalParams  []int
}

// TagDeclarations is the default Declarations front end. Fields are declared
// through the seam struct tag:
//
//	type Service struct {
//	    Repo    Repository[string] `seam:""`                 // by type
//	    DB      *Database          `seam:"primary"`          // qualified
//	    Cache   *Cache             `seam:",optional"`        // optional
//	    Legacy  any                `seam:",cap=Repository[string]"` // explicit capability
//	}
//
// Go has no method or function annotations, so setter methods and
// constructors are declared with explicit calls: DeclareMethod,
// DeclarePlainMethod, and DeclareConstructor.
type TagDeclarations struct {
	tagKey string

	mu      sync.RWMutex
	methods map[reflectPkg.Type][]MethodDecl
	ctors   map[reflectPkg.Type][]ConstructorDecl
}

type TagOption func(*TagDeclarations)

// WithTagKey overrides the struct tag key (default "seam").
func WithTagKey(key string) TagOption {
	return func(d *TagDeclarations) {
		d.tagKey = key
	}
}

func NewTagDeclarations(opts ...TagOption) *TagDeclarations {
	d := &TagDeclarations{
		tagKey:  TagKey,
		methods: make(map[reflectPkg.Type][]MethodDecl),
		ctors:   make(map[reflectPkg.Type][]ConstructorDecl),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *TagDeclarations) Fields(t reflectPkg.Type) ([]FieldDecl, error) {
	if t.Kind() != reflectPkg.Struct {
		return nil, nil
	}

	var decls []FieldDecl
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			continue
		}

		tag, ok := field.Tag.Lookup(d.tagKey)
		if !ok {
			continue
		}

		decl, err := parseFieldTag(field, i, tag)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func parseFieldTag(field reflectPkg.StructField, index int, tag string) (FieldDecl, error) {
	decl := FieldDecl{
		Index:       index,
		Name:        field.Name,
		ImpliedName: lowerFirst(field.Name),
	}

	tokens := strings.Split(tag, ",")
	decl.Qualifier = strings.TrimSpace(tokens[0])

	for _, token := range tokens[1:] {
		token = strings.TrimSpace(token)
		switch {
		case token == "optional":
			decl.Optional = true
		case strings.HasPrefix(token, "name="):
			decl.ImpliedName = strings.TrimPrefix(token, "name=")
		case strings.HasPrefix(token, "cap="):
			g, ok := reflect.ParseGenericString(strings.TrimPrefix(token, "cap="))
			if !ok {
				return decl, errUnsupportedPoint("", field.Name,
					fmt.Sprintf("invalid cap= attribute %q", token))
			}
			decl.Capability = &Capability{Base: g.Base, Args: g.Args}
		case token == "":
		default:
			return decl, errUnsupportedPoint("", field.Name,
				fmt.Sprintf("unknown tag token %q", token))
		}
	}

	return decl, nil
}

func (d *TagDeclarations) Methods(t reflectPkg.Type) []MethodDecl {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.methods[t]
}

func (d *TagDeclarations) Constructors(t reflectPkg.Type) []ConstructorDecl {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.ctors[t]
}

type MethodOption func(*MethodDecl)

// MethodOptional marks every parameter of the setter as optional.
func MethodOptional() MethodOption {
	return func(m *MethodDecl) {
		m.Optional = true
	}
}

// MethodParamNames supplies implied names for the setter's parameters, in
// order. Go reflection exposes no parameter names, so name-based
// disambiguation needs them declared.
func MethodParamNames(names ...string) MethodOption {
	return func(m *MethodDecl) {
		m.ParamNames = names
	}
}

// MethodParamQualifiers supplies per-parameter qualifiers, in order; empty
// strings leave a parameter unqualified.
func MethodParamQualifiers(tags ...string) MethodOption {
	return func(m *MethodDecl) {
		m.ParamQualifiers = tags
	}
}

// DeclareMethod marks a setter method of T for injection.
func DeclareMethod[T any](d *TagDeclarations, name string, opts ...MethodOption) {
	decl := MethodDecl{Name: name, Marked: true}
	for _, opt := range opts {
		opt(&decl)
	}
	d.addMethod(componentType[T](), decl)
}

// DeclarePlainMethod records that T declares the named method without the
// injection marking. A plain declaration suppresses a marked declaration of
// the same method inherited from an embedded type.
func DeclarePlainMethod[T any](d *TagDeclarations, name string) {
	d.addMethod(componentType[T](), MethodDecl{Name: name})
}

func (d *TagDeclarations) addMethod(t reflectPkg.Type, decl MethodDecl) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.methods[t] = append(d.methods[t], decl)
}

type CtorOption func(*ConstructorDecl)

// CtorMarked marks the constructor for injection without making it required;
// marked non-required constructors compete in implicit mode.
func CtorMarked() CtorOption {
	return func(c *ConstructorDecl) {
		c.Marked = true
	}
}

// CtorRequired marks the constructor as the one to use; a later parameter
// resolution failure is then fatal with no fallback.
func CtorRequired() CtorOption {
	return func(c *ConstructorDecl) {
		c.Marked = true
		c.Required = true
	}
}

// CtorParamNames supplies implied names for the constructor parameters.
func CtorParamNames(names ...string) CtorOption {
	return func(c *ConstructorDecl) {
		c.ParamNames = names
	}
}

// CtorParamQualifiers supplies per-parameter qualifiers.
func CtorParamQualifiers(tags ...string) CtorOption {
	return func(c *ConstructorDecl) {
		c.ParamQualifiers = tags
	}
}

// CtorParamOptional marks the i-th constructor parameter optional: when
// nothing matches, the parameter gets its zero value instead of failing the
// construction.
func CtorParamOptional(i int) CtorOption {
	return func(c *ConstructorDecl) {
		c.OptionalParams = append(c.OptionalParams, i)
	}
}

// DeclareConstructor registers a constructor candidate for T.
func DeclareConstructor[T any](d *TagDeclarations, fn any, opts ...CtorOption) {
	decl := ConstructorDecl{Fn: fn}
	for _, opt := range opts {
		opt(&decl)
	}

	t := componentType[T]()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctors[t] = append(d.ctors[t], decl)
}

// componentType normalizes T to its struct type, dereferencing a pointer.
func componentType[T any]() reflectPkg.Type {
	t := reflectPkg.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflectPkg.Pointer {
		t = t.Elem()
	}
	return t
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
