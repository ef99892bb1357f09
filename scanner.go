package seam

import (
	"errors"
	reflectPkg "reflect"

	"github.com/danpasecinic/seam/internal/reflect"
)

type PointKind int

const (
	PointField PointKind = iota
	PointMethod
)

// InjectionPoint is one injectable slot on a component: a field, or a setter
// method whose parameters are all filled by a single invocation. Immutable
// once built.
type InjectionPoint struct {
	Kind PointKind
	// Name is the field or method name, used for attribution.
	Name string
	// FieldIndex is the index path from the root struct (fields only).
	FieldIndex []int
	// Requests holds one request per value the point takes: exactly one for
	// fields, one per parameter for setters.
	Requests []ResolutionRequest
	// Optional points swallow NotFound (the slot keeps its zero value);
	// ambiguity is fatal either way.
	Optional bool

	declaring reflectPkg.Type
}

// ClassMetadata is the ordered injectable surface of a component type, built
// once and shared read-only across all instances. Points of embedded (base)
// types come before the outer type's own points.
type ClassMetadata struct {
	Type      reflectPkg.Type
	Component string
	Points    []InjectionPoint
}

type chainLevel struct {
	typ  reflectPkg.Type
	path []int
}

// flattenChain lists the component struct and every embedded struct,
// breadth-first, so shallower declarations are visited before the ones they
// shadow. Pointer embeds are followed; embedding cycles are cut.
func flattenChain(root reflectPkg.Type) []chainLevel {
	levels := []chainLevel{{typ: root}}
	seen := map[reflectPkg.Type]bool{root: true}

	for qi := 0; qi < len(levels); qi++ {
		level := levels[qi]
		for i := 0; i < level.typ.NumField(); i++ {
			field := level.typ.Field(i)
			if !field.Anonymous {
				continue
			}

			ft := field.Type
			for ft.Kind() == reflectPkg.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() != reflectPkg.Struct || seen[ft] {
				continue
			}
			seen[ft] = true

			path := make([]int, len(level.path)+1)
			copy(path, level.path)
			path[len(level.path)] = i
			levels = append(levels, chainLevel{typ: ft, path: path})
		}
	}

	return levels
}

// buildMetadata scans a component type into its injection-point metadata.
// The walk is most-derived first so that shadowing declarations suppress or
// replace embedded ones; emitted order is base points first.
func buildMetadata(t reflectPkg.Type, decls Declarations) (*ClassMetadata, error) {
	base := t
	for base.Kind() == reflectPkg.Pointer {
		base = base.Elem()
	}

	component := reflect.TypeKeyFromType(base)
	if base.Kind() != reflectPkg.Struct {
		return nil, errUnsupportedPoint(component, "", "component must be a struct or pointer to struct")
	}

	levels := flattenChain(base)
	perLevel := make([][]InjectionPoint, len(levels))
	claimedFields := make(map[string]bool)
	claimedMethods := make(map[string]bool)

	for li, level := range levels {
		fieldDecls, err := decls.Fields(level.typ)
		if err != nil {
			var resErr *Error
			if errors.As(err, &resErr) {
				return nil, attribute(resErr, component, "")
			}
			return nil, errUnsupportedPoint(component, "", err.Error())
		}

		var points []InjectionPoint
		for _, fd := range fieldDecls {
			if claimedFields[fd.Name] {
				// Shadowed by a shallower field: suppressed when that field
				// is untagged, already replaced when it is tagged.
				continue
			}

			point, err := buildFieldPoint(component, level, fd)
			if err != nil {
				return nil, err
			}
			points = append(points, point)
		}

		for _, md := range decls.Methods(level.typ) {
			if claimedMethods[md.Name] {
				continue
			}
			claimedMethods[md.Name] = true

			if !md.Marked {
				// Plain redeclaration: the inherited marking is suppressed.
				continue
			}

			point, err := buildMethodPoint(component, base, level, md)
			if err != nil {
				return nil, err
			}
			points = append(points, point)
		}

		// Every own field of this level shadows same-named fields of deeper
		// levels, tagged or not.
		for i := 0; i < level.typ.NumField(); i++ {
			if f := level.typ.Field(i); !f.Anonymous {
				claimedFields[f.Name] = true
			}
		}

		perLevel[li] = points
	}

	md := &ClassMetadata{Type: base, Component: component}
	for li := len(levels) - 1; li >= 0; li-- {
		md.Points = append(md.Points, perLevel[li]...)
	}
	return md, nil
}

func buildFieldPoint(component string, level chainLevel, fd FieldDecl) (InjectionPoint, error) {
	field := level.typ.Field(fd.Index)
	if field.PkgPath != "" {
		return InjectionPoint{}, errUnsupportedPoint(component, fd.Name, "injectable field must be exported")
	}

	req, err := RequestFor(field.Type)
	if err != nil {
		return InjectionPoint{}, errUnsupportedPoint(component, fd.Name, err.Error())
	}

	req.Name = fd.ImpliedName
	req.Qualifier = fd.Qualifier
	req.Required = !fd.Optional
	if fd.Capability != nil {
		req.Requirement.Generic = fd.Capability
	}

	path := make([]int, len(level.path)+1)
	copy(path, level.path)
	path[len(level.path)] = fd.Index

	return InjectionPoint{
		Kind:       PointField,
		Name:       fd.Name,
		FieldIndex: path,
		Requests:   []ResolutionRequest{req},
		Optional:   fd.Optional,
		declaring:  level.typ,
	}, nil
}

func buildMethodPoint(component string, base reflectPkg.Type, level chainLevel, md MethodDecl) (InjectionPoint, error) {
	method, ok := reflectPkg.PointerTo(base).MethodByName(md.Name)
	if !ok {
		return InjectionPoint{}, errUnsupportedPoint(component, md.Name, "declared setter method not found")
	}

	mt := method.Func.Type()
	numParams := mt.NumIn() - 1
	if numParams < 1 {
		return InjectionPoint{}, errUnsupportedPoint(component, md.Name, "setter must take at least one parameter")
	}

	requests := make([]ResolutionRequest, numParams)
	for i := 0; i < numParams; i++ {
		req, err := RequestFor(mt.In(i + 1))
		if err != nil {
			return InjectionPoint{}, errUnsupportedPoint(component, md.Name, err.Error())
		}

		if i < len(md.ParamNames) {
			req.Name = md.ParamNames[i]
		}
		if i < len(md.ParamQualifiers) {
			req.Qualifier = md.ParamQualifiers[i]
		}
		req.Required = !md.Optional
		requests[i] = req
	}

	return InjectionPoint{
		Kind:      PointMethod,
		Name:      md.Name,
		Requests:  requests,
		Optional:  md.Optional,
		declaring: level.typ,
	}, nil
}
