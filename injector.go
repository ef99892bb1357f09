package seam

import (
	"errors"
	reflectPkg "reflect"
	"unsafe"

	"github.com/danpasecinic/seam/internal/reflect"
)

// attribute stamps component/point identity onto a resolution error that does
// not carry one yet.
func attribute(err error, component, point string) error {
	var e *Error
	if !errors.As(err, &e) {
		return newError(ErrCodeUnknown, "resolution failed", err).
			WithComponent(component).WithPoint(point)
	}
	if e.Component == "" {
		e.Component = component
	}
	if e.Point == "" {
		e.Point = point
	}
	return e
}

// assembleValue turns a resolution result into the value a point takes:
// the candidate's materialized value for single mode, a freshly built slice,
// array, or name-keyed map for the collection modes, and the zero value when
// nothing was found.
func assembleValue(req ResolutionRequest, result ResolutionResult) (reflectPkg.Value, error) {
	t := req.Requirement.Type

	switch result.Kind {
	case ResultEmpty:
		return reflectPkg.Zero(t), nil

	case ResultValue:
		return materialize(result.Candidate, t)

	default:
		switch req.Cardinality {
		case CardinalitySlice:
			out := reflectPkg.MakeSlice(t, len(result.Candidates), len(result.Candidates))
			for i, c := range result.Candidates {
				v, err := materialize(c, t.Elem())
				if err != nil {
					return reflectPkg.Value{}, err
				}
				out.Index(i).Set(v)
			}
			return out, nil

		case CardinalityArray:
			if len(result.Candidates) > t.Len() {
				return reflectPkg.Value{}, newError(ErrCodeAssignmentFailed,
					"more matching candidates than the array holds", nil)
			}
			out := reflectPkg.New(t).Elem()
			for i, c := range result.Candidates {
				v, err := materialize(c, t.Elem())
				if err != nil {
					return reflectPkg.Value{}, err
				}
				out.Index(i).Set(v)
			}
			return out, nil

		case CardinalityMap:
			out := reflectPkg.MakeMapWithSize(t, len(result.Candidates))
			for _, c := range result.Candidates {
				v, err := materialize(c, t.Elem())
				if err != nil {
					return reflectPkg.Value{}, err
				}
				out.SetMapIndex(reflectPkg.ValueOf(c.name), v)
			}
			return out, nil

		default:
			return reflectPkg.Value{}, newError(ErrCodeUnknown,
				"multi-candidate result for a single-mode request", nil)
		}
	}
}

// materialize fetches a candidate's value and checks it actually fits the
// slot. A raw capability match whose runtime value turns out incompatible
// surfaces here, not during matching.
func materialize(c *Candidate, want reflectPkg.Type) (reflectPkg.Value, error) {
	v, err := c.Get()
	if err != nil {
		return reflectPkg.Value{}, err
	}
	if reflect.IsNil(v) {
		return reflectPkg.Zero(want), nil
	}

	rv := reflectPkg.ValueOf(v)
	if !rv.Type().AssignableTo(want) {
		return reflectPkg.Value{}, errAssignmentFailed(rv.Type().String(), want.String())
	}
	return rv, nil
}

// applyPoint resolves every request of one injection point and performs the
// write: a field set, or a single method invocation with all parameters
// assembled. Nothing is written until every request has resolved.
func applyPoint(instance reflectPkg.Value, md *ClassMetadata, pt InjectionPoint, reg Registry, res *resolver) error {
	values := make([]reflectPkg.Value, len(pt.Requests))

	for i, req := range pt.Requests {
		result, err := res.resolve(req, reg)
		if err != nil {
			return attribute(err, md.Component, pt.Name)
		}

		if result.Kind == ResultEmpty && req.Cardinality == CardinalitySingle {
			// Optional point with nothing found: the slot keeps its zero
			// value, a setter is not invoked at all.
			return nil
		}

		values[i], err = assembleValue(req, result)
		if err != nil {
			return attribute(err, md.Component, pt.Name)
		}
	}

	switch pt.Kind {
	case PointField:
		field, err := fieldByIndexAlloc(instance.Elem(), pt.FieldIndex)
		if err != nil {
			return errUnsupportedPoint(md.Component, pt.Name, err.Error())
		}
		field.Set(values[0])
		return nil

	default:
		method := instance.MethodByName(pt.Name)
		if !method.IsValid() {
			return errUnsupportedPoint(md.Component, pt.Name, "declared setter method not found")
		}
		method.Call(values)
		return nil
	}
}

// fieldByIndexAlloc walks an index path like Value.FieldByIndex but allocates
// nil embedded pointers along the way instead of panicking.
func fieldByIndexAlloc(v reflectPkg.Value, index []int) (reflectPkg.Value, error) {
	for i, x := range index {
		if i > 0 {
			for v.Kind() == reflectPkg.Pointer {
				if v.IsNil() {
					if err := allocPointer(v); err != nil {
						return reflectPkg.Value{}, err
					}
				}
				v = v.Elem()
			}
		}
		v = v.Field(x)
	}
	return v, nil
}

// allocPointer sets a nil pointer field to a fresh allocation. Unexported
// embedded pointers are read-only to reflect even though their promoted
// exported fields are settable, so those are written through the address.
func allocPointer(v reflectPkg.Value) error {
	fresh := reflectPkg.New(v.Type().Elem())
	if v.CanSet() {
		v.Set(fresh)
		return nil
	}
	if !v.CanAddr() {
		return errors.New("cannot allocate embedded pointer")
	}
	reflectPkg.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem().Set(fresh)
	return nil
}
