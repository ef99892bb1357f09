package reflect

import (
	"reflect"
	"strings"
	"sync"
)

// Generic is the parsed form of an instantiated generic type name, e.g.
// "pkg.Repository[string]" becomes {Base: "pkg.Repository", Args: ["string"]}.
// An empty Args slice denotes a raw capability that matches any
// parameterization of the same base.
type Generic struct {
	Base string
	Args []string
}

// ParseGeneric extracts the generic base and type arguments from an
// instantiated generic type. Pointers are dereferenced first. Non-generic
// types (including slices and maps, whose names contain no brackets) report
// ok=false.
func ParseGeneric(t reflect.Type) (Generic, bool) {
	if t == nil {
		return Generic{}, false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	name := t.Name()
	if i := strings.IndexByte(name, '['); i < 0 || !strings.HasSuffix(name, "]") {
		return Generic{}, false
	}

	return ParseGenericString(t.String())
}

// ParseGenericString parses a textual generic form, either fully
// parameterized ("Repository[string]") or raw ("Repository"). Argument
// strings must be written the way the reflect package prints them
// (package-qualified for named types).
func ParseGenericString(s string) (Generic, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Generic{}, false
	}

	i := strings.IndexByte(s, '[')
	if i < 0 {
		return Generic{Base: s}, true
	}
	if i == 0 || !strings.HasSuffix(s, "]") {
		return Generic{}, false
	}

	args := splitTypeArgs(s[i+1 : len(s)-1])
	if len(args) == 0 {
		return Generic{}, false
	}
	return Generic{Base: s[:i], Args: args}, true
}

// splitTypeArgs splits a type-argument list on top-level commas, leaving
// nested bracketed forms like "map[string]int" or "Pair[int,string]" intact.
func splitTypeArgs(s string) []string {
	var (
		args  []string
		depth int
		start int
	)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}

	last := strings.TrimSpace(s[start:])
	if last == "" {
		return nil
	}
	return append(args, last)
}

// BaseMatches reports whether two generic base names identify the same
// capability. A package-qualified base and an unqualified one match on the
// short name; two differently qualified bases never match.
func BaseMatches(a, b string) bool {
	if a == b {
		return true
	}
	if shortBase(a) != shortBase(b) {
		return false
	}
	return !strings.Contains(a, ".") || !strings.Contains(b, ".")
}

func shortBase(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ArgsMatch reports whether a candidate's declared type arguments satisfy the
// required ones. Either side being raw (no arguments) is permissive and
// matches any parameterization.
func ArgsMatch(have, want []string) bool {
	if len(have) == 0 || len(want) == 0 {
		return true
	}
	if len(have) != len(want) {
		return false
	}
	for i := range have {
		if have[i] != want[i] {
			return false
		}
	}
	return true
}

var capabilityCache sync.Map

// TypeCapabilities returns the generic capabilities a type carries: its own
// parsed instantiation plus those of every embedded (anonymous) field,
// recursively. Embedding an instantiated generic base is how a type fixes the
// base's type arguments, so the walk yields fully substituted capabilities.
func TypeCapabilities(t reflect.Type) []Generic {
	if t == nil {
		return nil
	}
	if cached, ok := capabilityCache.Load(t); ok {
		return cached.([]Generic)
	}

	caps := collectCapabilities(t, make(map[reflect.Type]bool))
	actual, _ := capabilityCache.LoadOrStore(t, caps)
	return actual.([]Generic)
}

func collectCapabilities(t reflect.Type, seen map[reflect.Type]bool) []Generic {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if seen[t] {
		return nil
	}
	seen[t] = true

	var caps []Generic
	if g, ok := ParseGeneric(t); ok {
		caps = append(caps, g)
	}

	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				caps = append(caps, collectCapabilities(field.Type, seen)...)
			}
		}
	}

	return caps
}
