// Package seamtest provides test helpers for wiring components in tests: a
// registry/engine harness with require-style registration and building.
package seamtest

import (
	"github.com/danpasecinic/seam"
)

type TB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

// Harness bundles an engine and a registry for a test, with helpers that fail
// the test instead of returning errors.
type Harness struct {
	*seam.Autowirer
	Registry *seam.MemoryRegistry

	tb TB
}

func New(tb TB, opts ...seam.Option) *Harness {
	tb.Helper()

	return &Harness{
		Autowirer: seam.New(opts...),
		Registry:  seam.NewRegistry(),
		tb:        tb,
	}
}

func (h *Harness) MustRegister(name string, value any, opts ...seam.RegisterOption) {
	h.tb.Helper()

	if err := h.Registry.Register(name, value, opts...); err != nil {
		h.tb.Fatalf("failed to register candidate %q: %v", name, err)
	}
}

func (h *Harness) MustRegisterFactory(name string, fn any, opts ...seam.RegisterOption) {
	h.tb.Helper()

	if err := h.Registry.RegisterFactory(name, fn, opts...); err != nil {
		h.tb.Fatalf("failed to register factory %q: %v", name, err)
	}
}

// RequireBuild constructs and injects a component of type T, failing the test
// on any resolution error.
func RequireBuild[T any](h *Harness) T {
	h.tb.Helper()

	v, err := seam.Build[T](h.Autowirer, h.Registry)
	if err != nil {
		h.tb.Fatalf("failed to build component: %v", err)
	}
	return v
}

// RequireInject fills the injection points of an existing instance, failing
// the test on any resolution error.
func (h *Harness) RequireInject(instance any) {
	h.tb.Helper()

	if err := h.InjectInto(instance, h.Registry); err != nil {
		h.tb.Fatalf("failed to inject: %v", err)
	}
}

// RequireResolve runs a raw resolution request, failing the test on error.
func (h *Harness) RequireResolve(req seam.ResolutionRequest) seam.ResolutionResult {
	h.tb.Helper()

	result, err := h.Resolve(req, h.Registry)
	if err != nil {
		h.tb.Fatalf("failed to resolve: %v", err)
	}
	return result
}
