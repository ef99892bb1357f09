package seam_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpasecinic/seam"
)

type Repository[T any] interface {
	Save(item T)
}

type StringRepository struct {
	saved []string
}

func (r *StringRepository) Save(item string) { r.saved = append(r.saved, item) }

type IntRepository struct {
	saved []int
}

func (r *IntRepository) Save(item int) { r.saved = append(r.saved, item) }

// AltStringRepository is an unrelated implementation of the same generic
// capability; matching is structural, so it competes with StringRepository.
type AltStringRepository struct{}

func (r *AltStringRepository) Save(string) {}

// LegacyRepository does not implement any Repository instantiation; it gets
// registered with a raw capability instead.
type LegacyRepository struct{}

func mustRequest(t *testing.T, typ reflect.Type) seam.ResolutionRequest {
	t.Helper()

	req, err := seam.RequestFor(typ)
	require.NoError(t, err)
	return req
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestResolveSingle(t *testing.T) {
	t.Run("zero candidates on optional point is empty", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Required = false

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, seam.ResultEmpty, result.Kind)
	})

	t.Run("zero candidates on required point is not found", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()

		req := mustRequest(t, typeOf[*TestDatabase]())

		_, err := a.Resolve(req, reg)
		require.Error(t, err)
		assert.True(t, seam.IsNotFound(err))
	})

	t.Run("exactly one candidate wins", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("db", &TestDatabase{URL: "x"}))

		result, err := a.Resolve(mustRequest(t, typeOf[*TestDatabase]()), reg)
		require.NoError(t, err)
		require.Equal(t, seam.ResultValue, result.Kind)
		assert.Equal(t, "db", result.Candidate.Name())
	})

	t.Run("two peers are ambiguous even when optional", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}))
		require.NoError(t, reg.Register("b", &TestDatabase{}))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Required = false

		_, err := a.Resolve(req, reg)
		require.Error(t, err)
		assert.True(t, seam.IsAmbiguous(err))
	})

	t.Run("implied name breaks the tie", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("primary", &TestDatabase{URL: "1"}))
		require.NoError(t, reg.Register("replica", &TestDatabase{URL: "2"}))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Name = "replica"

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, "replica", result.Candidate.Name())
	})

	t.Run("primary breaks the tie after name", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}))
		require.NoError(t, reg.Register("b", &TestDatabase{}, seam.AsPrimary()))

		result, err := a.Resolve(mustRequest(t, typeOf[*TestDatabase]()), reg)
		require.NoError(t, err)
		assert.Equal(t, "b", result.Candidate.Name())
	})

	t.Run("name match beats primary", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("wanted", &TestDatabase{}))
		require.NoError(t, reg.Register("other", &TestDatabase{}, seam.AsPrimary()))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Name = "wanted"

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, "wanted", result.Candidate.Name())
	})

	t.Run("two primaries stay ambiguous", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}, seam.AsPrimary()))
		require.NoError(t, reg.Register("b", &TestDatabase{}, seam.AsPrimary()))

		_, err := a.Resolve(mustRequest(t, typeOf[*TestDatabase]()), reg)
		require.Error(t, err)
		assert.True(t, seam.IsAmbiguous(err))
	})

	t.Run("priority never picks a single-mode winner", func(t *testing.T) {
		a := seam.New(seam.WithPriorityOrdering())
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}, seam.WithPriority(1)))
		require.NoError(t, reg.Register("b", &TestDatabase{}, seam.WithPriority(2)))

		_, err := a.Resolve(mustRequest(t, typeOf[*TestDatabase]()), reg)
		require.Error(t, err)
		assert.True(t, seam.IsAmbiguous(err))
	})
}

func TestResolveQualifier(t *testing.T) {
	t.Run("narrows by tag", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}, seam.WithQualifiers("reporting")))
		require.NoError(t, reg.Register("b", &TestDatabase{}))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Qualifier = "reporting"

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, "a", result.Candidate.Name())
	})

	t.Run("registry name counts as a qualifier", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}))
		require.NoError(t, reg.Register("b", &TestDatabase{}))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Qualifier = "b"

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, "b", result.Candidate.Name())
	})

	t.Run("qualifier narrows before cardinality", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("audit", &auditHandler{}, seam.WithQualifiers("critical")))
		require.NoError(t, reg.Register("metrics", &metricsHandler{}))
		require.NoError(t, reg.Register("trace", &traceHandler{}, seam.WithQualifiers("critical")))

		req := mustRequest(t, typeOf[[]EventHandler]())
		req.Qualifier = "critical"

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		require.Equal(t, seam.ResultValues, result.Kind)
		require.Len(t, result.Candidates, 2)
		assert.Equal(t, "audit", result.Candidates[0].Name())
		assert.Equal(t, "trace", result.Candidates[1].Name())
	})

	t.Run("no qualified candidate on required point is not found", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &TestDatabase{}))

		req := mustRequest(t, typeOf[*TestDatabase]())
		req.Qualifier = "missing"

		_, err := a.Resolve(req, reg)
		require.Error(t, err)
		assert.True(t, seam.IsNotFound(err))
	})
}

func TestResolveGenerics(t *testing.T) {
	t.Run("distinct instantiations resolve separately", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("strings", &StringRepository{}))
		require.NoError(t, reg.Register("ints", &IntRepository{}))

		stringResult, err := a.Resolve(mustRequest(t, typeOf[Repository[string]]()), reg)
		require.NoError(t, err)
		assert.Equal(t, "strings", stringResult.Candidate.Name())

		intResult, err := a.Resolve(mustRequest(t, typeOf[Repository[int]]()), reg)
		require.NoError(t, err)
		assert.Equal(t, "ints", intResult.Candidate.Name())
	})

	t.Run("structural peers compete", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("one", &StringRepository{}))
		require.NoError(t, reg.Register("two", &AltStringRepository{}))

		_, err := a.Resolve(mustRequest(t, typeOf[Repository[string]]()), reg)
		require.Error(t, err)
		assert.True(t, seam.IsAmbiguous(err))
	})

	t.Run("raw capability matches any parameterization", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("legacy", &LegacyRepository{},
			seam.WithCapability("Repository")))
		require.NoError(t, reg.Register("db", &TestDatabase{}))

		stringReq := mustRequest(t, typeOf[any]())
		stringReq.Requirement.Generic = &seam.Capability{Base: "Repository", Args: []string{"string"}}

		result, err := a.Resolve(stringReq, reg)
		require.NoError(t, err)
		assert.Equal(t, "legacy", result.Candidate.Name())

		intReq := mustRequest(t, typeOf[any]())
		intReq.Requirement.Generic = &seam.Capability{Base: "Repository", Args: []string{"int"}}

		result, err = a.Resolve(intReq, reg)
		require.NoError(t, err)
		assert.Equal(t, "legacy", result.Candidate.Name())
	})

	t.Run("explicit capability arguments separate candidates", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("strings", &LegacyRepository{},
			seam.WithCapability("Repository", "string")))
		require.NoError(t, reg.Register("ints", &LegacyRepository{},
			seam.WithCapability("Repository", "int")))

		req := mustRequest(t, typeOf[any]())
		req.Requirement.Generic = &seam.Capability{Base: "Repository", Args: []string{"int"}}

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, "ints", result.Candidate.Name())
	})
}

func TestResolveCollections(t *testing.T) {
	t.Run("all matches returned in registration order", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("audit", &auditHandler{}))
		require.NoError(t, reg.Register("metrics", &metricsHandler{}))
		require.NoError(t, reg.Register("trace", &traceHandler{}))

		result, err := a.Resolve(mustRequest(t, typeOf[[]EventHandler]()), reg)
		require.NoError(t, err)
		require.Equal(t, seam.ResultValues, result.Kind)
		require.Len(t, result.Candidates, 3)
		assert.Equal(t, "audit", result.Candidates[0].Name())
		assert.Equal(t, "metrics", result.Candidates[1].Name())
		assert.Equal(t, "trace", result.Candidates[2].Name())
	})

	t.Run("priority ordering when configured", func(t *testing.T) {
		a := seam.New(seam.WithPriorityOrdering())
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("unranked", &auditHandler{}))
		require.NoError(t, reg.Register("late", &metricsHandler{}, seam.WithPriority(10)))
		require.NoError(t, reg.Register("early", &traceHandler{}, seam.WithPriority(1)))

		result, err := a.Resolve(mustRequest(t, typeOf[[]EventHandler]()), reg)
		require.NoError(t, err)
		require.Len(t, result.Candidates, 3)
		assert.Equal(t, "early", result.Candidates[0].Name())
		assert.Equal(t, "late", result.Candidates[1].Name())
		assert.Equal(t, "unranked", result.Candidates[2].Name())
	})

	t.Run("without the option registration order stands", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("late", &metricsHandler{}, seam.WithPriority(10)))
		require.NoError(t, reg.Register("early", &traceHandler{}, seam.WithPriority(1)))

		result, err := a.Resolve(mustRequest(t, typeOf[[]EventHandler]()), reg)
		require.NoError(t, err)
		assert.Equal(t, "late", result.Candidates[0].Name())
	})

	t.Run("no ambiguity concept for collections", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("a", &auditHandler{}))
		require.NoError(t, reg.Register("b", &auditHandler{}))

		result, err := a.Resolve(mustRequest(t, typeOf[[]EventHandler]()), reg)
		require.NoError(t, err)
		assert.Len(t, result.Candidates, 2)
	})

	t.Run("empty required collection is not found", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()

		_, err := a.Resolve(mustRequest(t, typeOf[[]EventHandler]()), reg)
		require.Error(t, err)
		assert.True(t, seam.IsNotFound(err))
	})

	t.Run("empty optional collection is empty", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()

		req := mustRequest(t, typeOf[[]EventHandler]())
		req.Required = false

		result, err := a.Resolve(req, reg)
		require.NoError(t, err)
		assert.Equal(t, seam.ResultEmpty, result.Kind)
	})

	t.Run("generic element types filter collections", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("strings", &StringRepository{}))
		require.NoError(t, reg.Register("ints", &IntRepository{}))

		result, err := a.Resolve(mustRequest(t, typeOf[[]Repository[string]]()), reg)
		require.NoError(t, err)
		require.Len(t, result.Candidates, 1)
		assert.Equal(t, "strings", result.Candidates[0].Name())
	})
}

func TestResolveMap(t *testing.T) {
	t.Run("results pair with registry names", func(t *testing.T) {
		a := seam.New()
		reg := seam.NewRegistry()
		require.NoError(t, reg.Register("audit", &auditHandler{}))
		require.NoError(t, reg.Register("metrics", &metricsHandler{}))

		result, err := a.Resolve(mustRequest(t, typeOf[map[string]EventHandler]()), reg)
		require.NoError(t, err)
		require.Equal(t, seam.ResultValues, result.Kind)
		assert.Len(t, result.Candidates, 2)
	})

	t.Run("non-string key is rejected up front", func(t *testing.T) {
		_, err := seam.RequestFor(typeOf[map[int]EventHandler]())
		assert.Error(t, err)
	})
}
