package resolve

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/slingql/namespace"
	"github.com/Protocol-Lattice/slingql/provider"
)

// countingFallback is a map-backed fallback that records how often it is asked.
type countingFallback struct {
	bindings map[string]provider.Binding[string]
	calls    atomic.Int32
}

func (f *countingFallback) GetByName(name string) (provider.Binding[string], bool) {
	f.calls.Add(1)
	b, ok := f.bindings[name]
	return b, ok
}

func newFallback(bindings ...provider.Binding[string]) *countingFallback {
	f := &countingFallback{bindings: map[string]provider.Binding[string]{}}
	for _, b := range bindings {
		f.bindings[b.Name] = b
	}
	return f
}

func TestResolve_AbsentIsNotAnError(t *testing.T) {
	fb := newFallback()
	r := New[string](provider.NewRegistry[string](), fb)

	impl, ok, err := r.Resolve("nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, impl)
	assert.EqualValues(t, 1, fb.calls.Load())
}

func TestResolve_NilFallback(t *testing.T) {
	r := New[string](provider.NewRegistry[string](), nil)
	_, ok, err := r.Resolve("nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_NilRegistryUsesFallback(t *testing.T) {
	var pool *provider.Registry[string]
	fb := newFallback(provider.Binding[string]{Name: "custom/greeting", Origin: "script:a.yaml", Impl: "hi"})
	impl, ok, err := New[string](pool, fb).Resolve("custom/greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi", impl)
}

func TestResolve_EmptyName(t *testing.T) {
	r := New[string](provider.NewRegistry[string](), nil)
	_, _, err := r.Resolve("")
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestResolve_SinglePrimarySkipsFallback(t *testing.T) {
	pool := provider.NewRegistry[string]()
	_, err := pool.Register("custom/a", "com.example", "A")
	require.NoError(t, err)
	fb := newFallback(provider.Binding[string]{Name: "custom/a", Impl: "scripted"})

	impl, ok, err := New[string](pool, fb).Resolve("custom/a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "A", impl)
	assert.EqualValues(t, 0, fb.calls.Load())
}

func TestResolve_AmbiguousSkipsFallback(t *testing.T) {
	pool := provider.NewRegistry[string]()
	for _, impl := range []string{"A", "B", "C"} {
		_, err := pool.Register("custom/a", "com.example", impl)
		require.NoError(t, err)
	}
	fb := newFallback(provider.Binding[string]{Name: "custom/a", Impl: "scripted"})

	_, ok, err := New[string](pool, fb).Resolve("custom/a")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrAmbiguous)
	assert.NotErrorIs(t, err, ErrReservedNamespace)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, Ambiguous, rerr.Kind)
	assert.Equal(t, "custom/a", rerr.Name)
	assert.Equal(t, 3, rerr.Count)
	assert.EqualValues(t, 0, fb.calls.Load())
}

func TestResolve_ReservedNamespace(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		wantErr bool
	}{
		{"sling/json", "org.apache.sling.x", false},
		{"sling/json", "com.example.y", true},
		{"custom/json", "com.example.y", false},
		{"custom/json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name+"@"+tt.origin, func(t *testing.T) {
			pool := provider.NewRegistry[string]()
			_, err := pool.Register(tt.name, tt.origin, "FetcherA")
			require.NoError(t, err)
			fb := newFallback()

			impl, ok, err := New[string](pool, fb).Resolve(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrReservedNamespace)
				assert.False(t, ok)
				var rerr *Error
				require.True(t, errors.As(err, &rerr))
				assert.Equal(t, ReservedNamespaceViolation, rerr.Kind)
				assert.Equal(t, tt.origin, rerr.Origin)
				assert.Contains(t, err.Error(), "sling/")
			} else {
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, "FetcherA", impl)
			}
			assert.EqualValues(t, 0, fb.calls.Load())
		})
	}
}

func TestResolve_FallbackScenario(t *testing.T) {
	fb := newFallback(provider.Binding[string]{Name: "custom/greeting", Origin: "script:greeting.yaml", Impl: "FetcherB"})
	r := New[string](provider.NewRegistry[string](), fb)

	impl, ok, err := r.Resolve("custom/greeting")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "FetcherB", impl)
	assert.EqualValues(t, 1, fb.calls.Load())
}

func TestResolve_FallbackUncheckedByDefault(t *testing.T) {
	fb := newFallback(provider.Binding[string]{Name: "sling/spoof", Origin: "script:evil.yaml", Impl: "spoof"})

	impl, ok, err := New[string](provider.NewRegistry[string](), fb).Resolve("sling/spoof")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "spoof", impl)

	_, ok, err = New[string](provider.NewRegistry[string](), fb, WithFallbackValidation(true)).Resolve("sling/spoof")
	require.ErrorIs(t, err, ErrReservedNamespace)
	assert.False(t, ok)
}

func TestResolve_CustomRule(t *testing.T) {
	pool := provider.NewRegistry[string]()
	_, err := pool.Register("acme/x", "io.acme.core", "X")
	require.NoError(t, err)
	_, err = pool.Register("sling/y", "com.example", "Y")
	require.NoError(t, err)

	r := New[string](pool, nil, WithRule(namespace.Rule{ReservedPrefix: "acme/", TrustedPrefix: "io.acme."}))
	impl, ok, err := r.Resolve("acme/x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "X", impl)

	impl, ok, err = r.Resolve("sling/y")
	require.NoError(t, err, "sling/ is not reserved under a custom rule")
	assert.True(t, ok)
	assert.Equal(t, "Y", impl)
}

func TestResolve_DoesNotMutatePool(t *testing.T) {
	pool := provider.NewRegistry[string]()
	_, err := pool.Register("sling/bad", "com.example", "bad")
	require.NoError(t, err)
	r := New[string](pool, nil)
	for i := 0; i < 3; i++ {
		_, _, err := r.Resolve("sling/bad")
		require.Error(t, err)
	}
	assert.Equal(t, 1, pool.Len())
}

func TestResolve_ConcurrentWithPoolChanges(t *testing.T) {
	pool := provider.NewRegistry[string]()
	r := New[string](pool, newFallback())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg, err := pool.Register("custom/flaky", "com.example", "F")
			if err == nil {
				pool.Unregister(reg)
			}
		}()
		go func() {
			defer wg.Done()
			impl, ok, err := r.Resolve("custom/flaky")
			if err != nil {
				assert.ErrorIs(t, err, ErrAmbiguous)
				return
			}
			if ok {
				assert.Equal(t, "F", impl)
			}
		}()
	}
	wg.Wait()
}

func TestResolveBinding_ReturnsOrigin(t *testing.T) {
	pool := provider.NewRegistry[string]()
	_, err := pool.Register("sling/json", "org.apache.sling.x", "A")
	require.NoError(t, err)

	b, ok, err := New[string](pool, nil).ResolveBinding("sling/json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "org.apache.sling.x", b.Origin)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ambiguous", Ambiguous.String())
	assert.Equal(t, "reserved namespace violation", ReservedNamespaceViolation.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
