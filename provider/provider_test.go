package provider

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndFind(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("custom/a", "com.example", "A")
	require.NoError(t, err)

	got := r.FindByName("custom/a")
	require.Len(t, got, 1)
	assert.Equal(t, Binding[string]{Name: "custom/a", Origin: "com.example", Impl: "A"}, got[0])
	assert.Empty(t, r.FindByName("custom/b"))
	assert.Empty(t, r.FindByName("Custom/A"))
}

func TestRegistry_EmptyName(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("", "x", "A")
	require.ErrorIs(t, err, ErrEmptyName)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_NilFindsNothing(t *testing.T) {
	var r *Registry[string]
	assert.Nil(t, r.FindByName("custom/a"))
}

func TestRegistry_DuplicatesKept(t *testing.T) {
	r := NewRegistry[string]()
	_, err := r.Register("dup", "a", "A")
	require.NoError(t, err)
	_, err = r.Register("dup", "b", "B")
	require.NoError(t, err)
	assert.Len(t, r.FindByName("dup"), 2)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"dup"}, r.Names())
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry[string]()
	first, err := r.Register("dup", "a", "A")
	require.NoError(t, err)
	second, err := r.Register("dup", "b", "B")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.True(t, r.Unregister(first))
	require.False(t, r.Unregister(first))
	got := r.FindByName("dup")
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Impl)

	require.True(t, r.Unregister(second))
	assert.Empty(t, r.FindByName("dup"))
	assert.Empty(t, r.Names())
}

func TestRegistry_SnapshotIsolation(t *testing.T) {
	r := NewRegistry[string]()
	reg, err := r.Register("n", "o", "A")
	require.NoError(t, err)
	snap := r.FindByName("n")
	r.Unregister(reg)
	require.Len(t, snap, 1)
	assert.Equal(t, "A", snap[0].Impl)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			reg, err := r.Register(fmt.Sprintf("n%d", i%5), "o", i)
			if err == nil && i%2 == 0 {
				r.Unregister(reg)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			_ = r.FindByName(fmt.Sprintf("n%d", i%5))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 25, r.Len())
}
