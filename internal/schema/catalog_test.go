package schema

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// namedObject is a minimal catalog occupant for tests.
type namedObject struct{ name string }

func (o *namedObject) Name() string { return o.name }

func TestCatalogBindAndLookup(t *testing.T) {
	cat := NewCatalog()
	obj := &namedObject{name: "Tweet_foo"}

	require.NoError(t, cat.Bind(obj))

	got, ok := cat.Lookup("Tweet_foo")
	require.True(t, ok)
	assert.Same(t, obj, got.(*namedObject))
}

func TestCatalogBindSameObjectIsNoop(t *testing.T) {
	cat := NewCatalog()
	obj := &namedObject{name: "Tweet_foo"}

	require.NoError(t, cat.Bind(obj))
	require.NoError(t, cat.Bind(obj))
	assert.Equal(t, 1, cat.Len())
}

func TestCatalogBindCollisionLeavesExistingUntouched(t *testing.T) {
	cat := NewCatalog()
	first := &namedObject{name: "Tweet_foo"}
	second := &namedObject{name: "Tweet_foo"}

	require.NoError(t, cat.Bind(first))
	err := cat.Bind(second)
	require.Error(t, err)
	assert.True(t, IsNameCollision(err))

	got, ok := cat.Lookup("Tweet_foo")
	require.True(t, ok)
	assert.Same(t, first, got.(*namedObject), "collision must never overwrite")
}

func TestCatalogNamesPreserveBindingOrder(t *testing.T) {
	cat := NewCatalog()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, cat.Bind(&namedObject{name: name}))
	}
	assert.Equal(t, []string{"c", "a", "b"}, cat.Names())
}

func TestCatalogConcurrentBindAndLookup(t *testing.T) {
	cat := NewCatalog()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = cat.Bind(&namedObject{name: fmt.Sprintf("obj_%d", i)})
		}(i)
		go func(i int) {
			defer wg.Done()
			cat.Lookup(fmt.Sprintf("obj_%d", i))
			cat.Names()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, cat.Len())
}
