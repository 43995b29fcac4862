package catalog

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memonize/memonize/internal/domain/entities"
)

func mustLoad(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load()
	require.NoError(t, err)
	return c
}

func TestLoad_TableInvariants(t *testing.T) {
	c := mustLoad(t)

	require.Len(t, c.Items(), 100)
	require.Len(t, c.Categories(), 10)

	// Every number 1..100 resolves to an item with that number.
	for n := 1; n <= 100; n++ {
		item, err := c.ItemByNumber(n)
		require.NoError(t, err)
		assert.Equal(t, n, item.Number)
		assert.NotEmpty(t, item.Word)
		assert.NotEmpty(t, item.Emoji)
	}

	// Category ranges partition 1..100: pairwise disjoint, each 10 wide.
	seen := make(map[int]bool)
	for _, cat := range c.Categories() {
		assert.Equal(t, 9, cat.EndNum-cat.StartNum, "category %s", cat.ID)
		for n := cat.StartNum; n <= cat.EndNum; n++ {
			assert.False(t, seen[n], "number %d covered twice", n)
			seen[n] = true
		}
	}
	assert.Len(t, seen, 100)
}

func TestItemByNumber_OutOfRange(t *testing.T) {
	c := mustLoad(t)

	for _, n := range []int{0, -1, 101, 1000} {
		_, err := c.ItemByNumber(n)
		assert.ErrorIs(t, err, ErrItemNotFound, "number %d", n)
	}
}

func TestCategoryByID(t *testing.T) {
	c := mustLoad(t)

	cat, err := c.CategoryByID("places")
	require.NoError(t, err)
	assert.Equal(t, 1, cat.StartNum)
	assert.Equal(t, 10, cat.EndNum)

	_, err = c.CategoryByID("nonexistent")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestItemsByCategory_NumericOrder(t *testing.T) {
	c := mustLoad(t)

	items := c.ItemsByCategory("body")
	require.Len(t, items, 10)
	for i, item := range items {
		assert.Equal(t, 51+i, item.Number)
		assert.Equal(t, "body", item.CategoryID)
	}

	assert.Empty(t, c.ItemsByCategory("nonexistent"))
}

func TestRandomItems_NoDuplicates(t *testing.T) {
	c := mustLoad(t)
	rng := rand.New(rand.NewSource(42))

	got := c.RandomItems(rng, 20, "")
	require.Len(t, got, 20)

	seen := make(map[int]bool)
	for _, item := range got {
		assert.False(t, seen[item.Number], "duplicate item %d", item.Number)
		seen[item.Number] = true
	}
}

func TestRandomItems_CountExceedsPool(t *testing.T) {
	c := mustLoad(t)
	rng := rand.New(rand.NewSource(1))

	got := c.RandomItems(rng, 500, "weather")
	assert.Len(t, got, 10)

	got = c.RandomItems(rng, 500, "")
	assert.Len(t, got, 100)

	assert.Empty(t, c.RandomItems(rng, 0, ""))
}

func TestRandomItems_CategoryPool(t *testing.T) {
	c := mustLoad(t)
	rng := rand.New(rand.NewSource(7))

	for _, item := range c.RandomItems(rng, 5, "vehicles") {
		assert.Equal(t, "vehicles", item.CategoryID)
	}
}

func TestNeighbors(t *testing.T) {
	c := mustLoad(t)

	n, err := c.Neighbors(1)
	require.NoError(t, err)
	assert.Nil(t, n.Prev)
	require.NotNil(t, n.Next)
	assert.Equal(t, 2, n.Next.Number)

	n, err = c.Neighbors(100)
	require.NoError(t, err)
	require.NotNil(t, n.Prev)
	assert.Equal(t, 99, n.Prev.Number)
	assert.Nil(t, n.Next)

	for _, num := range []int{2, 50, 99} {
		n, err = c.Neighbors(num)
		require.NoError(t, err)
		require.NotNil(t, n.Prev)
		require.NotNil(t, n.Next)
		assert.Equal(t, num-1, n.Prev.Number)
		assert.Equal(t, num+1, n.Next.Number)
	}

	_, err = c.Neighbors(0)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestNew_RejectsBrokenTables(t *testing.T) {
	c := mustLoad(t)
	items := c.Items()
	categories := c.Categories()

	t.Run("duplicate number", func(t *testing.T) {
		broken := append([]entities.Item(nil), items...)
		broken[1].Number = 1
		_, err := New(broken, categories)
		assert.Error(t, err)
	})

	t.Run("missing item", func(t *testing.T) {
		_, err := New(items[:99], categories)
		assert.Error(t, err)
	})

	t.Run("overlapping ranges", func(t *testing.T) {
		broken := append([]entities.Category(nil), categories...)
		broken[1].StartNum = 10
		broken[1].EndNum = 19
		_, err := New(items, broken)
		assert.Error(t, err)
	})

	t.Run("unknown category reference", func(t *testing.T) {
		broken := append([]entities.Item(nil), items...)
		broken[0].CategoryID = "unknown"
		_, err := New(broken, categories)
		assert.Error(t, err)
	})
}
