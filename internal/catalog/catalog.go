// Package catalog exposes the fixed 100-item, 10-category recall table and
// pure lookup/sampling helpers over it. The dataset is embedded at build
// time and validated once at load; the catalog is immutable afterwards.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	_ "embed"

	"github.com/memonize/memonize/internal/domain/entities"
)

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const (
	minNumber     = 1
	maxNumber     = 100
	categoryCount = 10
	categorySpan  = 10
)

//go:embed data/table.json
var tableJSON []byte

// Catalog holds the recall table. Items are kept in numeric order and
// indexed by number and by category.
type Catalog struct {
	items      []entities.Item
	categories []entities.Category
	byNumber   map[int]*entities.Item
	byCategory map[string][]entities.Item
	categoryID map[string]*entities.Category
}

// Load parses and validates the embedded dataset.
func Load() (*Catalog, error) {
	var wrapper struct {
		Categories []entities.Category `json:"categories"`
		Items      []entities.Item     `json:"items"`
	}
	if err := json.Unmarshal(tableJSON, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal table JSON: %w", err)
	}

	return New(wrapper.Items, wrapper.Categories)
}

// New builds a catalog from an explicit dataset and validates the table
// invariants. Load is the production entry point.
func New(items []entities.Item, categories []entities.Category) (*Catalog, error) {
	c := &Catalog{
		items:      append([]entities.Item(nil), items...),
		categories: append([]entities.Category(nil), categories...),
		byNumber:   make(map[int]*entities.Item, len(items)),
		byCategory: make(map[string][]entities.Item),
		categoryID: make(map[string]*entities.Category, len(categories)),
	}

	sort.Slice(c.items, func(i, j int) bool { return c.items[i].Number < c.items[j].Number })

	for i := range c.categories {
		cat := &c.categories[i]
		if _, dup := c.categoryID[cat.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %q", cat.ID)
		}
		c.categoryID[cat.ID] = cat
	}

	for i := range c.items {
		item := &c.items[i]
		if _, dup := c.byNumber[item.Number]; dup {
			return nil, fmt.Errorf("duplicate item number %d", item.Number)
		}
		cat, ok := c.categoryID[item.CategoryID]
		if !ok {
			return nil, fmt.Errorf("item %d references unknown category %q", item.Number, item.CategoryID)
		}
		if !cat.Contains(item.Number) {
			return nil, fmt.Errorf("item %d outside range of category %q", item.Number, cat.ID)
		}
		c.byNumber[item.Number] = item
		c.byCategory[item.CategoryID] = append(c.byCategory[item.CategoryID], *item)
	}

	if err := c.validatePartition(); err != nil {
		return nil, err
	}

	return c, nil
}

// validatePartition checks that the categories partition 1..100 exactly:
// ten categories, each spanning ten consecutive numbers, no gaps or
// overlaps, and every number backed by an item.
func (c *Catalog) validatePartition() error {
	if len(c.categories) != categoryCount {
		return fmt.Errorf("expected %d categories, got %d", categoryCount, len(c.categories))
	}
	if len(c.items) != maxNumber {
		return fmt.Errorf("expected %d items, got %d", maxNumber, len(c.items))
	}

	covered := make(map[int]string, maxNumber)
	for _, cat := range c.categories {
		if cat.EndNum-cat.StartNum != categorySpan-1 {
			return fmt.Errorf("category %q spans %d numbers, want %d", cat.ID, cat.EndNum-cat.StartNum+1, categorySpan)
		}
		for n := cat.StartNum; n <= cat.EndNum; n++ {
			if other, taken := covered[n]; taken {
				return fmt.Errorf("number %d covered by both %q and %q", n, other, cat.ID)
			}
			covered[n] = cat.ID
		}
	}
	for n := minNumber; n <= maxNumber; n++ {
		if _, ok := covered[n]; !ok {
			return fmt.Errorf("number %d not covered by any category", n)
		}
		if _, ok := c.byNumber[n]; !ok {
			return fmt.Errorf("no item for number %d", n)
		}
	}

	return nil
}

// Items returns all items in numeric order.
func (c *Catalog) Items() []entities.Item {
	return append([]entities.Item(nil), c.items...)
}

// Categories returns all categories in source order.
func (c *Catalog) Categories() []entities.Category {
	return append([]entities.Category(nil), c.categories...)
}

// ItemsByCategory returns the items of a category in numeric order.
// An unknown category id yields an empty slice.
func (c *Catalog) ItemsByCategory(categoryID string) []entities.Item {
	return append([]entities.Item(nil), c.byCategory[categoryID]...)
}

// ItemByNumber returns the item with the given number (1-100).
func (c *Catalog) ItemByNumber(number int) (*entities.Item, error) {
	item, ok := c.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", number, ErrItemNotFound)
	}
	return item, nil
}

// CategoryByID returns the category with the given id.
func (c *Catalog) CategoryByID(id string) (*entities.Category, error) {
	cat, ok := c.categoryID[id]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", id, ErrCategoryNotFound)
	}
	return cat, nil
}

// CategoryOf returns the category an item number falls into.
func (c *Catalog) CategoryOf(number int) (*entities.Category, error) {
	item, err := c.ItemByNumber(number)
	if err != nil {
		return nil, err
	}
	return c.CategoryByID(item.CategoryID)
}

// RandomItems samples up to count distinct items uniformly without
// replacement. The pool is the whole catalog, or one category when
// categoryID is non-empty. If count exceeds the pool, the whole pool is
// returned.
func (c *Catalog) RandomItems(rng *rand.Rand, count int, categoryID string) []entities.Item {
	var pool []entities.Item
	if categoryID == "" {
		pool = append(pool, c.items...)
	} else {
		pool = append(pool, c.byCategory[categoryID]...)
	}

	if count <= 0 {
		return nil
	}

	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if count < len(pool) {
		pool = pool[:count]
	}

	return pool
}

// Neighbors holds the items directly before and after a number. Prev is
// nil at the lower table boundary, Next at the upper.
type Neighbors struct {
	Prev *entities.Item
	Next *entities.Item
}

// Neighbors returns the items at number-1 and number+1.
func (c *Catalog) Neighbors(number int) (Neighbors, error) {
	if _, err := c.ItemByNumber(number); err != nil {
		return Neighbors{}, err
	}

	var n Neighbors
	if number > minNumber {
		n.Prev = c.byNumber[number-1]
	}
	if number < maxNumber {
		n.Next = c.byNumber[number+1]
	}
	return n, nil
}
