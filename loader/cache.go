package loader

import (
	"context"
	"log"
	"sync"

	"github.com/warp/inventory-optimizer/demand"
)

// Cache loads a Source at most once per process and then serves the same
// immutable Dataset. A failed load is cached too: the session stays halted
// instead of retrying.
type Cache struct {
	source Source

	once    sync.Once
	dataset *demand.Dataset
	err     error
}

// NewCache wraps source.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Get returns the dataset, loading it on first use. The load is detached
// from ctx cancellation since its result is shared by every later caller.
func (c *Cache) Get(ctx context.Context) (*demand.Dataset, error) {
	c.once.Do(func() {
		c.dataset, c.err = c.source.Load(context.WithoutCancel(ctx))
		if c.err != nil {
			return
		}
		log.Printf("Loaded %d forecast rows and %d policy rows", len(c.dataset.Forecasts), len(c.dataset.Policies))
	})
	return c.dataset, c.err
}
