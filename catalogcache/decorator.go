package catalogcache

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/cache"
	"github.com/goliatone/go-catalog-admin/catalog"
)

// Namespace is shared with the list queries so one invalidation reaches both.
const Namespace = "products"

var _ catalog.Client = (*Client)(nil)

// Stats counts detail reads.
type Stats struct {
	Reads   int64
	Fetches int64
}

// Client decorates a catalog.Client with a read-through cache for Get.
// List passes through untouched; writes pass through and drop the affected record.
type Client struct {
	base          catalog.Client
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	logger        *zap.Logger

	reads   *xsync.Counter
	fetches *xsync.Counter
}

// New wraps base.
func New(base catalog.Client, cacheService cache.CacheService, keySerializer cache.KeySerializer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
		logger:        logger,
		reads:         xsync.NewCounter(),
		fetches:       xsync.NewCounter(),
	}
}

// DetailKey returns the cache key of product id.
func (c *Client) DetailKey(id int) string {
	return c.keySerializer.SerializeKey(Namespace, "detail", id)
}

// List is not cached here; pages are owned by the query cache.
func (c *Client) List(ctx context.Context, params catalog.ListParams) (catalog.ListResult, error) {
	return c.base.List(ctx, params)
}

// Get returns product id, from cache when present. Concurrent reads of the same id share
// one upstream call and failures are not cached.
func (c *Client) Get(ctx context.Context, id int) (catalog.Product, error) {
	c.reads.Inc()
	return cache.GetOrFetch(ctx, c.cache, c.DetailKey(id), func(ctx context.Context) (catalog.Product, error) {
		c.fetches.Inc()
		return c.base.Get(ctx, id)
	})
}

// Create passes through. A new record has no detail entry to drop.
func (c *Client) Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error) {
	return c.base.Create(ctx, in)
}

// Update passes through and drops the cached record on success.
func (c *Client) Update(ctx context.Context, id int, in catalog.ProductInput) (catalog.Product, error) {
	p, err := c.base.Update(ctx, id, in)
	if err == nil {
		c.Forget(ctx, id)
	}
	return p, err
}

// Delete passes through and drops the cached record on success.
func (c *Client) Delete(ctx context.Context, id int) (catalog.DeleteResult, error) {
	res, err := c.base.Delete(ctx, id)
	if err == nil {
		c.Forget(ctx, id)
	}
	return res, err
}

// Forget drops the cached record of id.
func (c *Client) Forget(ctx context.Context, id int) {
	if err := c.cache.Delete(ctx, c.DetailKey(id)); err != nil {
		c.logger.Warn("could not drop cached product", zap.Int("id", id), zap.Error(err))
	}
}

// InvalidatePrefix drops every cached record whose key falls under prefix.
func (c *Client) InvalidatePrefix(ctx context.Context, prefix string) error {
	return c.cache.DeleteByPrefix(ctx, cache.Prefix(prefix))
}

// Purge drops every cached record.
func (c *Client) Purge(ctx context.Context) error {
	return c.cache.Purge(ctx)
}

// Stats returns the read counters.
func (c *Client) Stats() Stats {
	return Stats{Reads: c.reads.Value(), Fetches: c.fetches.Value()}
}
