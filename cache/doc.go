// Package cache provides the read-through cache contract and key derivation shared by the
// query cache and the product detail cache.
//
// Keys are built by a KeySerializer from a namespace and ordered parts:
//
//	s := cache.NewDefaultKeySerializer()
//	s.SerializeKey("products", "phone", 10, 0) // products::phone::10::0
//	s.SerializeKey("products", "detail", 7)    // products::detail::7
//
// Every key of a namespace starts with cache.Prefix(namespace), so invalidating the
// "products" namespace reaches list pages and detail records alike.
//
// CacheService is backed by sturdyc (see NewCacheService). Reads go through the generic
// GetOrFetch wrapper, which deduplicates concurrent fetches for the same key:
//
//	p, err := cache.GetOrFetch(ctx, svc, key, func(ctx context.Context) (catalog.Product, error) {
//		return client.Get(ctx, id)
//	})
//
// Errors are never cached.
package cache
