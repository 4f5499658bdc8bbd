// Package catalogcache caches product detail reads in front of the catalog gateway.
//
// Records are cached under products::detail::<id>, inside the same namespace as the list
// queries, so invalidating "products" clears details too:
//
//	svc, _ := cache.NewCacheService(cache.DefaultConfig())
//	client := catalogcache.New(catalog.NewHTTPClient(base), svc, cache.NewDefaultKeySerializer(), logger)
//	p, err := client.Get(ctx, 7)
//
// Only Get is cached. Update and Delete drop the record they touched.
package catalogcache
