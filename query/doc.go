// Package query is the query cache and invalidation engine for product list pages.
//
// Each Key moves through Idle, Loading, Ready and Error. Get never blocks: it returns what
// is cached and starts a background fetch when the entry is missing, failed or stale.
// At most one fetch per key is shared by concurrent readers; Refresh forces a new one,
// and a response is applied only if no newer fetch for the key was issued after it.
//
// Mutations reconcile in two explicit steps:
//
//	c.Patch(key, query.PrependItem(created)) // visual bridge, applied now
//	c.Invalidate(query.Namespace)            // converge on server truth
//
// Invalidate keeps data and refetches observed keys (see Subscribe); every invalidation
// bumps a generation so a response issued before it is stored as stale. PurgeAll drops
// everything and is run when a new session starts.
package query
