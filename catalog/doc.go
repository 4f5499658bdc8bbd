// Package catalog is the gateway to the remote product catalog.
//
// The HTTPClient speaks the catalog REST API:
//
//	GET    /products?limit=&skip=
//	GET    /products/search?q=&limit=&skip=
//	GET    /products/{id}
//	POST   /products/add
//	PUT    /products/{id}
//	DELETE /products/{id}
//
// Create and Update validate the ProductInput locally before any request is made, and
// send the single image URL both as the thumbnail and as the only element of images.
//
// Failures are normalized by the errs package: the message comes from the body "message"
// or "error" field when present, else from the status line, else a generic network
// message, so callers can show errs.Message(err) directly.
package catalog
