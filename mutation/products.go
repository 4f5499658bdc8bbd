package mutation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-catalog-admin/catalog"
	"github.com/goliatone/go-catalog-admin/query"
)

// PageCache is the part of the query cache the product coordinators write to.
type PageCache interface {
	Patch(key query.Key, fn func(query.Page) query.Page) bool
	Invalidate(prefix string)
}

// DetailCache drops cached product records.
type DetailCache interface {
	Forget(ctx context.Context, id int)
}

// Deps are the collaborators of the product coordinators.
type Deps struct {
	Client catalog.Client
	Pages  PageCache
	// Details is optional.
	Details DetailCache
	// Active returns the key currently on screen. Nil skips the optimistic patch.
	Active func() query.Key
	Logger *zap.Logger
}

// UpdateRequest is the payload of the update coordinator.
type UpdateRequest struct {
	ID    int
	Input catalog.ProductInput
}

func (d Deps) patchActive(patch func(query.Page) query.Page) {
	if d.Active == nil {
		return
	}
	key := d.Active()
	if !d.Pages.Patch(key, patch) && d.Logger != nil {
		d.Logger.Debug("active page not cached, skipping patch", zap.Stringer("key", key))
	}
}

// NewCreate builds the create coordinator: the created product is put first on the active
// page, the total grows by one, and every product query is invalidated.
func NewCreate(d Deps, opts ...Option) *Coordinator[catalog.ProductInput, catalog.Product] {
	return New[catalog.ProductInput, catalog.Product]("create product", d.Client.Create, withDepsLogger(d, opts)...).
		Then(func(_ context.Context, _ catalog.ProductInput, created catalog.Product) {
			d.patchActive(query.PrependItem(created))
		}).
		Then(invalidateStep[catalog.ProductInput, catalog.Product](d)).
		FailureTitle("Add product failed").
		Announce(func(p catalog.Product) (string, string) {
			return "Product added", fmt.Sprintf("%q created successfully.", p.Title)
		})
}

// NewUpdate builds the update coordinator: the product is replaced in place on the active
// page, its cached record is dropped, and every product query is invalidated.
func NewUpdate(d Deps, opts ...Option) *Coordinator[UpdateRequest, catalog.Product] {
	run := func(ctx context.Context, req UpdateRequest) (catalog.Product, error) {
		p, err := d.Client.Update(ctx, req.ID, req.Input)
		if err == nil && p.ID == 0 {
			p.ID = req.ID
		}
		return p, err
	}
	return New[UpdateRequest, catalog.Product]("update product", run, withDepsLogger(d, opts)...).
		Then(func(ctx context.Context, req UpdateRequest, updated catalog.Product) {
			d.patchActive(query.ReplaceItem(updated))
			if d.Details != nil {
				d.Details.Forget(ctx, req.ID)
			}
		}).
		Then(invalidateStep[UpdateRequest, catalog.Product](d)).
		FailureTitle("Update product failed").
		Announce(func(p catalog.Product) (string, string) {
			return "Product updated", fmt.Sprintf("%q updated successfully.", p.Title)
		})
}

// NewDelete builds the delete coordinator: the product leaves the active page, the total
// drops by one (never below zero), and every product query is invalidated.
func NewDelete(d Deps, opts ...Option) *Coordinator[int, catalog.DeleteResult] {
	return New[int, catalog.DeleteResult]("delete product", d.Client.Delete, withDepsLogger(d, opts)...).
		Then(func(ctx context.Context, id int, _ catalog.DeleteResult) {
			d.patchActive(query.RemoveItem(id))
			if d.Details != nil {
				d.Details.Forget(ctx, id)
			}
		}).
		Then(invalidateStep[int, catalog.DeleteResult](d)).
		FailureTitle("Delete failed").
		Announce(func(catalog.DeleteResult) (string, string) {
			return "Deleted", "Product removed successfully."
		})
}

func invalidateStep[P, R any](d Deps) Step[P, R] {
	return func(context.Context, P, R) {
		d.Pages.Invalidate(query.Namespace)
	}
}

func withDepsLogger(d Deps, opts []Option) []Option {
	if d.Logger == nil {
		return opts
	}
	return append([]Option{WithLogger(d.Logger)}, opts...)
}
