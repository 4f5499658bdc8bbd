package query

import (
	"context"

	"github.com/goliatone/go-catalog-admin/catalog"
)

// Page is one cached page of results.
type Page struct {
	Items    []catalog.Product
	Total    int
	Offset   int
	PageSize int
}

// Clone returns a deep copy of p.
func (p Page) Clone() Page {
	out := p
	out.Items = make([]catalog.Product, len(p.Items))
	for i, item := range p.Items {
		item.Images = append([]string(nil), item.Images...)
		out.Items[i] = item
	}
	return out
}

// TotalPages is the number of pages needed for Total, at least 1.
func (p Page) TotalPages() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Contains reports whether an item with id is on the page.
func (p Page) Contains(id int) bool {
	for _, item := range p.Items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (p Page) bounded() Page {
	if p.PageSize > 0 && len(p.Items) > p.PageSize {
		p.Items = p.Items[:p.PageSize]
	}
	return p
}

// PrependItem returns a patch that puts item first and counts it in the total.
func PrependItem(item catalog.Product) func(Page) Page {
	return func(p Page) Page {
		p.Items = append([]catalog.Product{item}, p.Items...)
		p.Total++
		return p.bounded()
	}
}

// RemoveItem returns a patch that drops the item with id and decrements the total,
// never below zero.
func RemoveItem(id int) func(Page) Page {
	return func(p Page) Page {
		kept := p.Items[:0]
		for _, item := range p.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		p.Items = kept
		p.Total = max(0, p.Total-1)
		return p
	}
}

// ReplaceItem returns a patch that swaps the item sharing item.ID in place.
func ReplaceItem(item catalog.Product) func(Page) Page {
	return func(p Page) Page {
		for i := range p.Items {
			if p.Items[i].ID == item.ID {
				p.Items[i] = item
			}
		}
		return p
	}
}

// Fetcher loads one page from the source of truth.
type Fetcher interface {
	FetchPage(ctx context.Context, key Key) (Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, key Key) (Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, key Key) (Page, error) { return f(ctx, key) }

// CatalogFetcher loads pages through the catalog gateway.
func CatalogFetcher(client catalog.Client) Fetcher {
	return FetcherFunc(func(ctx context.Context, key Key) (Page, error) {
		res, err := client.List(ctx, catalog.ListParams{
			Search: key.Search,
			Limit:  key.PageSize,
			Skip:   key.Offset,
		})
		if err != nil {
			return Page{}, err
		}
		return Page{
			Items:    res.Products,
			Total:    res.Total,
			Offset:   key.Offset,
			PageSize: key.PageSize,
		}, nil
	})
}
