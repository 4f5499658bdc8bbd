package query

import (
	"strings"

	"github.com/goliatone/go-catalog-admin/cache"
)

// Namespace is the key namespace of every product list query.
const Namespace = "products"

var keys = cache.NewDefaultKeySerializer()

// Key identifies one page of the product collection. Keys compare by value.
type Key struct {
	Search   string
	PageSize int
	Offset   int
}

// NewKey builds the key for a 1-based page number. The search term is trimmed and
// pages below 1 are treated as the first page.
func NewKey(search string, pageSize, page int) Key {
	if page < 1 {
		page = 1
	}
	return Key{
		Search:   strings.TrimSpace(search),
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// PageNumber returns the 1-based page number of the key.
func (k Key) PageNumber() int {
	if k.PageSize <= 0 {
		return 1
	}
	return k.Offset/k.PageSize + 1
}

// String renders the key as products::<search>::<size>::<offset>.
func (k Key) String() string {
	return keys.SerializeKey(Namespace, k.Search, k.PageSize, k.Offset)
}

// InNamespace reports whether the key falls under prefix, compared segment by segment.
func (k Key) InNamespace(prefix string) bool {
	return cache.HasPrefix(k.String(), prefix)
}
