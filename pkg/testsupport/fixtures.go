package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-catalog-admin/catalog"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedProducts returns n products with ids 1..n. Every third title contains "phone"
// so search tests have something to match.
func SeedProducts(n int) []catalog.Product {
	products := make([]catalog.Product, 0, n)
	for i := 1; i <= n; i++ {
		title := fmt.Sprintf("Product %d", i)
		if i%3 == 0 {
			title = fmt.Sprintf("Smartphone %d", i)
		}
		img := fmt.Sprintf("https://cdn.example.com/products/%d.png", i)
		products = append(products, catalog.Product{
			ID:          i,
			Title:       title,
			Price:       float64(i) + 0.99,
			Category:    "general",
			Description: fmt.Sprintf("Description of product %d", i),
			Thumbnail:   img,
			Images:      []string{img},
		})
	}
	return products
}

// Page builds a catalog.ListResult the way the catalog service slices it.
func Page(products []catalog.Product, limit, skip int) catalog.ListResult {
	total := len(products)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if limit <= 0 || end > total {
		end = total
	}
	items := append([]catalog.Product(nil), products[skip:end]...)
	return catalog.ListResult{Products: items, Total: total, Skip: skip, Limit: limit}
}

// ValidInput returns a product payload that passes validation.
func ValidInput(title string) catalog.ProductInput {
	return catalog.ProductInput{
		Title:       title,
		Price:       19.99,
		Description: "A product used in tests",
		Category:    "testing",
		ImageURL:    "https://cdn.example.com/products/new.png",
	}
}
