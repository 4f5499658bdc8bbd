package testsupport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixture(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	testContent := []byte("test fixture content")

	if err := os.WriteFile(testFile, testContent, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if result := LoadFixture(t, testFile); string(result) != string(testContent) {
		t.Errorf("expected %q, got %q", testContent, result)
	}
}

func TestLoadFixtureJSON(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "products.json")
	data, err := json.Marshal(Page(SeedProducts(3), 2, 0))
	if err != nil {
		t.Fatalf("failed to marshal test data: %v", err)
	}
	if err := os.WriteFile(testFile, data, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	var result struct {
		Products []struct {
			ID int `json:"id"`
		} `json:"products"`
		Total int `json:"total"`
	}
	LoadFixtureJSON(t, testFile, &result)

	if result.Total != 3 || len(result.Products) != 2 || result.Products[1].ID != 2 {
		t.Errorf("unexpected fixture content %+v", result)
	}
}

func TestFixturePath(t *testing.T) {
	if got := FixturePath("list.json"); got != filepath.Join("testdata", "list.json") {
		t.Errorf("unexpected path %q", got)
	}
}

func TestSeedProducts(t *testing.T) {
	products := SeedProducts(6)
	if len(products) != 6 {
		t.Fatalf("expected 6 products, got %d", len(products))
	}
	for i, p := range products {
		if p.ID != i+1 {
			t.Errorf("expected id %d, got %d", i+1, p.ID)
		}
	}
	if products[2].Title != "Smartphone 3" || products[3].Title != "Product 4" {
		t.Errorf("unexpected titles %q, %q", products[2].Title, products[3].Title)
	}
}

func TestPage(t *testing.T) {
	products := SeedProducts(12)

	tests := []struct {
		name        string
		limit, skip int
		wantLen     int
		wantFirst   int
	}{
		{"first page", 10, 0, 10, 1},
		{"last page is short", 10, 10, 2, 11},
		{"skip past the end", 10, 40, 0, 0},
		{"no limit returns the rest", 0, 5, 7, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Page(products, tt.limit, tt.skip)
			if page.Total != 12 {
				t.Errorf("expected total 12, got %d", page.Total)
			}
			if len(page.Products) != tt.wantLen {
				t.Fatalf("expected %d items, got %d", tt.wantLen, len(page.Products))
			}
			if tt.wantLen > 0 && page.Products[0].ID != tt.wantFirst {
				t.Errorf("expected first id %d, got %d", tt.wantFirst, page.Products[0].ID)
			}
		})
	}
}

func TestValidInput(t *testing.T) {
	if err := ValidInput("Pixel 9").Validate(); err != nil {
		t.Errorf("expected a valid payload, got %v", err)
	}
}

func TestFakeCatalog_FailNextIsConsumedOnce(t *testing.T) {
	fake := NewFakeCatalog(t, SeedProducts(2)...)
	fake.FailNext(http.MethodGet, "/products/1", http.StatusBadGateway, `{"message":"upstream down"}`)

	for i, want := range []int{http.StatusBadGateway, http.StatusOK} {
		resp, err := http.Get(fake.URL() + "/products/1")
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("request %d: expected %d, got %d", i, want, resp.StatusCode)
		}
	}
	if n := fake.Count(http.MethodGet, "/products/1"); n != 2 {
		t.Errorf("expected 2 recorded requests, got %d", n)
	}
}

func TestFakeIdentity(t *testing.T) {
	idp := NewFakeIdentity(t)

	post := func(body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPost, idp.URL()+"/login", bytes.NewBufferString(body))
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("x-api-key", "key-1")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post(`{"email":"eve.holt@reqres.in","password":"cityslicka"}`)
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["token"] != UpstreamToken {
		t.Errorf("expected the upstream token, got %v", out)
	}
	if idp.LastAPIKey() != "key-1" {
		t.Errorf("expected the api key to be recorded, got %q", idp.LastAPIKey())
	}

	if resp := post(`{"email":"eve.holt@reqres.in"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without password, got %d", resp.StatusCode)
	}

	idp.Respond(http.StatusForbidden, `{"error":"Forbidden"}`)
	if resp := post(`{"email":"eve.holt@reqres.in","password":"cityslicka"}`); resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
	if idp.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", idp.Calls())
	}
}
