package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-catalog-admin/catalog"
)

// RecordedRequest is a request seen by a fake upstream.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// FakeCatalog is an in-memory catalog service served over httptest.
type FakeCatalog struct {
	Server *httptest.Server

	mu       sync.Mutex
	products []catalog.Product
	nextID   int
	requests []RecordedRequest
	failures map[string][]failure
}

// NewFakeCatalog starts a fake catalog seeded with products. The server is closed on test cleanup.
func NewFakeCatalog(t testing.TB, products ...catalog.Product) *FakeCatalog {
	t.Helper()

	f := &FakeCatalog{
		products: append([]catalog.Product(nil), products...),
		nextID:   len(products) + 1,
		failures: map[string][]failure{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", f.list)
	mux.HandleFunc("GET /products/search", f.search)
	mux.HandleFunc("GET /products/{id}", f.get)
	mux.HandleFunc("POST /products/add", f.create)
	mux.HandleFunc("PUT /products/{id}", f.update)
	mux.HandleFunc("DELETE /products/{id}", f.remove)

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeCatalog) URL() string { return f.Server.URL }

// FailNext makes the next request matching method and path fail with status and body.
func (f *FakeCatalog) FailNext(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := method + " " + path
	f.failures[k] = append(f.failures[k], failure{status: status, body: body})
}

// Requests returns a copy of every recorded request.
func (f *FakeCatalog) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests matched method and path prefix.
func (f *FakeCatalog) Count(method, pathPrefix string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

// Products returns the current catalog contents.
func (f *FakeCatalog) Products() []catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]catalog.Product(nil), f.products...)
}

func (f *FakeCatalog) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		k := r.Method + " " + r.URL.Path
		var fail *failure
		if queued := f.failures[k]; len(queued) > 0 {
			fail = &queued[0]
			f.failures[k] = queued[1:]
		}
		f.mu.Unlock()

		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = w.Write([]byte(fail.body))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (f *FakeCatalog) list(w http.ResponseWriter, r *http.Request) {
	limit, skip := paging(r)
	f.mu.Lock()
	page := Page(f.products, limit, skip)
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, page)
}

func (f *FakeCatalog) search(w http.ResponseWriter, r *http.Request) {
	limit, skip := paging(r)
	q := strings.ToLower(r.URL.Query().Get("q"))

	f.mu.Lock()
	var matched []catalog.Product
	for _, p := range f.products {
		if strings.Contains(strings.ToLower(p.Title), q) {
			matched = append(matched, p)
		}
	}
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, Page(matched, limit, skip))
}

func (f *FakeCatalog) get(w http.ResponseWriter, r *http.Request) {
	_, idx, ok := f.lookup(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	p := f.products[idx]
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, p)
}

func (f *FakeCatalog) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string   `json:"title"`
		Price       float64  `json:"price"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Thumbnail   string   `json:"thumbnail"`
		Images      []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	f.mu.Lock()
	p := catalog.Product{
		ID:          f.nextID,
		Title:       in.Title,
		Price:       in.Price,
		Category:    in.Category,
		Description: in.Description,
		Thumbnail:   in.Thumbnail,
		Images:      in.Images,
	}
	f.nextID++
	f.products = append(f.products, p)
	f.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (f *FakeCatalog) update(w http.ResponseWriter, r *http.Request) {
	_, idx, ok := f.lookup(w, r)
	if !ok {
		return
	}
	var in struct {
		Title       string   `json:"title"`
		Price       float64  `json:"price"`
		Description string   `json:"description"`
		Category    string   `json:"category"`
		Thumbnail   string   `json:"thumbnail"`
		Images      []string `json:"images"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	f.mu.Lock()
	p := f.products[idx]
	p.Title, p.Price, p.Description, p.Category = in.Title, in.Price, in.Description, in.Category
	p.Thumbnail, p.Images = in.Thumbnail, in.Images
	f.products[idx] = p
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, p)
}

func (f *FakeCatalog) remove(w http.ResponseWriter, r *http.Request) {
	id, idx, ok := f.lookup(w, r)
	if !ok {
		return
	}
	f.mu.Lock()
	f.products = append(f.products[:idx:idx], f.products[idx+1:]...)
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isDeleted": true})
}

func (f *FakeCatalog) lookup(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("Invalid product id '%s'", raw)})
		return 0, 0, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.products {
		if p.ID == id {
			return id, i, true
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": fmt.Sprintf("Product with id '%d' not found", id)})
	return id, 0, false
}

func paging(r *http.Request) (int, int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = 30
	}
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	return limit, skip
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ClosedURL returns the address of a server that is no longer listening, to provoke
// transport level failures.
func ClosedURL(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
