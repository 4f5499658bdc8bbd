package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// UpstreamToken is the token returned by FakeIdentity on success.
const UpstreamToken = "QpwL5tke4Pnpja7X4"

// FakeIdentity is a fake identity provider exposing POST /login.
type FakeIdentity struct {
	Server *httptest.Server

	calls atomic.Int64

	mu     sync.Mutex
	status int
	body   string
	apiKey string
}

// NewFakeIdentity starts an identity provider that answers every login with UpstreamToken
// until told otherwise with Respond.
func NewFakeIdentity(t testing.TB) *FakeIdentity {
	t.Helper()

	f := &FakeIdentity{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", f.login)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake.
func (f *FakeIdentity) URL() string { return f.Server.URL }

// Calls returns how many login requests were received.
func (f *FakeIdentity) Calls() int { return int(f.calls.Load()) }

// Respond makes every following login answer with status and body.
func (f *FakeIdentity) Respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

// LastAPIKey returns the x-api-key header of the last login request.
func (f *FakeIdentity) LastAPIKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apiKey
}

func (f *FakeIdentity) login(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)

	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)

	f.mu.Lock()
	f.apiKey = r.Header.Get("x-api-key")
	status, body := f.status, f.body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
		return
	}
	if in.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing password"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"token": UpstreamToken})
}
