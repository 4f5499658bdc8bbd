package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 1000 {
		t.Errorf("expected Capacity to be 1000, got %d", cfg.Capacity)
	}
	if cfg.NumShards != 16 {
		t.Errorf("expected NumShards to be 16, got %d", cfg.NumShards)
	}
	if cfg.TTL != time.Minute {
		t.Errorf("expected TTL to be 1 minute, got %v", cfg.TTL)
	}
	if cfg.EarlyRefresh != nil {
		t.Error("expected early refresh to be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	base := DefaultConfig()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, wantField: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, wantField: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, wantField: "TTL"},
		{name: "eviction too low", mutate: func(c *Config) { c.EvictionPercentage = 0 }, wantField: "EvictionPercentage"},
		{name: "eviction too high", mutate: func(c *Config) { c.EvictionPercentage = 101 }, wantField: "EvictionPercentage"},
		{
			name: "negative early refresh",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{SyncRefreshTime: -time.Second}
			},
			wantField: "EarlyRefresh.SyncRefreshTime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if n := len(cfg.ToSturdycOptions()); n != 0 {
		t.Errorf("expected no options for defaults, got %d", n)
	}

	cfg.EarlyRefresh = &EarlyRefreshConfig{
		MinAsyncRefreshTime: time.Second,
		MaxAsyncRefreshTime: 2 * time.Second,
		SyncRefreshTime:     3 * time.Second,
		RetryBaseDelay:      10 * time.Millisecond,
	}
	cfg.MissingRecordStorage = true
	cfg.EvictionInterval = time.Minute
	if n := len(cfg.ToSturdycOptions()); n != 3 {
		t.Errorf("expected 3 options, got %d", n)
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	if got, want := err.Error(), "config error in field TTL: must be greater than 0"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func newService(t *testing.T) *SturdycService {
	t.Helper()
	svc, err := NewSturdycService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSturdycService: %v", err)
	}
	return svc
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = -1
	if _, err := NewSturdycService(cfg); err == nil {
		t.Fatal("expected an error for invalid config")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "Smartphone 3", nil
	}

	for i := 0; i < 3; i++ {
		got, err := svc.GetOrFetch(ctx, "products::detail::3", fetch)
		if err != nil {
			t.Fatalf("GetOrFetch: %v", err)
		}
		if got != "Smartphone 3" {
			t.Errorf("expected cached title, got %v", got)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestSturdycService_GetOrFetchErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	var calls atomic.Int32
	boom := errors.New("catalog unavailable")
	fetch := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, boom
		}
		return 7, nil
	}

	if _, err := svc.GetOrFetch(ctx, "products::detail::7", fetch); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	got, err := svc.GetOrFetch(ctx, "products::detail::7", fetch)
	if err != nil {
		t.Fatalf("second GetOrFetch: %v", err)
	}
	if got != 7 {
		t.Errorf("expected 7, got %v", got)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 fetches, got %d", n)
	}
}

func TestSturdycService_GetOrFetchConcurrentCallsShareFetch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetOrFetch(ctx, "products::detail::1", fetch); err != nil {
				t.Errorf("GetOrFetch: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 fetch for concurrent callers, got %d", n)
	}
}

func TestSturdycService_InvalidFetchFn(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name    string
		fetchFn any
	}{
		{name: "nil", fetchFn: nil},
		{name: "not a function", fetchFn: 42},
		{name: "wrong arity", fetchFn: func() (int, error) { return 0, nil }},
		{name: "no context", fetchFn: func(int) (int, error) { return 0, nil }},
		{name: "no error", fetchFn: func(context.Context) (int, int) { return 0, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetOrFetch(context.Background(), "k", tt.fetchFn)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != "fetchFn" {
				t.Errorf("expected fetchFn config error, got %v", err)
			}
		})
	}
}

func TestSturdycService_DeleteAndPrefixes(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	seed := func(key string) {
		t.Helper()
		if _, err := svc.GetOrFetch(ctx, key, func(ctx context.Context) (string, error) { return key, nil }); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	seed("products::detail::1")
	seed("products::detail::2")
	seed("users::detail::1")

	if err := svc.Delete(ctx, "products::detail::1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := svc.Len(); n != 2 {
		t.Errorf("expected 2 entries after Delete, got %d", n)
	}

	if err := svc.DeleteByPrefix(ctx, "products::"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if n := svc.Len(); n != 1 {
		t.Errorf("expected only the users entry to survive, got %d entries", n)
	}

	if err := svc.Purge(ctx); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n := svc.Len(); n != 0 {
		t.Errorf("expected empty cache after Purge, got %d entries", n)
	}
}
