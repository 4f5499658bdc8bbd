package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-catalog-admin/errs"
	"github.com/goliatone/go-catalog-admin/internal/tokenstore"
)

type failingStore struct {
	tokenstore.Memory
	loadErr, saveErr, clearErr error
}

func (f *failingStore) Load(ctx context.Context) (string, bool, error) {
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	return f.Memory.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Memory.Save(ctx, token)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Memory.Clear(ctx)
}

func TestNew_StartsEmpty(t *testing.T) {
	s, err := New(context.Background(), tokenstore.NewMemory())
	require.NoError(t, err)

	assert.False(t, s.IsAuthenticated())
	_, ok := s.Token()
	assert.False(t, ok)
	assert.True(t, errs.Is(s.Guard(), errs.KindUnauthenticated))
}

func TestLogin_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	persist := tokenstore.NewMemory()

	first, err := New(ctx, persist)
	require.NoError(t, err)
	require.NoError(t, first.Login(ctx, "QpwL5tke4Pnpja7X4"))

	second, err := New(ctx, persist)
	require.NoError(t, err)
	tok, ok := second.Token()
	assert.True(t, ok)
	assert.Equal(t, "QpwL5tke4Pnpja7X4", tok)
	assert.NoError(t, second.Guard())
	assert.False(t, second.IsMock())
}

func TestLogin_RejectsEmptyToken(t *testing.T) {
	s, err := New(context.Background(), tokenstore.NewMemory())
	require.NoError(t, err)

	err = s.Login(context.Background(), "   ")
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.False(t, s.IsAuthenticated())
}

func TestLogin_RunsHooksInOrder(t *testing.T) {
	ctx := context.Background()
	var calls []string

	s, err := New(ctx, tokenstore.NewMemory(), WithOnLogin(func(context.Context) {
		calls = append(calls, "purge-queries")
	}))
	require.NoError(t, err)
	s.OnLogin(func(context.Context) {
		assert.True(t, s.IsAuthenticated(), "hooks run after the token is current")
		calls = append(calls, "purge-details")
	})

	require.NoError(t, s.Login(ctx, "mock_abc"))
	assert.Equal(t, []string{"purge-queries", "purge-details"}, calls)
	assert.True(t, s.IsMock())
}

func TestLogin_PersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	persist := &failingStore{saveErr: errors.New("disk full")}
	hookRan := false

	s, err := New(ctx, persist, WithOnLogin(func(context.Context) { hookRan = true }))
	require.NoError(t, err)

	err = s.Login(ctx, "tok")
	require.Error(t, err)
	assert.False(t, s.IsAuthenticated())
	assert.False(t, hookRan)
}

func TestLogoutAndReset(t *testing.T) {
	ctx := context.Background()
	persist := tokenstore.NewMemory()
	resets := 0

	s, err := New(ctx, persist)
	require.NoError(t, err)
	s.OnReset(func(context.Context) { resets++ })

	require.NoError(t, s.Login(ctx, "tok"))
	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 0, resets)

	_, ok, _ := persist.Load(ctx)
	assert.False(t, ok)

	require.NoError(t, s.Login(ctx, "tok"))
	require.NoError(t, s.Reset(ctx))
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, resets)
}

func TestNew_LoadFailure(t *testing.T) {
	_, err := New(context.Background(), &failingStore{loadErr: errors.New("corrupt")})
	require.Error(t, err)
}

func TestToken_ConcurrentReadsSeeWholeValues(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, tokenstore.NewMemory())
	require.NoError(t, err)

	tokens := map[string]bool{"token-aaaaaaaa": true, "token-bbbbbbbb": true}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if tok, ok := s.Token(); ok && !tokens[tok] {
					t.Errorf("torn token %q", tok)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		tok := "token-aaaaaaaa"
		if i%2 == 1 {
			tok = "token-bbbbbbbb"
		}
		require.NoError(t, s.Login(ctx, tok))
		if i%10 == 0 {
			require.NoError(t, s.Logout(ctx))
		}
	}
	close(stop)
	wg.Wait()
}
