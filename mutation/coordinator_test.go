package mutation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-catalog-admin/errs"
)

type note struct {
	ok             bool
	title, message string
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (r *recordingNotifier) Success(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{ok: true, title: title, message: message})
}

func (r *recordingNotifier) Failure(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{ok: false, title: title, message: message})
}

func (r *recordingNotifier) all() []note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]note(nil), r.notes...)
}

func TestSubmit_RejectsWhilePending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	calls := 0

	c := New[string, string]("save", func(ctx context.Context, p string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		started <- struct{}{}
		<-release
		return p, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background(), "first")
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("first submission did not start")
	}
	assert.True(t, c.IsPending())

	_, err := c.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrPending)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.IsPending())

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()

	res, err := c.Submit(context.Background(), "third")
	require.NoError(t, err)
	assert.Equal(t, "third", res)
}

func TestSubmit_FailureThenRetry(t *testing.T) {
	notes := &recordingNotifier{}
	fail := true
	var steps []string

	c := New[int, int]("save", func(ctx context.Context, p int) (int, error) {
		if fail {
			return 0, errs.New(errs.KindValidation, "Price must be > 0")
		}
		return p * 2, nil
	}, WithNotifier(notes)).
		Then(func(context.Context, int, int) { steps = append(steps, "patch") }).
		Then(func(context.Context, int, int) { steps = append(steps, "invalidate") }).
		FailureTitle("Save failed").
		Announce(func(r int) (string, string) { return "Saved", "done" })

	_, err := c.Submit(context.Background(), 21)
	require.Error(t, err)
	assert.Equal(t, "Price must be > 0", c.LastError())
	assert.True(t, errs.Is(c.Err(), errs.KindValidation))
	assert.False(t, c.IsPending())
	assert.Empty(t, steps, "steps never run on failure")

	fail = false
	res, err := c.Submit(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 42, res)
	assert.Empty(t, c.LastError())
	assert.Equal(t, []string{"patch", "invalidate"}, steps)

	assert.Equal(t, []note{
		{ok: false, title: "Save failed", message: "Price must be > 0"},
		{ok: true, title: "Saved", message: "done"},
	}, notes.all())
}

func TestReset(t *testing.T) {
	c := New[int, int]("save", func(context.Context, int) (int, error) {
		return 0, errors.New("boom")
	})

	_, _ = c.Submit(context.Background(), 1)
	assert.Equal(t, "boom", c.LastError())

	c.Reset()
	assert.Empty(t, c.LastError())
	assert.NoError(t, c.Err())
}

func TestDefaultFailureTitle(t *testing.T) {
	notes := &recordingNotifier{}
	c := New[int, int]("archive", func(context.Context, int) (int, error) {
		return 0, errs.New(errs.KindNetwork, errs.MsgNetwork)
	}, WithNotifier(notes))

	_, _ = c.Submit(context.Background(), 1)
	require.Len(t, notes.all(), 1)
	assert.Equal(t, "archive failed", notes.all()[0].title)
	assert.Equal(t, errs.MsgNetwork, notes.all()[0].message)
}
