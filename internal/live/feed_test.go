package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryFeedDeliversInOrder(t *testing.T) {
	f := NewInMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.Subscribe(ctx, "S")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.NoError(t, f.Publish(ctx, Update{SessionID: "S", RollNumber: i}))
	}

	for i := 1; i <= 3; i++ {
		select {
		case u := <-ch:
			assert.Equal(t, i, u.RollNumber)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
}

func TestInMemoryFeedScopesToSession(t *testing.T) {
	f := NewInMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.Subscribe(ctx, "S1")
	require.NoError(t, err)

	require.NoError(t, f.Publish(ctx, Update{SessionID: "S2", Name: "other"}))
	require.NoError(t, f.Publish(ctx, Update{SessionID: "S1", Name: "mine"}))

	select {
	case u := <-ch:
		assert.Equal(t, "mine", u.Name)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestInMemoryFeedWildcardSeesEverything(t *testing.T) {
	f := NewInMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := f.SubscribeAll(ctx)
	require.NoError(t, err)

	require.NoError(t, f.Publish(ctx, Update{SessionID: "S1"}))
	require.NoError(t, f.Publish(ctx, Update{SessionID: "S2"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case u := <-ch:
			seen[u.SessionID] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
	assert.True(t, seen["S1"] && seen["S2"])
}

func TestInMemoryFeedClosesOnCancel(t *testing.T) {
	f := NewInMemoryFeed()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := f.Subscribe(ctx, "S")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel must close after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}
