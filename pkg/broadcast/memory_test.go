package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		cancel()

		require.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)
		_, ok := <-sub.Receive(context.Background())
		assert.False(t, ok)
	})

	t.Run("subscriber close detaches it", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](10)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.Equal(t, 1, b.Len())

		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.Equal(t, 0, b.Len())
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Run("fan out to every subscriber", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		subs := []Subscriber[int]{b.Subscribe(ctx), b.Subscribe(ctx), b.Subscribe(ctx)}

		require.NoError(t, b.Broadcast(ctx, Message[int]{Data: 42}))

		for _, sub := range subs {
			msg := <-sub.Receive(ctx)
			assert.Equal(t, 42, msg.Data)
		}
	})

	t.Run("drop newest keeps buffered messages", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](2)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)
		for i := 1; i <= 4; i++ {
			require.NoError(t, b.Broadcast(ctx, Message[int]{Data: i}))
		}

		assert.Equal(t, 1, (<-sub.Receive(ctx)).Data)
		assert.Equal(t, 2, (<-sub.Receive(ctx)).Data)
		assert.Equal(t, 1, b.Len())
	})

	t.Run("drop oldest keeps latest message", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1, WithOverflow(DropOldest))
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)
		for i := 1; i <= 5; i++ {
			require.NoError(t, b.Broadcast(ctx, Message[int]{Data: i}))
		}

		assert.Equal(t, 5, (<-sub.Receive(ctx)).Data)
	})

	t.Run("broadcast after close", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](1)
		require.NoError(t, b.Close())

		err := b.Broadcast(context.Background(), Message[int]{Data: 1})
		assert.ErrorIs(t, err, ErrBroadcasterClosed)
	})
}

func TestMemoryBroadcaster_Close(t *testing.T) {
	t.Run("closes subscribers with live contexts", func(t *testing.T) {
		b := NewMemoryBroadcaster[string](1)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sub := b.Subscribe(ctx)

		done := make(chan struct{})
		go func() {
			_ = b.Close()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Close blocked on a live subscriber context")
		}

		_, ok := <-sub.Receive(ctx)
		assert.False(t, ok)
		assert.NoError(t, b.Close())
	})

	t.Run("concurrent broadcast and close", func(t *testing.T) {
		b := NewMemoryBroadcaster[int](4, WithOverflow(DropOldest))
		ctx := context.Background()
		for range 5 {
			b.Subscribe(ctx)
		}

		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_ = b.Broadcast(ctx, Message[int]{Data: n})
			}(i)
		}
		_ = b.Close()
		wg.Wait()

		assert.Equal(t, 0, b.Len())
	})
}
