package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

type unavailableKV struct {
	storage.KV
}

func (unavailableKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("redis: connection pool timeout")
}

func acquire(t *testing.T, m *Manager, id string) *cart.Store {
	t.Helper()
	s, release, err := m.Acquire(context.Background(), id)
	require.NoError(t, err)
	release()
	return s
}

func TestManager_AcquireReturnsSameStore(t *testing.T) {
	m, err := NewManager(storage.NewMemory(), "", 4)
	require.NoError(t, err)

	a := acquire(t, m, "a")
	assert.Same(t, a, acquire(t, m, "a"))
	assert.NotSame(t, a, acquire(t, m, "b"))
	assert.Equal(t, 2, m.Len())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	kv := storage.NewMemory()
	m, err := NewManager(kv, "", 4)
	require.NoError(t, err)
	ctx := context.Background()

	acquire(t, m, "a").AddItem(ctx, cart.Item{ID: "A", Quantity: 1})

	assert.Empty(t, acquire(t, m, "b").Cart())

	_, err = kv.Get(ctx, "a/"+cart.StorageKey(cart.DefaultNamespace, cart.DefaultStateVersion))
	assert.NoError(t, err)
}

func TestManager_EvictedSessionRehydrates(t *testing.T) {
	var sizes []int
	m, err := NewManager(storage.NewMemory(), "", 1, WithSizeObserver(func(n int) { sizes = append(sizes, n) }))
	require.NoError(t, err)
	ctx := context.Background()

	first := acquire(t, m, "a")
	first.AddItem(ctx, cart.Item{ID: "A", Quantity: 2})
	acquire(t, m, "b")

	again := acquire(t, m, "a")

	assert.NotSame(t, first, again)
	assert.Equal(t, []cart.Item{{ID: "A", Quantity: 2}}, again.Cart())
	assert.Equal(t, []int{1, 1, 1}, sizes)
}

func TestManager_StoreInUseSurvivesEviction(t *testing.T) {
	kv := storage.NewMemory()
	m, err := NewManager(kv, "", 1)
	require.NoError(t, err)
	ctx := context.Background()

	held, releaseHeld, err := m.Acquire(ctx, "a")
	require.NoError(t, err)

	acquire(t, m, "b")
	assert.Equal(t, 2, m.Len())

	other, releaseOther, err := m.Acquire(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, held, other)

	held.AddItem(ctx, cart.Item{ID: "A", Quantity: 1})
	other.AddItem(ctx, cart.Item{ID: "B", Quantity: 1})
	releaseHeld()
	releaseOther()
	releaseOther()

	acquire(t, m, "b")
	assert.Equal(t, 1, m.Len())

	reloaded := acquire(t, m, "a")
	assert.NotSame(t, held, reloaded)
	assert.Equal(t, []cart.Item{{ID: "A", Quantity: 1}, {ID: "B", Quantity: 1}}, reloaded.Cart())
}

func TestManager_ConcurrentAcquireSharesOneStore(t *testing.T) {
	m, err := NewManager(storage.NewMemory(), "", 1)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "a"
			if i%2 == 1 {
				id = "b"
			}
			s, release, err := m.Acquire(ctx, id)
			if err != nil {
				return
			}
			defer release()
			s.IncrementItemQuantity(ctx, "X")
			s.AddItem(ctx, cart.Item{ID: "X", Quantity: 1})
		}(i)
	}
	wg.Wait()

	total := 0
	for _, id := range []string{"a", "b"} {
		for _, item := range acquire(t, m, id).Cart() {
			total += item.Quantity
		}
	}
	assert.GreaterOrEqual(t, total, 20)
}

func TestManager_ReadFailureIsReturned(t *testing.T) {
	m, err := NewManager(unavailableKV{KV: storage.NewMemory()}, "", 4)
	require.NoError(t, err)

	s, release, err := m.Acquire(context.Background(), "a")

	assert.Nil(t, s)
	assert.Nil(t, release)
	assert.ErrorContains(t, err, "connection pool timeout")
	assert.Zero(t, m.Len())
}

func TestManager_StoreOptions(t *testing.T) {
	var hooked []string
	m, err := NewManager(storage.NewMemory(), "", 4, WithStoreOptions(func(sessionID string) []cart.Option {
		return []cart.Option{
			cart.WithAllowEmptyCheckout(false),
			cart.WithCheckoutHook(func(ctx context.Context, o cart.Order, st *cart.State) {
				hooked = append(hooked, sessionID)
			}),
		}
	}))
	require.NoError(t, err)
	ctx := context.Background()

	s := acquire(t, m, "a")
	_, err = s.Checkout(ctx, nil, nil)
	assert.ErrorIs(t, err, cart.ErrEmptyCart)

	s.AddItem(ctx, cart.Item{ID: "A", Quantity: 1})
	_, err = s.Checkout(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, hooked)
}

func TestManager_Purge(t *testing.T) {
	m, err := NewManager(storage.NewMemory(), "", 4)
	require.NoError(t, err)
	acquire(t, m, "a")
	_, release, err := m.Acquire(context.Background(), "b")
	require.NoError(t, err)

	m.Purge()
	assert.Equal(t, 1, m.Len())

	release()
	assert.Zero(t, m.Len())
}

func TestNewManager_InvalidSize(t *testing.T) {
	_, err := NewManager(storage.NewMemory(), "", 0)
	assert.Error(t, err)
}

func TestIDs(t *testing.T) {
	id := NewID()
	assert.True(t, ValidID(id))
	assert.NotEqual(t, id, NewID())
	assert.False(t, ValidID("not-a-session"))
	assert.False(t, ValidID(""))
}
