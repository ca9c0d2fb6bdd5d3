package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

type failingKV struct {
	storage.KV
	err error
}

func (f failingKV) Get(ctx context.Context, key string) (string, error) { return "", f.err }
func (f failingKV) Set(ctx context.Context, key, value string) error   { return f.err }

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "@coffee-delivery:cart-state-1.0.0", StorageKey(DefaultNamespace, DefaultStateVersion))
	assert.Equal(t, "shop:cart-state-2.0.0", StorageKey("shop", "2.0.0"))
	assert.Equal(t, "@coffee-delivery:cart-state-1.0.0", NewBridge(storage.NewMemory(), "").Key())
}

func TestBridge_Load(t *testing.T) {
	ctx := context.Background()

	tests := map[string]struct {
		stored  *string
		wantErr error
		want    *State
	}{
		"missing key": {
			wantErr: ErrNoState,
		},
		"empty value": {
			stored:  ptr(""),
			wantErr: ErrNoState,
		},
		"malformed json": {
			stored:  ptr("{not json"),
			wantErr: ErrCorruptState,
		},
		"null slices are normalized": {
			stored: ptr(`{"cart":null,"orders":null}`),
			want:   EmptyState(),
		},
		"valid state": {
			stored: ptr(`{"cart":[{"id":"A","quantity":2}],"orders":[{"id":7,"items":[{"id":"B","quantity":1}],"address":"X"}]}`),
			want: &State{
				Cart: []Item{{ID: "A", Quantity: 2}},
				Orders: []Order{{
					ID:      7,
					Items:   []Item{{ID: "B", Quantity: 1}},
					Details: OrderDetails{"address": "X"},
				}},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			kv := storage.NewMemory()
			b := NewBridge(kv, "")
			if tt.stored != nil {
				require.NoError(t, kv.Set(ctx, b.Key(), *tt.stored))
			}

			got, err := b.Load(ctx)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBridge_LoadReadError(t *testing.T) {
	b := NewBridge(failingKV{err: errors.New("disk gone")}, "")

	_, err := b.Load(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoState)
	assert.NotErrorIs(t, err, ErrCorruptState)
}

func TestBridge_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	b := NewBridge(kv, StorageKey("test", "1"))

	state := stateWith(Item{ID: "A", Quantity: 3})
	state.Orders = append(state.Orders, Order{
		ID:      1700000000000,
		Items:   []Item{{ID: "B", Quantity: 1}},
		Details: OrderDetails{"address": "Rua X", "number": float64(12)},
	})
	require.NoError(t, b.Save(ctx, state))

	raw, err := kv.Get(ctx, "test:cart-state-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cart": [{"id": "A", "quantity": 3}],
		"orders": [{"id": 1700000000000, "items": [{"id": "B", "quantity": 1}], "address": "Rua X", "number": 12}]
	}`, raw)

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestBridge_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	b := NewBridge(storage.NewMemory(), "")

	require.NoError(t, b.Save(ctx, stateWith(Item{ID: "A", Quantity: 1})))
	require.NoError(t, b.Save(ctx, EmptyState()))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.Cart)
}

func TestBridge_SaveError(t *testing.T) {
	b := NewBridge(failingKV{err: errors.New("quota exceeded")}, "")

	err := b.Save(context.Background(), EmptyState())

	assert.ErrorContains(t, err, "quota exceeded")
}

func TestStore_WithBridgeSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	first := newTestStore(t, NewBridge(kv, ""))
	first.AddItem(ctx, Item{ID: "A", Quantity: 2})
	first.AddItem(ctx, Item{ID: "B", Quantity: 1})
	first.RemoveItem(ctx, "B")

	second := newTestStore(t, NewBridge(kv, ""))

	assert.Equal(t, []Item{{ID: "A", Quantity: 2}}, second.Cart())
}

func TestStore_ReadFailureKeepsOrderHistory(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()

	first := newTestStore(t, NewBridge(kv, ""))
	first.AddItem(ctx, Item{ID: "A", Quantity: 1})
	_, err := first.Checkout(ctx, nil, nil)
	require.NoError(t, err)

	unavailable := failingKV{KV: kv, err: errors.New("i/o timeout")}
	_, err = NewStore(ctx, NewBridge(unavailable, ""))
	require.ErrorContains(t, err, "i/o timeout")

	reloaded := newTestStore(t, NewBridge(kv, ""))
	assert.Len(t, reloaded.Orders(), 1)
}

func ptr(s string) *string { return &s }
