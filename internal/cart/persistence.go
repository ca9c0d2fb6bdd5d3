package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

const (
	DefaultNamespace    = "@coffee-delivery"
	DefaultStateVersion = "1.0.0"
)

// StorageKey builds the versioned key the whole state lives under. Bumping
// the version abandons older blobs instead of migrating them.
func StorageKey(namespace, version string) string {
	return fmt.Sprintf("%s:cart-state-%s", namespace, version)
}

// Persister loads and saves the complete cart state.
type Persister interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// Bridge persists the state as one JSON blob under a fixed key.
type Bridge struct {
	kv  storage.KV
	key string
}

func NewBridge(kv storage.KV, key string) *Bridge {
	if key == "" {
		key = StorageKey(DefaultNamespace, DefaultStateVersion)
	}
	return &Bridge{kv: kv, key: key}
}

func (b *Bridge) Key() string { return b.key }

func (b *Bridge) Load(ctx context.Context) (*State, error) {
	raw, err := b.kv.Get(ctx, b.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("read %s: %w", b.key, err)
	}
	if raw == "" {
		return nil, ErrNoState
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if state.Cart == nil {
		state.Cart = []Item{}
	}
	if state.Orders == nil {
		state.Orders = []Order{}
	}
	return &state, nil
}

func (b *Bridge) Save(ctx context.Context, state *State) error {
	if state == nil {
		state = EmptyState()
	}
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode cart state: %w", err)
	}
	if err := b.kv.Set(ctx, b.key, string(body)); err != nil {
		return fmt.Errorf("write %s: %w", b.key, err)
	}
	return nil
}
