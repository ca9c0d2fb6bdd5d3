package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// API is the surface consumers use to read and change cart state.
type API interface {
	Snapshot() *State
	Order(id int64) (Order, bool)
	AddItem(ctx context.Context, item Item)
	RemoveItem(ctx context.Context, itemID string)
	IncrementItemQuantity(ctx context.Context, itemID string)
	DecrementItemQuantity(ctx context.Context, itemID string)
	Checkout(ctx context.Context, details OrderDetails, navigate NavigateFunc) (Order, error)
}

// CheckoutHook runs after a checkout has been committed and persisted.
type CheckoutHook func(ctx context.Context, order Order, state *State)

// Recorder receives dispatch and persistence outcomes.
type Recorder interface {
	ObserveDispatch(action ActionType, changed bool)
	ObservePersistFailure()
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithReducer(r *Reducer) Option {
	return func(s *Store) {
		if r != nil {
			s.reducer = r
		}
	}
}

// WithNavigator sets the navigation used when a checkout carries no callback.
func WithNavigator(navigate NavigateFunc) Option {
	return func(s *Store) { s.navigate = navigate }
}

func WithCheckoutHook(hook CheckoutHook) Option {
	return func(s *Store) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

func WithRecorder(rec Recorder) Option {
	return func(s *Store) { s.recorder = rec }
}

// WithAllowEmptyCheckout controls whether an empty cart can be checked out.
func WithAllowEmptyCheckout(allow bool) Option {
	return func(s *Store) { s.allowEmptyCheckout = allow }
}

// Store owns the live state of one session. All changes go through Dispatch.
type Store struct {
	mu    sync.Mutex
	state *State

	persister          Persister
	reducer            *Reducer
	navigate           NavigateFunc
	hooks              []CheckoutHook
	recorder           Recorder
	allowEmptyCheckout bool
	logger             *zap.Logger
}

var _ API = (*Store)(nil)

// NewStore rehydrates the state from the persister. A missing or corrupt
// blob starts an empty state. Any other read error is returned: starting
// empty then would overwrite the stored order history on the next change.
func NewStore(ctx context.Context, persister Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister:          persister,
		allowEmptyCheckout: true,
		logger:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reducer == nil {
		s.reducer = NewReducer(nil)
	}
	state, err := s.initialize(ctx)
	if err != nil {
		return nil, err
	}
	s.state = state
	return s, nil
}

func (s *Store) initialize(ctx context.Context) (*State, error) {
	if s.persister == nil {
		return EmptyState(), nil
	}
	state, err := s.persister.Load(ctx)
	switch {
	case err == nil:
		s.logger.Debug("cart state restored",
			zap.Int("items", len(state.Cart)),
			zap.Int("orders", len(state.Orders)))
		return state, nil
	case errors.Is(err, ErrNoState):
		s.logger.Debug("no stored cart state, starting empty")
	case errors.Is(err, ErrCorruptState):
		s.logger.Warn("discarding stored cart state", zap.Error(err))
	default:
		return nil, fmt.Errorf("load cart state: %w", err)
	}
	return EmptyState(), nil
}

// Dispatch applies an action, persists the new state when it changed and
// then runs the resulting effect.
func (s *Store) Dispatch(ctx context.Context, action Action) Effect {
	eff, _ := s.dispatch(ctx, action, nil)
	return eff
}

func (s *Store) dispatch(ctx context.Context, action Action, guard func(*State) error) (Effect, error) {
	s.mu.Lock()
	if guard != nil {
		if err := guard(s.state); err != nil {
			s.mu.Unlock()
			return Effect{}, err
		}
	}

	prev := s.state
	next, eff := s.reducer.Reduce(prev, action)
	changed := next != prev
	if changed {
		s.state = next
		s.persist(ctx, next)
	}
	committed := s.state.Clone()
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.ObserveDispatch(action.Type, changed)
	}
	s.runEffect(ctx, action, eff, committed)
	return eff, nil
}

func (s *Store) persist(ctx context.Context, state *State) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, state); err != nil {
		s.logger.Error("persist cart state", zap.Error(err))
		if s.recorder != nil {
			s.recorder.ObservePersistFailure()
		}
	}
}

func (s *Store) runEffect(ctx context.Context, action Action, eff Effect, committed *State) {
	if eff.NavigateTo != "" {
		navigate := s.navigate
		if p, ok := action.Payload.(CheckoutPayload); ok && p.Callback != nil {
			navigate = p.Callback
		}
		if navigate != nil {
			navigate(eff.NavigateTo)
		}
	}
	if eff.Order != nil {
		for _, hook := range s.hooks {
			hook(ctx, eff.Order.clone(), committed)
		}
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) Cart() []Item {
	return s.Snapshot().Cart
}

func (s *Store) Orders() []Order {
	return s.Snapshot().Orders
}

func (s *Store) Order(id int64) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Order(id)
}

func (s *Store) AddItem(ctx context.Context, item Item) {
	s.Dispatch(ctx, AddItemAction(item))
}

func (s *Store) RemoveItem(ctx context.Context, itemID string) {
	s.Dispatch(ctx, RemoveItemAction(itemID))
}

func (s *Store) IncrementItemQuantity(ctx context.Context, itemID string) {
	s.Dispatch(ctx, IncrementItemQuantityAction(itemID))
}

func (s *Store) DecrementItemQuantity(ctx context.Context, itemID string) {
	s.Dispatch(ctx, DecrementItemQuantityAction(itemID))
}

// Checkout turns the cart into an order. navigate overrides the store's
// navigator for this call and is invoked once with the success path.
func (s *Store) Checkout(ctx context.Context, details OrderDetails, navigate NavigateFunc) (Order, error) {
	var guard func(*State) error
	if !s.allowEmptyCheckout {
		guard = func(st *State) error {
			if len(st.Cart) == 0 {
				return ErrEmptyCart
			}
			return nil
		}
	}

	eff, err := s.dispatch(ctx, CheckoutCartAction(details, navigate), guard)
	if err != nil {
		return Order{}, err
	}
	return eff.Order.clone(), nil
}
