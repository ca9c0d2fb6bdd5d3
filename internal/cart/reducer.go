package cart

import (
	"fmt"
	"math"
)

// Effect describes a side effect the container runs after committing the
// state a reducer returned.
type Effect struct {
	NavigateTo string
	Order      *Order
}

func (e Effect) IsZero() bool {
	return e.NavigateTo == "" && e.Order == nil
}

// OrderSuccessPath is the route of the order success view.
func OrderSuccessPath(orderID int64) string {
	return fmt.Sprintf("/order/%d/success", orderID)
}

type transition func(state *State, payload any) (*State, Effect)

// Reducer computes the next state for an action. It never mutates the
// state it is given; unrecognized actions return the same pointer.
type Reducer struct {
	ids         OrderIDSource
	transitions map[ActionType]transition
}

func NewReducer(ids OrderIDSource) *Reducer {
	if ids == nil {
		ids = defaultOrderIDs
	}
	r := &Reducer{ids: ids}
	r.transitions = map[ActionType]transition{
		ActionAddItem:               addItem,
		ActionRemoveItem:            removeItem,
		ActionIncrementItemQuantity: incrementItemQuantity,
		ActionDecrementItemQuantity: decrementItemQuantity,
		ActionCheckoutCart:          r.checkoutCart,
	}
	return r
}

func (r *Reducer) Reduce(state *State, action Action) (*State, Effect) {
	apply, ok := r.transitions[action.Type]
	if !ok {
		return state, Effect{}
	}
	if state == nil {
		state = EmptyState()
	}
	return apply(state, action.Payload)
}

func addItem(state *State, payload any) (*State, Effect) {
	p, ok := payload.(AddItemPayload)
	if !ok {
		return state, Effect{}
	}

	next := state.Clone()
	if i := next.findItem(p.Item.ID); i >= 0 {
		next.Cart[i].Quantity = addQuantity(next.Cart[i].Quantity, p.Item.Quantity)
	} else {
		next.Cart = append(next.Cart, p.Item)
	}
	return next, Effect{}
}

func removeItem(state *State, payload any) (*State, Effect) {
	p, ok := payload.(ItemIDPayload)
	if !ok {
		return state, Effect{}
	}

	next := state.Clone()
	if i := next.findItem(p.ItemID); i >= 0 {
		next.Cart = append(next.Cart[:i], next.Cart[i+1:]...)
	}
	return next, Effect{}
}

func incrementItemQuantity(state *State, payload any) (*State, Effect) {
	p, ok := payload.(ItemIDPayload)
	if !ok {
		return state, Effect{}
	}

	next := state.Clone()
	if i := next.findItem(p.ItemID); i >= 0 {
		next.Cart[i].Quantity = addQuantity(next.Cart[i].Quantity, 1)
	}
	return next, Effect{}
}

func decrementItemQuantity(state *State, payload any) (*State, Effect) {
	p, ok := payload.(ItemIDPayload)
	if !ok {
		return state, Effect{}
	}

	next := state.Clone()
	if i := next.findItem(p.ItemID); i >= 0 && next.Cart[i].Quantity > 1 {
		next.Cart[i].Quantity--
	}
	return next, Effect{}
}

// addQuantity saturates at math.MaxInt.
func addQuantity(q, n int) int {
	if n > 0 && q > math.MaxInt-n {
		return math.MaxInt
	}
	return q + n
}

func (r *Reducer) checkoutCart(state *State, payload any) (*State, Effect) {
	p, ok := payload.(CheckoutPayload)
	if !ok {
		return state, Effect{}
	}

	order := Order{
		ID:      r.ids.NextOrderID(),
		Items:   cloneItems(state.Cart),
		Details: p.Order.clone(),
	}

	next := state.Clone()
	next.Orders = append(next.Orders, order)
	next.Cart = []Item{}

	placed := order.clone()
	return next, Effect{NavigateTo: OrderSuccessPath(order.ID), Order: &placed}
}
