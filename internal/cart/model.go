package cart

import (
	"encoding/json"
	"fmt"
)

type Item struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// OrderDetails is the checkout form data (address, payment method, ...).
// It is forwarded into the order untouched.
type OrderDetails map[string]any

type Order struct {
	ID      int64
	Items   []Item
	Details OrderDetails
}

type State struct {
	Cart   []Item  `json:"cart"`
	Orders []Order `json:"orders"`
}

func EmptyState() *State {
	return &State{
		Cart:   []Item{},
		Orders: []Order{},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return EmptyState()
	}
	out := &State{
		Cart:   cloneItems(s.Cart),
		Orders: make([]Order, len(s.Orders)),
	}
	for i, o := range s.Orders {
		out.Orders[i] = o.clone()
	}
	return out
}

func (s *State) findItem(id string) int {
	for i := range s.Cart {
		if s.Cart[i].ID == id {
			return i
		}
	}
	return -1
}

// Order returns the order with the given id.
func (s *State) Order(id int64) (Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o.clone(), true
		}
	}
	return Order{}, false
}

func (o Order) clone() Order {
	return Order{
		ID:      o.ID,
		Items:   cloneItems(o.Items),
		Details: o.Details.clone(),
	}
}

func (d OrderDetails) clone() OrderDetails {
	if d == nil {
		return OrderDetails{}
	}
	out := make(OrderDetails, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the maps and slices JSON decoding produces. Other
// reference types are shared.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case OrderDetails:
		return v.clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for k, e := range v {
			out[k] = e
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// MarshalJSON flattens the details next to id and items. id and items
// take precedence over detail keys with the same name, so a detail can
// never replace the order's identity or contents.
func (o Order) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(o.Details)+2)
	for k, v := range o.Details {
		flat[k] = v
	}
	items := o.Items
	if items == nil {
		items = []Item{}
	}
	flat["id"] = o.ID
	flat["items"] = items
	return json.Marshal(flat)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var decoded Order
	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &decoded.ID); err != nil {
			return fmt.Errorf("order id: %w", err)
		}
		delete(raw, "id")
	}
	if v, ok := raw["items"]; ok {
		if err := json.Unmarshal(v, &decoded.Items); err != nil {
			return fmt.Errorf("order items: %w", err)
		}
		delete(raw, "items")
	}
	if decoded.Items == nil {
		decoded.Items = []Item{}
	}

	decoded.Details = make(OrderDetails, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("order detail %q: %w", k, err)
		}
		decoded.Details[k] = val
	}

	*o = decoded
	return nil
}
