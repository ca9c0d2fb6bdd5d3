package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_MarshalFlattensDetails(t *testing.T) {
	o := Order{
		ID:    5,
		Items: []Item{{ID: "A", Quantity: 1}},
		Details: OrderDetails{
			"address":       "X",
			"paymentMethod": "cash",
			"id":            "ignored",
			"items":         "ignored",
		},
	}

	body, err := json.Marshal(o)

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"items":[{"id":"A","quantity":1}],"address":"X","paymentMethod":"cash"}`, string(body))
}

func TestOrder_MarshalNilItems(t *testing.T) {
	body, err := json.Marshal(Order{ID: 1})

	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"items":[]}`, string(body))
}

func TestOrder_Unmarshal(t *testing.T) {
	t.Run("splits details from id and items", func(t *testing.T) {
		var o Order
		err := json.Unmarshal([]byte(`{"id":9,"items":[{"id":"A","quantity":2}],"address":{"street":"X"}}`), &o)

		require.NoError(t, err)
		assert.Equal(t, int64(9), o.ID)
		assert.Equal(t, []Item{{ID: "A", Quantity: 2}}, o.Items)
		assert.Equal(t, OrderDetails{"address": map[string]any{"street": "X"}}, o.Details)
	})

	t.Run("missing items become empty", func(t *testing.T) {
		var o Order
		require.NoError(t, json.Unmarshal([]byte(`{"id":1}`), &o))
		assert.Equal(t, []Item{}, o.Items)
		assert.Equal(t, OrderDetails{}, o.Details)
	})

	t.Run("bad id", func(t *testing.T) {
		var o Order
		assert.Error(t, json.Unmarshal([]byte(`{"id":"nope"}`), &o))
	})

	t.Run("not an object", func(t *testing.T) {
		var o Order
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &o))
	})
}

func TestState_CloneIsDeep(t *testing.T) {
	s := &State{
		Cart:   []Item{{ID: "A", Quantity: 1}},
		Orders: []Order{{ID: 1, Items: []Item{{ID: "B", Quantity: 1}}, Details: OrderDetails{"address": "X"}}},
	}

	c := s.Clone()
	c.Cart[0].Quantity = 9
	c.Orders[0].Items[0].Quantity = 9
	c.Orders[0].Details["address"] = "Y"

	assert.Equal(t, 1, s.Cart[0].Quantity)
	assert.Equal(t, 1, s.Orders[0].Items[0].Quantity)
	assert.Equal(t, "X", s.Orders[0].Details["address"])
}

func TestState_Order(t *testing.T) {
	s := EmptyState()
	s.Orders = append(s.Orders, Order{ID: 3, Items: []Item{}, Details: OrderDetails{}})

	o, ok := s.Order(3)
	assert.True(t, ok)
	assert.Equal(t, int64(3), o.ID)

	_, ok = s.Order(4)
	assert.False(t, ok)
}
