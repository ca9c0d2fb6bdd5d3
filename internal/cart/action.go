package cart

type ActionType string

const (
	ActionAddItem               ActionType = "ADD_ITEM"
	ActionRemoveItem            ActionType = "REMOVE_ITEM"
	ActionIncrementItemQuantity ActionType = "INCREMENT_ITEM_QUANTITY"
	ActionDecrementItemQuantity ActionType = "DECREMENT_ITEM_QUANTITY"
	ActionCheckoutCart          ActionType = "CHECKOUT_CART"
)

// Action is a tagged request for one state transition.
type Action struct {
	Type    ActionType
	Payload any
}

type AddItemPayload struct {
	Item Item
}

type ItemIDPayload struct {
	ItemID string
}

// NavigateFunc moves the shopper to another view.
type NavigateFunc func(path string)

type CheckoutPayload struct {
	Order    OrderDetails
	Callback NavigateFunc
}

func AddItemAction(item Item) Action {
	return Action{Type: ActionAddItem, Payload: AddItemPayload{Item: item}}
}

func RemoveItemAction(itemID string) Action {
	return Action{Type: ActionRemoveItem, Payload: ItemIDPayload{ItemID: itemID}}
}

func IncrementItemQuantityAction(itemID string) Action {
	return Action{Type: ActionIncrementItemQuantity, Payload: ItemIDPayload{ItemID: itemID}}
}

func DecrementItemQuantityAction(itemID string) Action {
	return Action{Type: ActionDecrementItemQuantity, Payload: ItemIDPayload{ItemID: itemID}}
}

func CheckoutCartAction(order OrderDetails, callback NavigateFunc) Action {
	return Action{Type: ActionCheckoutCart, Payload: CheckoutPayload{Order: order, Callback: callback}}
}
