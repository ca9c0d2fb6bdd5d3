package cart

import "errors"

var (
	// ErrNoState means nothing has been persisted under the state key yet.
	ErrNoState = errors.New("no persisted cart state")
	// ErrCorruptState means the persisted blob could not be decoded.
	ErrCorruptState = errors.New("persisted cart state is corrupt")
	// ErrEmptyCart is returned by Checkout when empty checkouts are disabled.
	ErrEmptyCart = errors.New("cart is empty")
)
