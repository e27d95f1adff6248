package domain

import "errors"

// Identity resolution outcomes. Anonymous is modelled as a nil identity, not
// an error; these cover the failure half of the taxonomy.
var (
	ErrUnauthenticated     = errors.New("credential rejected")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

// Profile and authorization outcomes.
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrAlreadyClaimed   = errors.New("gift already claimed")
)

// Shop and ledger outcomes. ErrCheckoutConflict surfaces when the store
// exhausts its transaction retries under write contention; it maps to a
// retryable 409.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrNotSeller         = errors.New("not the product seller")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCheckoutConflict  = errors.New("concurrent balance update")
)
