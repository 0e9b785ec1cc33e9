package cart

import "context"

// Persistence durably stores the line list of one cart. ReadCart returns an
// empty list when nothing has been written yet.
type Persistence interface {
	ReadCart(ctx context.Context, cartID string) ([]LineItem, error)
	WriteCart(ctx context.Context, cartID string, items []LineItem) error
}
