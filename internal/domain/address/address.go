package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no shipping address can be resolved for
// the user.
var ErrNotFound = errors.New("shipping address not found")

// Address is a delivery destination owned by a user.
type Address struct {
	ID        string
	UserID    string
	Label     string
	Street    string
	City      string
	PostCode  string
	IsDefault bool
}

// Repository resolves shipping addresses. Find returns the user's address
// with the given id, or the user's default address when addressID is empty.
type Repository interface {
	Find(ctx context.Context, userID, addressID string) (*Address, error)
}
