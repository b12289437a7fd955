// Package store defines the persistence surface for users, products and
// orders, with a MongoDB implementation and an in-memory one for tests.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable reports a reservation against a product whose
	// availability flag is off.
	ErrUnavailable = errors.New("product not available")
	// ErrInsufficientStock reports a failed conditional decrement: the
	// product exists and is available but holds less stock than requested.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Users interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	SetRole(ctx context.Context, telegramID int64, role model.Role) (*model.User, error)
}

// ProductFilter narrows List results. Zero values mean "no constraint";
// listing always restricts to available products.
type ProductFilter struct {
	Category         string
	FarmerTelegramID int64
	Search           string
}

// ProductPatch is a field-wise update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Images      *[]string
	Stock       *int
	IsAvailable *bool
	Location    *string
	Tags        *[]string
}

type Products interface {
	ByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, f ProductFilter) ([]model.Product, error)

	// Reserve atomically decrements stock by qty, guarded by
	// stock >= qty and isAvailable. The guard and the decrement are a
	// single write, so concurrent reservations can never drive stock
	// negative. When the decrement empties the stock the availability
	// flag is turned off.
	Reserve(ctx context.Context, id primitive.ObjectID, qty int) error

	// Restore increments stock by qty and turns availability back on.
	// It reports false, with no error, when the product no longer exists.
	Restore(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
}

type Orders interface {
	Create(ctx context.Context, o *model.Order) error
	ByID(ctx context.Context, id primitive.ObjectID) (*model.Order, error)
	ByConsumer(ctx context.Context, consumerID primitive.ObjectID) ([]model.Order, error)
	ByFarmer(ctx context.Context, farmerID primitive.ObjectID) ([]model.Order, error)

	// SetStatus swaps the order's status and returns the document as it
	// was before the swap, so callers can act on the transition edge.
	SetStatus(ctx context.Context, id primitive.ObjectID, status model.OrderStatus) (*model.Order, error)
}
