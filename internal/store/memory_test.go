package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

func seedProduct(t *testing.T, mem *Memory, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		FarmerID:         primitive.NewObjectID(),
		FarmerTelegramID: 555,
		Name:             "Eggs",
		Price:            4.20,
		Category:         "dairy",
		Stock:            stock,
		IsAvailable:      stock > 0,
	}
	require.NoError(t, mem.ProductsStore().Create(context.Background(), p))
	return p
}

func TestReserveGuards(t *testing.T) {
	mem := NewMemory()
	products := mem.ProductsStore()
	p := seedProduct(t, mem, 2)

	require.NoError(t, products.Reserve(context.Background(), p.ID, 2))

	got, err := products.ByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsAvailable)

	// Once unavailable, further reservations report that state.
	err = products.Reserve(context.Background(), p.ID, 1)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = products.Reserve(context.Background(), primitive.NewObjectID(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveInsufficient(t *testing.T) {
	mem := NewMemory()
	products := mem.ProductsStore()
	p := seedProduct(t, mem, 1)

	err := products.Reserve(context.Background(), p.ID, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := products.ByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

// Concurrent reservations must never drive stock negative: the guard and
// the decrement are one atomic step.
func TestReserveConcurrent(t *testing.T) {
	mem := NewMemory()
	products := mem.ProductsStore()
	p := seedProduct(t, mem, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := products.Reserve(context.Background(), p.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	got, err := products.ByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.IsAvailable)
}

func TestRestore(t *testing.T) {
	mem := NewMemory()
	products := mem.ProductsStore()
	p := seedProduct(t, mem, 2)

	require.NoError(t, products.Reserve(context.Background(), p.ID, 2))

	found, err := products.Restore(context.Background(), p.ID, 2)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := products.ByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
	assert.True(t, got.IsAvailable)

	found, err = products.Restore(context.Background(), primitive.NewObjectID(), 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetStatusReturnsPriorDocument(t *testing.T) {
	mem := NewMemory()
	orders := mem.OrdersStore()
	o := &model.Order{
		ConsumerID: primitive.NewObjectID(),
		FarmerID:   primitive.NewObjectID(),
		Status:     model.StatusPending,
	}
	require.NoError(t, orders.Create(context.Background(), o))

	prev, err := orders.SetStatus(context.Background(), o.ID, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, prev.Status)

	current, err := orders.ByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, current.Status)

	_, err = orders.SetStatus(context.Background(), primitive.NewObjectID(), model.StatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}
