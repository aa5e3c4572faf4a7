package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

func seedOrder(t *testing.T, gdb *gorm.DB, userID uint, status string, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{UserID: userID, Status: status}
	require.NoError(t, gdb.Create(order).Error)
	for i := range items {
		items[i].OrderID = order.ID
		require.NoError(t, gdb.Create(&items[i]).Error)
	}
	return order
}

func TestOrderListAll(t *testing.T) {
	gdb := newTestDB(t)
	r := &OrderRepo{DB: gdb}
	ctx := context.Background()

	require.NoError(t, gdb.Create(&models.User{
		Email: "alice@example.com", Username: "Alice", PasswordHash: "x", Role: "user",
	}).Error)
	require.NoError(t, gdb.Create(&models.User{
		Email: "bob@example.com", Username: "Bob", PasswordHash: "x", Role: "user",
	}).Error)

	seedOrder(t, gdb, 1, models.StatusPending)
	seedOrder(t, gdb, 1, models.StatusShipped)
	seedOrder(t, gdb, 2, models.StatusPending)

	orders, err := r.ListAll(ctx, OrderFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 3)

	orders, err = r.ListAll(ctx, OrderFilter{Status: models.StatusPending})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	orders, err = r.ListAll(ctx, OrderFilter{Username: "alice"})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	orders, err = r.ListAll(ctx, OrderFilter{Status: models.StatusPending, Username: "BOB"})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, uint(2), orders[0].UserID)
}

func TestTotalPrice(t *testing.T) {
	gdb := newTestDB(t)
	r := &OrderRepo{DB: gdb}

	p1 := &models.Product{Name: "Phone", Price: 100, Stock: 5, Category: models.CategoryElectronics}
	p2 := &models.Product{Name: "Chair", Price: 50, Stock: 5, Category: models.CategoryHome}
	require.NoError(t, gdb.Create(p1).Error)
	require.NoError(t, gdb.Create(p2).Error)

	order := seedOrder(t, gdb, 1, models.StatusPending,
		models.OrderItem{ProductID: p1.ID, Quantity: 2, Price: 200},
		models.OrderItem{ProductID: p2.ID, Quantity: 1, Price: 50},
	)

	total, err := r.TotalPrice(gdb, order.ID)
	require.NoError(t, err)
	require.InDelta(t, 250, total, 0.001)

	total, err = r.TotalPrice(gdb, 42)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestPurgeCancelled(t *testing.T) {
	gdb := newTestDB(t)
	r := &OrderRepo{DB: gdb}
	ctx := context.Background()

	p := &models.Product{Name: "Phone", Price: 100, Stock: 5, Category: models.CategoryElectronics}
	require.NoError(t, gdb.Create(p).Error)

	seedOrder(t, gdb, 1, models.StatusCancelled, models.OrderItem{ProductID: p.ID, Quantity: 1, Price: 100})
	seedOrder(t, gdb, 2, models.StatusCancelled)
	kept := seedOrder(t, gdb, 1, models.StatusPending, models.OrderItem{ProductID: p.ID, Quantity: 1, Price: 100})

	purged, err := r.PurgeCancelled(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, purged)

	var orders []models.Order
	require.NoError(t, gdb.Find(&orders).Error)
	require.Len(t, orders, 1)
	require.Equal(t, kept.ID, orders[0].ID)

	var items int64
	require.NoError(t, gdb.Model(&models.OrderItem{}).Count(&items).Error)
	require.EqualValues(t, 1, items)

	// stock is untouched; cancellation restocked before the status was set
	var got models.Product
	require.NoError(t, gdb.First(&got, p.ID).Error)
	require.Equal(t, uint(5), got.Stock)

	purged, err = r.PurgeCancelled(ctx)
	require.NoError(t, err)
	require.Zero(t, purged)
}
