package order

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/db"
	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/repo"
)

type fakeNotifier struct {
	created       []uint
	cancelled     []uint
	statusChanged map[uint]string
	shipped       []uint
}

func (f *fakeNotifier) OrderCreated(_ context.Context, order *models.Order) {
	f.created = append(f.created, order.ID)
}

func (f *fakeNotifier) OrderCancelled(_ context.Context, orderID, _ uint) {
	f.cancelled = append(f.cancelled, orderID)
}

func (f *fakeNotifier) OrderStatusChanged(_ context.Context, orderID uint, status string) {
	if f.statusChanged == nil {
		f.statusChanged = map[uint]string{}
	}
	f.statusChanged[orderID] = status
}

func (f *fakeNotifier) OrderShipped(_ context.Context, orderID uint) {
	f.shipped = append(f.shipped, orderID)
}

type fakeCache struct {
	orders      map[uint]*models.Order
	invalidated []uint
}

func (f *fakeCache) GetOrder(_ context.Context, orderID uint) (*models.Order, bool) {
	o, ok := f.orders[orderID]
	return o, ok
}

func (f *fakeCache) SetOrder(_ context.Context, order *models.Order) error {
	if f.orders == nil {
		f.orders = map[uint]*models.Order{}
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeCache) InvalidateOrder(_ context.Context, orderID uint) error {
	f.invalidated = append(f.invalidated, orderID)
	delete(f.orders, orderID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeNotifier, *fakeCache) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	notifier := &fakeNotifier{}
	store := &fakeCache{}
	svc := &Service{
		DB:       gdb,
		Catalog:  &repo.CatalogRepo{DB: gdb},
		Orders:   &repo.OrderRepo{DB: gdb},
		Notifier: notifier,
		Cache:    store,
	}
	return svc, notifier, store
}

func seedProduct(t *testing.T, svc *Service, name string, price float64, stock uint) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock, Category: models.CategoryElectronics}
	require.NoError(t, svc.DB.Create(p).Error)
	return p
}

func productStock(t *testing.T, svc *Service, id uint) uint {
	t.Helper()
	var p models.Product
	require.NoError(t, svc.DB.First(&p, id).Error)
	return p.Stock
}

func countRows(t *testing.T, svc *Service, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, svc.DB.Model(model).Count(&n).Error)
	return n
}

func TestPlaceOrder(t *testing.T) {
	svc, notifier, store := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 5000.99, 100)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Phone", Quantity: 2},
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, order.Status)
	require.Equal(t, uint(1), order.UserID)
	require.Len(t, order.Items, 1)
	require.Equal(t, phone.ID, order.Items[0].ProductID)
	require.Equal(t, uint(2), order.Items[0].Quantity)
	require.InDelta(t, 10001.98, order.Items[0].Price, 0.001)

	require.Equal(t, uint(98), productStock(t, svc, phone.ID))
	require.Equal(t, []uint{order.ID}, notifier.created)
	require.Equal(t, []uint{order.ID}, store.invalidated)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	chair := seedProduct(t, svc, "Chair", 49.90, 5)

	_, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Chair", Quantity: 10},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Chair")

	require.Equal(t, uint(5), productStock(t, svc, chair.ID))
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
	require.EqualValues(t, 0, countRows(t, svc, &models.OrderItem{}))
	require.Empty(t, notifier.created)
}

func TestPlaceOrderNoKnownProducts(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Nonexistent", Quantity: 1},
	})
	require.ErrorIs(t, err, ErrEmptyOrder)
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
}

func TestPlaceOrderSkipsUnknownNames(t *testing.T) {
	svc, _, _ := newTestService(t)
	book := seedProduct(t, svc, "Book", 12.50, 7)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Ghost", Quantity: 3},
		{ProductName: "Book", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, book.ID, order.Items[0].ProductID)
	require.Equal(t, uint(6), productStock(t, svc, book.ID))
}

func TestPlaceOrderNameFolding(t *testing.T) {
	svc, _, _ := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "phone", Quantity: 1},
		{ProductName: "PHONE", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	require.Equal(t, uint(3), order.Items[0].Quantity)
	require.InDelta(t, 300, order.Items[0].Price, 0.001)
	require.Equal(t, uint(7), productStock(t, svc, phone.ID))
}

func TestPlaceOrderZeroQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedProduct(t, svc, "Phone", 100, 10)

	_, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Phone", Quantity: 0},
	})
	require.ErrorIs(t, err, ErrValidation)
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
}

func TestPlaceOrderAtomicAcrossLines(t *testing.T) {
	svc, _, _ := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 10)
	chair := seedProduct(t, svc, "Chair", 50, 1)

	_, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Phone", Quantity: 2},
		{ProductName: "Chair", Quantity: 5},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// the rollback must cover lines processed before the failing one
	require.Equal(t, uint(10), productStock(t, svc, phone.ID))
	require.Equal(t, uint(1), productStock(t, svc, chair.ID))
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
	require.EqualValues(t, 0, countRows(t, svc, &models.OrderItem{}))
}

func TestPlaceOrderNoOversell(t *testing.T) {
	svc, _, _ := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 3)

	_, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(context.Background(), 2, []CartLine{{ProductName: "Phone", Quantity: 2}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.Equal(t, uint(1), productStock(t, svc, phone.ID))
	require.EqualValues(t, 1, countRows(t, svc, &models.Order{}))
}

func TestCancelOrderRestocks(t *testing.T) {
	svc, notifier, store := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 10)
	chair := seedProduct(t, svc, "Chair", 50, 5)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Phone", Quantity: 2},
		{ProductName: "Chair", Quantity: 1},
	})
	require.NoError(t, err)
	require.Equal(t, uint(8), productStock(t, svc, phone.ID))
	require.Equal(t, uint(4), productStock(t, svc, chair.ID))

	require.NoError(t, svc.CancelOrder(context.Background(), order.ID))

	require.Equal(t, uint(10), productStock(t, svc, phone.ID))
	require.Equal(t, uint(5), productStock(t, svc, chair.ID))
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
	require.EqualValues(t, 0, countRows(t, svc, &models.OrderItem{}))
	require.Equal(t, []uint{order.ID}, notifier.cancelled)
	require.Equal(t, []uint{order.ID, order.ID}, store.invalidated)
}

func TestCancelShippedOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 2}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusShipped)
	require.NoError(t, err)

	err = svc.CancelOrder(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrIrreversible)

	require.Equal(t, uint(8), productStock(t, svc, phone.ID))
	require.EqualValues(t, 1, countRows(t, svc, &models.Order{}))
	require.EqualValues(t, 1, countRows(t, svc, &models.OrderItem{}))
}

func TestCancelOrderMissingProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	phone := seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 2}})
	require.NoError(t, err)

	require.NoError(t, svc.DB.Delete(&models.Product{}, phone.ID).Error)

	// nothing to restock, the cancellation still removes the order
	require.NoError(t, svc.CancelOrder(context.Background(), order.ID))
	require.EqualValues(t, 0, countRows(t, svc, &models.Order{}))
}

func TestCancelUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.CancelOrder(context.Background(), 42), ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), order.ID, models.StatusProcessing)
	require.NoError(t, err)
	require.Equal(t, models.StatusProcessing, updated.Status)
	require.Equal(t, models.StatusProcessing, notifier.statusChanged[order.ID])

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusProcessing)
	require.ErrorIs(t, err, ErrNoChange)

	_, err = svc.UpdateStatus(context.Background(), order.ID, "lost")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateStatus(context.Background(), 42, models.StatusShipped)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusShippedNotifies(t *testing.T) {
	svc, notifier, _ := newTestService(t)
	seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), order.ID, models.StatusShipped)
	require.NoError(t, err)
	require.Equal(t, []uint{order.ID}, notifier.shipped)
}

func TestGetUsesCache(t *testing.T) {
	svc, _, store := newTestService(t)
	seedProduct(t, svc, "Phone", 100, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{{ProductName: "Phone", Quantity: 1}})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	// the miss above populated the cache; a later read must not need the DB
	require.Contains(t, store.orders, order.ID)
	require.NoError(t, svc.DB.Exec("DELETE FROM orders").Error)

	got, err = svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
}

func TestGetUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Get(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTotalPrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	seedProduct(t, svc, "Phone", 5000.99, 10)
	seedProduct(t, svc, "Chair", 50, 10)

	order, err := svc.PlaceOrder(context.Background(), 1, []CartLine{
		{ProductName: "Phone", Quantity: 2},
		{ProductName: "Chair", Quantity: 1},
	})
	require.NoError(t, err)

	total, err := svc.TotalPrice(context.Background(), order.ID)
	require.NoError(t, err)
	require.InDelta(t, 10051.98, total, 0.001)
}

func TestListAllRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ListAll(context.Background(), repo.OrderFilter{Status: "lost"})
	require.ErrorIs(t, err, ErrValidation)
}
