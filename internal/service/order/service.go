package order

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/repo"
)

var (
	ErrValidation        = errors.New("validation")           // 400
	ErrNotFound          = errors.New("order not found")      // 404
	ErrEmptyOrder        = errors.New("no available products in the order")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrIrreversible      = errors.New("order has already been shipped")
	ErrNoChange          = errors.New("this status is already set")
)

type CartLine struct {
	ProductName string
	Quantity    uint
}

// Notifier receives fire-and-forget signals after a committed mutation.
// Implementations must never block the caller on delivery failures.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderCancelled(ctx context.Context, orderID, userID uint)
	OrderStatusChanged(ctx context.Context, orderID uint, status string)
	OrderShipped(ctx context.Context, orderID uint)
}

// Cache holds a keyed projection of a single order. Invalidation is
// idempotent and a failed cache call never surfaces to the caller.
type Cache interface {
	GetOrder(ctx context.Context, orderID uint) (*models.Order, bool)
	SetOrder(ctx context.Context, order *models.Order) error
	InvalidateOrder(ctx context.Context, orderID uint) error
}

// Service is the reservation engine: it owns every stock mutation and keeps
// the stock >= 0 invariant by locking product rows for the duration of the
// enclosing transaction.
type Service struct {
	DB       *gorm.DB
	Catalog  *repo.CatalogRepo
	Orders   *repo.OrderRepo
	Notifier Notifier
	Cache    Cache
}

// PlaceOrder atomically checks availability, decrements stock and creates an
// order with its lines. Cart lines naming unknown products are silently
// dropped. If any remaining line exceeds the available stock the whole order
// is rolled back.
func (s *Service) PlaceOrder(ctx context.Context, userID uint, cart []CartLine) (*models.Order, error) {
	for _, line := range cart {
		if line.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}

	var order *models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// First pass: resolve names case-insensitively, merging duplicates.
		// Stock is not read here; the authoritative read happens under lock.
		wanted := make(map[uint]uint)
		var ids []uint
		for _, line := range cart {
			p, err := s.Catalog.FindByNameFold(tx, line.ProductName)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if _, ok := wanted[p.ID]; ok {
				wanted[p.ID] += line.Quantity
				continue
			}
			wanted[p.ID] = line.Quantity
			ids = append(ids, p.ID)
		}
		if len(ids) == 0 {
			return ErrEmptyOrder
		}

		// Lock acquisition is ordered by product id so two overlapping carts
		// can never take the same pair of locks in opposite order.
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		order = &models.Order{UserID: userID, Status: models.StatusPending}
		if err := s.Orders.Create(tx, order); err != nil {
			return err
		}

		for _, id := range ids {
			want := wanted[id]
			p, err := s.Catalog.LockAndFetch(tx, id)
			if err != nil {
				return err
			}
			if p.Stock < want {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
			}

			item := models.OrderItem{
				OrderID:   order.ID,
				ProductID: p.ID,
				Quantity:  want,
				Price:     p.Price * float64(want),
			}
			if err := s.Orders.CreateItem(tx, &item); err != nil {
				return err
			}
			p.Stock -= want
			if err := s.Catalog.Save(tx, p); err != nil {
				return err
			}
			item.Product = p
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidate(ctx, order.ID)
	if s.Notifier != nil {
		s.Notifier.OrderCreated(ctx, order)
	}
	return order, nil
}

// CancelOrder restores the stock of every order line and deletes the order.
// Orders that were already shipped or delivered cannot be cancelled.
func (s *Service) CancelOrder(ctx context.Context, orderID uint) error {
	var userID uint
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.Orders.FetchWithItems(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Status == models.StatusShipped || order.Status == models.StatusDelivered {
			return ErrIrreversible
		}
		userID = order.UserID

		items := make([]models.OrderItem, len(order.Items))
		copy(items, order.Items)
		sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

		for _, item := range items {
			p, err := s.Catalog.LockAndFetch(tx, item.ProductID)
			if err != nil {
				// the product was removed from the catalog since the order
				// was placed; there is no row to restock
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			p.Stock += item.Quantity
			if err := s.Catalog.Save(tx, p); err != nil {
				return err
			}
		}
		return s.Orders.DeleteWithItems(tx, order)
	})
	if txErr != nil {
		return txErr
	}

	s.invalidate(ctx, orderID)
	if s.Notifier != nil {
		s.Notifier.OrderCancelled(ctx, orderID, userID)
	}
	return nil
}

// UpdateStatus persists a new order status. Setting the current status again
// is rejected without a write.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, newStatus string) (*models.Order, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	var order *models.Order
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.Orders.FetchWithItems(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.Status == newStatus {
			return ErrNoChange
		}
		order.Status = newStatus
		return s.Orders.Save(tx, order)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.invalidate(ctx, orderID)
	if s.Notifier != nil {
		s.Notifier.OrderStatusChanged(ctx, orderID, newStatus)
		if newStatus == models.StatusShipped {
			s.Notifier.OrderShipped(ctx, orderID)
		}
	}
	return order, nil
}

// Get serves the cached projection when present and falls back to the
// database on a miss.
func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	if s.Cache != nil {
		if order, ok := s.Cache.GetOrder(ctx, orderID); ok {
			return order, nil
		}
	}

	order, err := s.Orders.FetchWithItems(s.DB.WithContext(ctx), orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if s.Cache != nil {
		_ = s.Cache.SetOrder(ctx, order)
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context, f repo.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !models.ValidStatus(f.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.Orders.ListAll(ctx, f)
}

func (s *Service) TotalPrice(ctx context.Context, orderID uint) (float64, error) {
	return s.Orders.TotalPrice(s.DB.WithContext(ctx), orderID)
}

func (s *Service) invalidate(ctx context.Context, orderID uint) {
	if s.Cache == nil {
		return
	}
	_ = s.Cache.InvalidateOrder(ctx, orderID)
}
