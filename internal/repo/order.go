package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

type OrderRepo struct {
	DB *gorm.DB
}

type OrderFilter struct {
	Status   string
	Username string
}

func (r *OrderRepo) Create(db *gorm.DB, order *models.Order) error {
	return db.Create(order).Error
}

func (r *OrderRepo) CreateItem(db *gorm.DB, item *models.OrderItem) error {
	return db.Create(item).Error
}

func (r *OrderRepo) FetchWithItems(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := db.Preload("Items.Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) Save(db *gorm.DB, order *models.Order) error {
	return db.Save(order).Error
}

// DeleteWithItems removes the order lines first so the delete works the same
// on engines without FK cascade support.
func (r *OrderRepo) DeleteWithItems(db *gorm.DB, order *models.Order) error {
	if err := db.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return db.Delete(order).Error
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) ListAll(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items.Product")
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.Username != "" {
		q = q.Joins("JOIN users ON users.id = orders.user_id").
			Where("LOWER(users.username) = LOWER(?)", f.Username)
	}

	var orders []models.Order
	if err := q.Order("orders.created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TotalPrice sums the captured line totals for one order on the database side.
func (r *OrderRepo) TotalPrice(db *gorm.DB, orderID uint) (float64, error) {
	var total float64
	err := db.Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(price), 0)").
		Scan(&total).Error
	return total, err
}

// PurgeCancelled deletes all cancelled orders with their lines. Stock is not
// restored: cancellation already did that when the status was set.
func (r *OrderRepo) PurgeCancelled(ctx context.Context) (int64, error) {
	var purged int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Order{}).
			Where("status = ?", models.StatusCancelled).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("order_id IN ?", ids).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}
