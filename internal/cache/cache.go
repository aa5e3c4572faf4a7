package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

// Cache keeps short-lived projections of orders and the product listing.
// Every method is safe to call when the entry does not exist.
type Cache struct {
	rdb *redis.Client
}

func New(addr string) *Cache {
	return &Cache{rdb: redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Cache) GetOrder(ctx context.Context, orderID uint) (*models.Order, bool) {
	raw, err := c.rdb.Get(ctx, fmt.Sprintf(KeyOrder, orderID)).Bytes()
	if err != nil {
		return nil, false
	}
	var order models.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, false
	}
	return &order, true
}

func (c *Cache) SetOrder(ctx context.Context, order *models.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf(KeyOrder, order.ID), raw, TTLOrder).Err()
}

// InvalidateOrder is idempotent: deleting an absent key is not an error.
func (c *Cache) InvalidateOrder(ctx context.Context, orderID uint) error {
	return c.rdb.Del(ctx, fmt.Sprintf(KeyOrder, orderID)).Err()
}

func (c *Cache) GetProductList(ctx context.Context) ([]models.Product, bool) {
	raw, err := c.rdb.Get(ctx, KeyProductList).Bytes()
	if err != nil {
		return nil, false
	}
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false
	}
	return products, true
}

func (c *Cache) SetProductList(ctx context.Context, products []models.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, KeyProductList, raw, TTLProductList).Err()
}

func (c *Cache) InvalidateProductList(ctx context.Context) error {
	return c.rdb.Del(ctx, KeyProductList).Err()
}

func (c *Cache) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *Cache) SetRaw(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
