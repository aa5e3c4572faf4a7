package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

type CatalogRepo struct {
	DB *gorm.DB
}

type ProductFilter struct {
	MinPrice *float64
	MaxPrice *float64
	Category string
}

// FindByNameFold resolves a product by case-insensitive name. Runs against
// whatever handle it is given so the reservation engine can call it inside a
// transaction.
func (r *CatalogRepo) FindByNameFold(db *gorm.DB, name string) (*models.Product, error) {
	var p models.Product
	if err := db.Where("LOWER(name) = LOWER(?)", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// LockAndFetch reads a product row under an exclusive lock held until the
// enclosing transaction commits or rolls back.
func (r *CatalogRepo) LockAndFetch(tx *gorm.DB, id uint) (*models.Product, error) {
	q := tx
	// sqlite (tests) is single-writer and has no SELECT ... FOR UPDATE
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p models.Product
	if err := q.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepo) Save(db *gorm.DB, p *models.Product) error {
	return db.Save(p).Error
}

func (r *CatalogRepo) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepo) List(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// ListAll returns the whole catalog newest-first; the handler caches this
// snapshot for unfiltered listings.
func (r *CatalogRepo) ListAll(ctx context.Context) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CatalogRepo) Create(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *CatalogRepo) Update(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Save(p).Error
}

func (r *CatalogRepo) Delete(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
