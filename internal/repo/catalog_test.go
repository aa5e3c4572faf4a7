package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/db"
	"github.com/AndreyProgger/Test-task2/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestFindByNameFold(t *testing.T) {
	gdb := newTestDB(t)
	r := &CatalogRepo{DB: gdb}

	require.NoError(t, gdb.Create(&models.Product{
		Name: "Gaming Chair", Price: 199.99, Stock: 3, Category: models.CategoryHome,
	}).Error)

	for _, name := range []string{"Gaming Chair", "gaming chair", "GAMING CHAIR"} {
		p, err := r.FindByNameFold(gdb, name)
		require.NoError(t, err)
		require.Equal(t, "Gaming Chair", p.Name)
	}

	_, err := r.FindByNameFold(gdb, "Standing Desk")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLockAndFetch(t *testing.T) {
	gdb := newTestDB(t)
	r := &CatalogRepo{DB: gdb}

	p := &models.Product{Name: "Phone", Price: 100, Stock: 5, Category: models.CategoryElectronics}
	require.NoError(t, gdb.Create(p).Error)

	err := gdb.Transaction(func(tx *gorm.DB) error {
		got, err := r.LockAndFetch(tx, p.ID)
		require.NoError(t, err)
		require.Equal(t, uint(5), got.Stock)
		return nil
	})
	require.NoError(t, err)
}

func TestCatalogList(t *testing.T) {
	gdb := newTestDB(t)
	r := &CatalogRepo{DB: gdb}
	ctx := context.Background()

	seed := []models.Product{
		{Name: "Phone", Price: 500, Stock: 10, Category: models.CategoryElectronics},
		{Name: "Laptop", Price: 1500, Stock: 4, Category: models.CategoryElectronics},
		{Name: "Novel", Price: 15, Stock: 30, Category: models.CategoryBooks},
	}
	for i := range seed {
		require.NoError(t, gdb.Create(&seed[i]).Error)
	}

	total, items, err := r.List(ctx, ProductFilter{}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, items, 3)

	min := 100.0
	total, items, err = r.List(ctx, ProductFilter{MinPrice: &min}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, items, 2)

	max := 1000.0
	total, items, err = r.List(ctx, ProductFilter{MinPrice: &min, MaxPrice: &max}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Phone", items[0].Name)

	total, items, err = r.List(ctx, ProductFilter{Category: "Books"}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Novel", items[0].Name)

	total, items, err = r.List(ctx, ProductFilter{}, 0, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, items, 2)
}

func TestCatalogDelete(t *testing.T) {
	gdb := newTestDB(t)
	r := &CatalogRepo{DB: gdb}
	ctx := context.Background()

	p := &models.Product{Name: "Phone", Price: 100, Stock: 5, Category: models.CategoryElectronics}
	require.NoError(t, gdb.Create(p).Error)

	require.NoError(t, r.Delete(ctx, p.ID))
	require.ErrorIs(t, r.Delete(ctx, p.ID), gorm.ErrRecordNotFound)
}
