package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/AndreyProgger/Test-task2/internal/cache"
	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/mykafka"
	"github.com/AndreyProgger/Test-task2/internal/repo"
	"github.com/AndreyProgger/Test-task2/internal/transport"
)

type ProductHandler struct {
	Catalog  *repo.CatalogRepo
	Cache    *cache.Cache
	Producer *mykafka.Producer
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()

	f := repo.ProductFilter{Category: c.QueryParam("category")}
	if v := c.QueryParam("min_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid min_price")
		}
		f.MinPrice = &p
	}
	if v := c.QueryParam("max_price"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid max_price")
		}
		f.MaxPrice = &p
	}

	limit := parseIntDefault(c.QueryParam("limit"), 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := parseIntDefault(c.QueryParam("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	// The unfiltered listing is served from the cached catalog snapshot;
	// filtered queries always go to the database.
	if f.MinPrice == nil && f.MaxPrice == nil && f.Category == "" {
		products, ok := h.cachedList(ctx)
		if !ok {
			var err error
			products, err = h.Catalog.ListAll(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			if h.Cache != nil {
				_ = h.Cache.SetProductList(ctx, products)
			}
		}
		return c.JSON(http.StatusOK, listPage(products, offset, limit))
	}

	total, items, err := h.Catalog.List(ctx, f, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"count": total, "results": items})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorResponse(c, http.StatusBadRequest, "invalid id")
	}

	product, err := h.Catalog.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == nil || *req.Name == "" {
		return errorResponse(c, http.StatusBadRequest, "name is required")
	}
	if req.Price == nil || *req.Price <= 0 {
		return errorResponse(c, http.StatusBadRequest, "price must be positive")
	}
	if req.Category == nil || !models.ValidCategory(*req.Category) {
		return errorResponse(c, http.StatusBadRequest, "unknown category")
	}

	prod := models.Product{
		Name:     *req.Name,
		Price:    *req.Price,
		Category: *req.Category,
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}

	if err := h.Catalog.Create(c.Request().Context(), &prod); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.invalidateList(c)
	h.publish(c, map[string]any{
		"type":      mykafka.EventProductCreated,
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorResponse(c, http.StatusBadRequest, "invalid id")
	}

	var req transport.ProductRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	ctx := c.Request().Context()
	prod, err := h.Catalog.Get(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return errorResponse(c, http.StatusBadRequest, "price must be positive")
		}
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return errorResponse(c, http.StatusBadRequest, "unknown category")
		}
		prod.Category = *req.Category
	}

	if err := h.Catalog.Update(ctx, prod); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.invalidateList(c)
	h.publish(c, map[string]any{
		"type":      mykafka.EventProductUpdated,
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return errorResponse(c, http.StatusBadRequest, "invalid id")
	}

	if err := h.Catalog.Delete(c.Request().Context(), uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.invalidateList(c)
	h.publish(c, map[string]any{
		"type":      mykafka.EventProductDeleted,
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) cachedList(ctx context.Context) ([]models.Product, bool) {
	if h.Cache == nil {
		return nil, false
	}
	return h.Cache.GetProductList(ctx)
}

func (h *ProductHandler) invalidateList(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.InvalidateProductList(c.Request().Context()); err != nil {
		c.Logger().Errorf("cache invalidation error: %v", err)
	}
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func listPage(products []models.Product, offset, limit int) echo.Map {
	total := len(products)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return echo.Map{"count": total, "results": products[offset:end]}
}
