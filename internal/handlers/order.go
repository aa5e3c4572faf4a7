package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/AndreyProgger/Test-task2/internal/logging"
	"github.com/AndreyProgger/Test-task2/internal/models"
	"github.com/AndreyProgger/Test-task2/internal/repo"
	"github.com/AndreyProgger/Test-task2/internal/service/order"
	"github.com/AndreyProgger/Test-task2/internal/transport"
)

type OrderHandler struct {
	Svc *order.Service
}

// ListOrders returns every order of the calling user, newest first.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	userID, err := CallerID(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, transport.NewOrderListResponse(orders))
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	userID, err := CallerID(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if len(req.Products) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "products are required")
	}

	cart := make([]order.CartLine, 0, len(req.Products))
	for _, p := range req.Products {
		cart = append(cart, order.CartLine{ProductName: p.ProductName, Quantity: p.Quantity})
	}

	created, err := h.Svc.PlaceOrder(ctx, userID, cart)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrValidation):
			l.Warn("create_order_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrInsufficientStock):
			l.Warn("create_order_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "not enough stock for product " + stockProductName(err),
			})
		case errors.Is(err, order.ErrEmptyOrder):
			l.Warn("create_order_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "none of the requested products are available",
			})
		default:
			l.Error("create_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("create_order_success", "order_id", created.ID)
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(created))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ord, err := h.fetchOwned(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(ord))
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	ord, err := h.fetchOwned(c)
	if err != nil {
		return err
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	updated, err := h.Svc.UpdateStatus(c.Request().Context(), ord.ID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNoChange):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "this status is already set"})
		case errors.Is(err, order.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(updated))
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ord, err := h.fetchOwned(c)
	if err != nil {
		return err
	}

	if err := h.Svc.CancelOrder(c.Request().Context(), ord.ID); err != nil {
		switch {
		case errors.Is(err, order.ErrIrreversible):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": "order cannot be deleted because it has already been shipped",
			})
		case errors.Is(err, order.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// AdminListOrders returns all orders, optionally filtered by status and the
// exact (case-insensitive) owner username.
func (h *OrderHandler) AdminListOrders(c echo.Context) error {
	f := repo.OrderFilter{
		Status:   c.QueryParam("status"),
		Username: c.QueryParam("user"),
	}

	orders, err := h.Svc.ListAll(c.Request().Context(), f)
	if err != nil {
		if errors.Is(err, order.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, transport.NewOrderListResponse(orders))
}

// fetchOwned loads the order and enforces that the caller owns it or is an
// admin. Ownership is checked before any mutation is attempted.
func (h *OrderHandler) fetchOwned(c echo.Context) (*models.Order, error) {
	userID, err := CallerID(c)
	if err != nil {
		return nil, err
	}

	id, convErr := strconv.Atoi(c.Param("id"))
	if convErr != nil || id <= 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ord, err := h.Svc.Get(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if ord.UserID != userID && !IsAdmin(c) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	}
	return ord, nil
}

// stockProductName recovers the product name appended to an
// ErrInsufficientStock wrap.
func stockProductName(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
