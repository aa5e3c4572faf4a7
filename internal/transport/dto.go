package transport

import (
	"time"

	"github.com/AndreyProgger/Test-task2/internal/models"
)

type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Patronymic      string `json:"patronymic"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateOrderItem struct {
	ProductName string `json:"product_name"`
	Quantity    uint   `json:"quantity"`
}

type CreateOrderRequest struct {
	Products []CreateOrderItem `json:"products"`
}

type UpdateOrderRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ProductName string  `json:"product_name"`
	Quantity    uint    `json:"quantity"`
	Price       float64 `json:"price"`
}

type OrderResponse struct {
	ID         uint                `json:"id"`
	UserID     uint                `json:"user_id"`
	Status     string              `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
	TotalPrice float64             `json:"total_price"`
	Items      []OrderItemResponse `json:"items"`
}

func NewOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		Items:     make([]OrderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductName: name,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
		resp.TotalPrice += item.Price
	}
	return resp
}

func NewOrderListResponse(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}

type ProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *uint    `json:"stock"`
	Category    *string  `json:"category"`
}
