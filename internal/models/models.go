package models

import (
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

var orderStatuses = map[string]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

func ValidStatus(s string) bool {
	return orderStatuses[s]
}

const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
	CategoryHome        = "home"
	CategorySport       = "sport"
)

var productCategories = map[string]bool{
	CategoryElectronics: true,
	CategoryClothing:    true,
	CategoryBooks:       true,
	CategoryHome:        true,
	CategorySport:       true,
}

func ValidCategory(c string) bool {
	return productCategories[c]
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	Username     string `gorm:"not null"                 json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Patronymic   string `json:"patronymic,omitempty"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null;index"           json:"name"`
	Description string    `json:"description"`
	Price       float64   `gorm:"not null;check:price > 0" json:"price"`
	Stock       uint      `gorm:"not null;default:0"       json:"stock"`
	Category    string    `gorm:"not null"                 json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

type Order struct {
	ID        uint        `gorm:"primaryKey"               json:"id"`
	UserID    uint        `gorm:"index;not null"           json:"user_id"`
	Status    string      `gorm:"not null;default:pending" json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
}

// OrderItem.Price is the line total captured at order time (unit price *
// quantity), so later catalog price changes never alter historical orders.
type OrderItem struct {
	ID        uint     `gorm:"primaryKey"                             json:"id"`
	OrderID   uint     `gorm:"uniqueIndex:idx_order_product;not null" json:"order_id"`
	ProductID uint     `gorm:"uniqueIndex:idx_order_product;not null" json:"product_id"`
	Quantity  uint     `gorm:"default:1;check:quantity > 0"           json:"quantity"`
	Price     float64  `gorm:"not null"                               json:"price"`
	Product   *Product `gorm:"foreignKey:ProductID"                   json:"-"`
}
