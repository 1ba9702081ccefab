package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"

	PaymentCOD = "cod"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:64"          json:"user_id"`
	Phone     string    `gorm:"uniqueIndex;size:32;not null" json:"phone"`
	Email     string    `gorm:"size:255"                    json:"email,omitempty"`
	Name      string    `gorm:"size:255"                    json:"name,omitempty"`
	Address   string    `gorm:"type:text"                   json:"address,omitempty"`
	LoggedIn  bool      `gorm:"not null;default:false"      json:"logged_in"`
	OrderSeq  int       `gorm:"not null;default:0"          json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime"              json:"created_at"`
}

type Product struct {
	ID            int             `gorm:"primaryKey"                              json:"id"`
	Name          string          `gorm:"size:255;not null"                       json:"name"`
	Description   string          `gorm:"type:text"                               json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null;check:price >= 0" json:"price"`
	Category      string          `gorm:"size:100;not null;index"                 json:"category"`
	StockQuantity int             `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	ImageURL      string          `gorm:"size:500"                                json:"image_url"`
	IsFeatured    bool            `gorm:"not null;default:false"                  json:"is_featured"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"                          json:"created_at"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey"                       json:"id"`
	UserID          string          `gorm:"size:64;not null;index"           json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:RESTRICT"     json:"-"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"      json:"total_amount"`
	Status          string          `gorm:"size:20;not null;default:pending" json:"status"`
	PaymentMethod   string          `gorm:"size:50;not null"                 json:"payment_method"`
	ShippingAddress string          `gorm:"type:text"                        json:"shipping_address"`
	BillingName     string          `gorm:"size:255"                         json:"billing_name"`
	BillingEmail    string          `gorm:"size:255"                         json:"billing_email"`
	BillingPhone    string          `gorm:"size:32"                          json:"billing_phone"`
	BillingCity     string          `gorm:"size:100"                         json:"billing_city"`
	BillingZip      string          `gorm:"size:20"                          json:"billing_zip"`
	UserOrderNumber int             `gorm:"not null"                         json:"user_order_number"`
	CreatedAt       time.Time       `gorm:"autoCreateTime;index"             json:"created_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"               json:"items,omitempty"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                     json:"id"`
	OrderID   uint            `gorm:"not null;index"                 json:"order_id"`
	Order     *Order          `gorm:"constraint:OnDelete:CASCADE"    json:"-"`
	ProductID int             `gorm:"not null;index"                 json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT"   json:"-"`
	Quantity  int             `gorm:"not null;check:quantity > 0"    json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"    json:"price"`
	CreatedAt time.Time       `gorm:"autoCreateTime"                 json:"created_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                   json:"id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE"                  json:"-"`
	ProductID int       `gorm:"not null;uniqueIndex:idx_cart_user_product"   json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE"                  json:"-"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                  json:"quantity"`
	AddedAt   time.Time `gorm:"autoCreateTime"                               json:"added_at"`
}

func (CartItem) TableName() string { return "cart" }

// Tables in creation order; dropping runs in reverse.
func Tables() []any {
	return []any{&User{}, &Product{}, &Order{}, &OrderItem{}, &CartItem{}}
}

// CartLine is a cart row joined with the product it points at.
type CartLine struct {
	ProductID   int             `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}
