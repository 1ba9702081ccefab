package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Skotchmaster/robotech_store/internal/catalog"
	"github.com/Skotchmaster/robotech_store/internal/models"
)

// FlexInt accepts a JSON number or a string holding an integer.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an integer: %s", b)
	}
	*f = FlexInt(n)
	return nil
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type Product struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      string  `json:"image_url"`
	IsFeatured    bool    `json:"is_featured"`
}

func NewProduct(p models.Product) Product {
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		Category:      p.Category,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		IsFeatured:    p.IsFeatured,
	}
}

func NewProducts(ps []models.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = NewProduct(p)
	}
	return out
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

type ProductsResponse struct {
	Success    bool        `json:"success"`
	Products   []Product   `json:"products"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func NewProductsPage(p catalog.Page) ProductsResponse {
	return ProductsResponse{
		Success:  true,
		Products: NewProducts(p.Items),
		Pagination: &Pagination{
			Total: p.Total,
			Page:  p.Page,
			Limit: p.Limit,
			Pages: p.TotalPages,
		},
	}
}

type ByIDsRequest struct {
	IDs []FlexInt `json:"ids"`
}

func (r ByIDsRequest) Ints() []int {
	out := make([]int, len(r.IDs))
	for i, id := range r.IDs {
		out[i] = int(id)
	}
	return out
}

type CartLine struct {
	ProductID   int     `json:"product_id"`
	Quantity    int     `json:"quantity"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
}

type CartResponse struct {
	Success bool       `json:"success"`
	Cart    []CartLine `json:"cart"`
}

func NewCart(lines []models.CartLine) CartResponse {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = CartLine{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			Name:        l.Name,
			Price:       l.Price.InexactFloat64(),
			ImageURL:    l.ImageURL,
			Description: l.Description,
			Category:    l.Category,
		}
	}
	return CartResponse{Success: true, Cart: out}
}

type CartUpdateRequest struct {
	UserID    string   `json:"user_id"`
	ProductID FlexInt  `json:"product_id"`
	Quantity  *FlexInt `json:"quantity"`
	Phone     string   `json:"phone"`
}

// NewCartUpdateRequest presets quantity to def so an absent field keeps it. An explicit
// null clears the pointer and is rejected by Qty.
func NewCartUpdateRequest(def int) CartUpdateRequest {
	q := FlexInt(def)
	return CartUpdateRequest{Quantity: &q}
}

var ErrNullQuantity = errors.New("quantity must not be null")

func (r CartUpdateRequest) Qty() (int, error) {
	if r.Quantity == nil {
		return 0, ErrNullQuantity
	}
	return int(*r.Quantity), nil
}

type CartAddResponse struct {
	Success  bool `json:"success"`
	Quantity int  `json:"quantity"`
}

type CartRemoveRequest struct {
	UserID    string  `json:"user_id"`
	ProductID FlexInt `json:"product_id"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type CartClearResponse struct {
	Success bool  `json:"success"`
	Removed int64 `json:"removed"`
}

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type SendOTPResponse struct {
	Success bool   `json:"success"`
	OTP     string `json:"otp"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type User struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    User   `json:"user"`
}

type UserStatusResponse struct {
	Success  bool `json:"success"`
	LoggedIn bool `json:"logged_in"`
}

type BillingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Address   string `json:"address"`
}

type CreateOrderRequest struct {
	UserID        string      `json:"user_id"`
	BillingInfo   BillingInfo `json:"billing_info"`
	PaymentMethod string      `json:"payment_method"`
}

type CreateOrderResponse struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message"`
	OrderID         uint    `json:"order_id"`
	UserOrderNumber int     `json:"user_order_number"`
	TotalAmount     float64 `json:"total_amount"`
}

type OrderLine struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID              uint        `json:"id"`
	UserOrderNumber int         `json:"user_order_number"`
	TotalAmount     float64     `json:"total_amount"`
	Status          string      `json:"status"`
	PaymentMethod   string      `json:"payment_method"`
	ShippingAddress string      `json:"shipping_address"`
	BillingName     string      `json:"billing_name"`
	BillingEmail    string      `json:"billing_email"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           string      `json:"items"`
	Lines           []OrderLine `json:"line_items"`
}

// NewOrder renders items as "<name> (x<qty>), ..." in item order.
func NewOrder(o models.Order) Order {
	out := Order{
		ID:              o.ID,
		UserOrderNumber: o.UserOrderNumber,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		BillingName:     o.BillingName,
		BillingEmail:    o.BillingEmail,
		CreatedAt:       o.CreatedAt,
		Lines:           make([]OrderLine, 0, len(o.Items)),
	}
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		name := fmt.Sprintf("product %d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		parts = append(parts, fmt.Sprintf("%s (x%d)", name, it.Quantity))
		out.Lines = append(out.Lines, OrderLine{
			ProductID: it.ProductID,
			Name:      name,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
		})
	}
	out.Items = strings.Join(parts, ", ")
	return out
}

type OrdersResponse struct {
	Success bool    `json:"success"`
	Orders  []Order `json:"orders"`
}

func NewOrders(orders []models.Order) OrdersResponse {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = NewOrder(o)
	}
	return OrdersResponse{Success: true, Orders: out}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}
