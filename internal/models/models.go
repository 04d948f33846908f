package models

import "time"

// User roles
const (
	RoleAdmin    = "ROLE ADMIN"
	RoleMember   = "ROLE MEMBER"
	RoleMerchant = "ROLE MERCHANT"
)

// Email providers
const (
	ProviderEmail    = "Email"
	ProviderGoogle   = "Google"
	ProviderFacebook = "Facebook"
)

// User represents a registered account
type User struct {
	ID           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Provider     string    `db:"provider" json:"provider"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a catalog item. Price is in cents.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	SKU           string    `db:"sku" json:"sku"`
	Name          string    `db:"name" json:"name"`
	Slug          string    `db:"slug" json:"slug"`
	Description   string    `db:"description" json:"description"`
	Price         int64     `db:"price" json:"price"`
	Quantity      int       `db:"quantity" json:"quantity"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	BrandID       *int64    `db:"brand_id" json:"brand_id,omitempty"`
	CategoryID    *int64    `db:"category_id" json:"category_id,omitempty"`
	ImageURL      string    `db:"image_url" json:"imageUrl,omitempty"`
	AverageRating float64   `db:"average_rating" json:"averageRating"`
	TotalReviews  int       `db:"total_reviews" json:"totalReviews"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Brand is a reference entity for products
type Brand struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Category is a reference entity for products
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Review statuses
const (
	ReviewStatusWaiting  = "Waiting Approval"
	ReviewStatusApproved = "Approved"
	ReviewStatusRejected = "Rejected"
)

// Review is a user's rating of a product. Only approved reviews
// count toward a product's average rating.
type Review struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Rating    int       `db:"rating" json:"rating"`
	Title     string    `db:"title" json:"title"`
	Comment   string    `db:"comment" json:"comment"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// WishlistItem marks a product a user has liked
type WishlistItem struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	IsLiked   bool      `db:"is_liked" json:"isLiked"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Cart is the per-user mutable collection of line items
type Cart struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is a line item: product, quantity, and the unit price
// captured when the line was added. A product appears at most once per
// cart; repeated adds accumulate quantity.
type CartItem struct {
	ID        int64 `db:"id" json:"id"`
	CartID    int64 `db:"cart_id" json:"cart_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
}

// Order statuses. Orders move forward through the chain; Cancelled is
// reachable from any state except Delivered.
const (
	OrderStatusNotProcessed = "Not processed"
	OrderStatusProcessing   = "Processing"
	OrderStatusShipped      = "Shipped"
	OrderStatusDelivered    = "Delivered"
	OrderStatusCancelled    = "Cancelled"
)

// Recognized payment methods
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodCard   = "card"
	PaymentMethodPaypal = "paypal"
)

// Order is an immutable snapshot of a cart at checkout time. Total is
// fixed at creation and never recomputed from live prices.
type Order struct {
	ID            int64     `db:"id" json:"id"`
	OrderNumber   string    `db:"order_number" json:"order_number"`
	UserID        int64     `db:"user_id" json:"user_id"`
	Total         int64     `db:"total" json:"total"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line captured into an order at checkout
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
}

// ValidPaymentMethod reports whether m is in the recognized set.
func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodPaypal:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to
// another: one step forward along the chain, or to Cancelled from any
// non-terminal state.
func CanTransition(from, to string) bool {
	if to == OrderStatusCancelled {
		return from != OrderStatusDelivered && from != OrderStatusCancelled
	}
	switch from {
	case OrderStatusNotProcessed:
		return to == OrderStatusProcessing
	case OrderStatusProcessing:
		return to == OrderStatusShipped
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	}
	return false
}
