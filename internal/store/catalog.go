package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"storefront/internal/models"
)

// productColumns selects products together with the review aggregate.
// A product with zero approved reviews reports average_rating 0, not
// NULL.
const productColumns = `
	p.*,
	COALESCE(r.avg_rating, 0) AS average_rating,
	COALESCE(r.total_reviews, 0) AS total_reviews`

const productReviewJoin = `
	LEFT JOIN (
		SELECT product_id,
		       AVG(rating)::float8 AS avg_rating,
		       COUNT(*)::int AS total_reviews
		FROM reviews
		WHERE status = 'Approved'
		GROUP BY product_id
	) r ON r.product_id = p.id`

// ProductFilter narrows the public product listing
type ProductFilter struct {
	CategorySlug string
	BrandSlug    string
	Search       string
	MinPrice     int64
	MaxPrice     int64
	Page         int
	Limit        int
}

// ListProducts returns active products with active brands, filtered and
// paginated, plus the total row count for the filter.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int, error) {
	conds := []string{
		"p.is_active = TRUE",
		"(p.brand_id IS NULL OR b.is_active = TRUE)",
	}
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CategorySlug != "" {
		conds = append(conds, "c.slug = "+arg(f.CategorySlug))
	}
	if f.BrandSlug != "" {
		conds = append(conds, "b.slug = "+arg(f.BrandSlug))
	}
	if f.MinPrice > 0 {
		conds = append(conds, "p.price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "p.price <= "+arg(f.MaxPrice))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", p, p))
	}

	from := `
		FROM products p
		LEFT JOIN brands b ON b.id = p.brand_id
		LEFT JOIN categories c ON c.id = p.category_id` + productReviewJoin + `
		WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*)"+from, args...); err != nil {
		return nil, 0, err
	}

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	query := "SELECT" + productColumns + from +
		" ORDER BY p.created_at DESC LIMIT " + arg(f.Limit) + " OFFSET " + arg((f.Page-1)*f.Limit)

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetProductBySlug retrieves one active product by slug
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	query := "SELECT" + productColumns + `
		FROM products p` + productReviewJoin + `
		WHERE p.slug = $1 AND p.is_active = TRUE`

	var product models.Product
	err := s.db.GetContext(ctx, &product, query, slug)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductByID retrieves a product by ID regardless of active flag
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := "SELECT" + productColumns + `
		FROM products p` + productReviewJoin + `
		WHERE p.id = $1`

	var product models.Product
	err := s.db.GetContext(ctx, &product, query, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SKUExists reports whether any product carries the SKU
func (s *Store) SKUExists(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1)", sku)
	return exists, err
}

// CreateProduct creates a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (sku, name, slug, description, price, quantity, is_active, brand_id, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, p, query,
		p.SKU, p.Name, p.Slug, p.Description, p.Price, p.Quantity, p.IsActive,
		p.BrandID, p.CategoryID, p.ImageURL)
}

// UpdateProduct updates a product's mutable fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, slug = $2, description = $3, price = $4, quantity = $5,
		    is_active = $6, brand_id = $7, category_id = $8, image_url = $9,
		    updated_at = NOW()
		WHERE id = $10`,
		p.Name, p.Slug, p.Description, p.Price, p.Quantity,
		p.IsActive, p.BrandID, p.CategoryID, p.ImageURL, p.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, p.ID)
	}
	return nil
}

// DeactivateProduct soft-deletes a product; historical orders keep
// referencing it.
func (s *Store) DeactivateProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	return nil
}

// ListBrands retrieves brands, optionally only active ones
func (s *Store) ListBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error) {
	query := "SELECT * FROM brands"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	var brands []models.Brand
	err := s.db.SelectContext(ctx, &brands, query+" ORDER BY name")
	return brands, err
}

// CreateBrand creates a new brand
func (s *Store) CreateBrand(ctx context.Context, b *models.Brand) error {
	query := `
		INSERT INTO brands (name, slug, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, b, query, b.Name, b.Slug, b.Description, b.IsActive)
}

// UpdateBrand updates a brand
func (s *Store) UpdateBrand(ctx context.Context, b *models.Brand) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE brands SET name = $1, slug = $2, description = $3, is_active = $4 WHERE id = $5`,
		b.Name, b.Slug, b.Description, b.IsActive, b.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: brand %d", ErrNotFound, b.ID)
	}
	return nil
}

// DeactivateBrand soft-deletes a brand
func (s *Store) DeactivateBrand(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE brands SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: brand %d", ErrNotFound, id)
	}
	return nil
}

// ListCategories retrieves categories, optionally only active ones
func (s *Store) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	query := "SELECT * FROM categories"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	var categories []models.Category
	err := s.db.SelectContext(ctx, &categories, query+" ORDER BY name")
	return categories, err
}

// CreateCategory creates a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, slug, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, c, query, c.Name, c.Slug, c.Description, c.IsActive)
}

// UpdateCategory updates a category
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $1, slug = $2, description = $3, is_active = $4 WHERE id = $5`,
		c.Name, c.Slug, c.Description, c.IsActive, c.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: category %d", ErrNotFound, c.ID)
	}
	return nil
}

// DeactivateCategory soft-deletes a category
func (s *Store) DeactivateCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET is_active = FALSE WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: category %d", ErrNotFound, id)
	}
	return nil
}

// CreateReview stores a review awaiting approval
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
		INSERT INTO reviews (product_id, user_id, rating, title, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, r, query,
		r.ProductID, r.UserID, r.Rating, r.Title, r.Comment, r.Status)
}

// ListReviewsByProduct retrieves approved reviews for a product
func (s *Store) ListReviewsByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 AND status = $2 ORDER BY created_at DESC",
		productID, models.ReviewStatusApproved)
	return reviews, err
}

// ListReviews retrieves all reviews regardless of status
func (s *Store) ListReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.SelectContext(ctx, &reviews, "SELECT * FROM reviews ORDER BY created_at DESC")
	return reviews, err
}

// UpdateReviewStatus approves or rejects a review
func (s *Store) UpdateReviewStatus(ctx context.Context, reviewID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE reviews SET status = $1 WHERE id = $2", status, reviewID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: review %d", ErrNotFound, reviewID)
	}
	return nil
}

// ToggleWishlist flips the liked flag for (user, product), inserting
// the row on first like.
func (s *Store) ToggleWishlist(ctx context.Context, userID, productID int64, liked bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wishlist_items (user_id, product_id, is_liked)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET is_liked = EXCLUDED.is_liked`,
		userID, productID, liked)
	return err
}

// ListWishlist retrieves a user's liked items
func (s *Store) ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM wishlist_items WHERE user_id = $1 AND is_liked = TRUE ORDER BY created_at DESC",
		userID)
	return items, err
}
