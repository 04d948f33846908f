package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogStore is the subset of the store the catalog service needs
type CatalogStore interface {
	ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, int, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	SKUExists(ctx context.Context, sku string) (bool, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeactivateProduct(ctx context.Context, id int64) error

	ListBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error)
	CreateBrand(ctx context.Context, b *models.Brand) error
	UpdateBrand(ctx context.Context, b *models.Brand) error
	DeactivateBrand(ctx context.Context, id int64) error

	ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeactivateCategory(ctx context.Context, id int64) error

	CreateReview(ctx context.Context, r *models.Review) error
	ListReviewsByProduct(ctx context.Context, productID int64) ([]models.Review, error)
	ListReviews(ctx context.Context) ([]models.Review, error)
	UpdateReviewStatus(ctx context.Context, reviewID int64, status string) error

	ToggleWishlist(ctx context.Context, userID, productID int64, liked bool) error
	ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error)
}

// CatalogCache is the read cache in front of product lookups
type CatalogCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CatalogService handles products, brands, categories, reviews and
// wishlists. Catalog entities are read-mostly; product reads go through
// Redis with singleflight guarding against stampedes.
type CatalogService struct {
	store  CatalogStore
	cache  CatalogCache
	sfg    singleflight.Group
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store CatalogStore, cache CatalogCache) *CatalogService {
	return &CatalogService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// ProductListing is a page of products plus pagination data
type ProductListing struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ListProducts returns the public listing for the filter, served from
// cache when possible. The cache key encodes the whole filter, so
// catalog writes invalidate listings by pattern.
func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) (*ProductListing, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 10
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	key := fmt.Sprintf("products:list:%s:%s:%s:%d:%d:%d:%d",
		f.CategorySlug, f.BrandSlug, f.Search, f.MinPrice, f.MaxPrice, f.Page, f.Limit)
	if s.cache != nil {
		var cached ProductListing
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return &cached, nil
		} else if !errors.Is(err, redisclient.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(err))
		}
		util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()
	}

	products, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	listing := &ProductListing{Products: products, Total: total, Page: f.Page, Limit: f.Limit}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, listing); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
	}
	return listing, nil
}

// GetProductBySlug fetches one active product, served from cache when
// possible.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProductBySlug")
	defer span.End()

	if s.cache == nil {
		p, err := s.store.GetProductBySlug(ctx, slug)
		return p, mapStoreErr(err)
	}

	key := "product:slug:" + slug
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		var cached models.Product
		cacheErr := s.cache.GetJSON(ctx, key, &cached)
		if cacheErr == nil {
			util.CatalogCacheHitsTotal.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		if !errors.Is(cacheErr, redisclient.ErrCacheMiss) {
			s.logger.Warn("Catalog cache read failed", zap.Error(cacheErr))
		}
		util.CatalogCacheHitsTotal.WithLabelValues("miss").Inc()

		p, err := s.store.GetProductBySlug(ctx, slug)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		if err := s.cache.SetJSON(ctx, key, p); err != nil {
			s.logger.Warn("Catalog cache write failed", zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Product), nil
}

// GetProductByID fetches a product regardless of active state. Used
// where inactive products must stay resolvable, like old cart lines.
func (s *CatalogService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProductByID(ctx, id)
	return p, mapStoreErr(err)
}

// ProductInput is the admin payload to create or update a product
type ProductInput struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	IsActive    *bool  `json:"isActive"`
	BrandID     *int64 `json:"brand_id"`
	CategoryID  *int64 `json:"category_id"`
	ImageURL    string `json:"imageUrl"`
}

// CreateProduct creates a catalog item; the slug is derived from the
// name and the SKU must be unique.
func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if strings.TrimSpace(in.SKU) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: sku and name are required", ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	exists, err := s.store.SKUExists(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: sku already in use", ErrValidation)
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &models.Product{
		SKU:         in.SKU,
		Name:        in.Name,
		Slug:        util.Slugify(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		IsActive:    active,
		BrandID:     in.BrandID,
		CategoryID:  in.CategoryID,
		ImageURL:    in.ImageURL,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateProduct(ctx, p.Slug)
	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

// UpdateProduct updates a product's mutable fields; the slug follows a
// renamed product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	oldSlug := p.Slug

	if in.Name != "" {
		p.Name = in.Name
		p.Slug = util.Slugify(in.Name)
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.Quantity >= 0 {
		p.Quantity = in.Quantity
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.BrandID != nil {
		p.BrandID = in.BrandID
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, mapStoreErr(err)
	}

	s.invalidateProduct(ctx, oldSlug, p.Slug)
	return p, nil
}

// DeleteProduct soft-deletes: inactive products vanish from public
// listings but historical orders keep referencing them.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	p, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := s.store.DeactivateProduct(ctx, id); err != nil {
		return mapStoreErr(err)
	}

	s.invalidateProduct(ctx, p.Slug)
	s.logger.Info("Product deactivated", zap.Int64("product_id", id))
	return nil
}

func (s *CatalogService) invalidateProduct(ctx context.Context, slugs ...string) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		keys = append(keys, "product:slug:"+slug)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
	}
	if err := s.cache.DeleteByPattern(ctx, "products:list:*"); err != nil {
		s.logger.Warn("Catalog listing cache invalidation failed", zap.Error(err))
	}
}

// ListBrands lists brands; non-elevated callers only see active ones
func (s *CatalogService) ListBrands(ctx context.Context, activeOnly bool) ([]models.Brand, error) {
	return s.store.ListBrands(ctx, activeOnly)
}

// BrandInput is the admin payload for brand create/update
type BrandInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// CreateBrand creates a brand
func (s *CatalogService) CreateBrand(ctx context.Context, in *BrandInput) (*models.Brand, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	b := &models.Brand{
		Name:        in.Name,
		Slug:        util.Slugify(in.Name),
		Description: in.Description,
		IsActive:    active,
	}
	if err := s.store.CreateBrand(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	return b, nil
}

// UpdateBrand updates a brand
func (s *CatalogService) UpdateBrand(ctx context.Context, id int64, in *BrandInput) (*models.Brand, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	b := &models.Brand{
		ID:          id,
		Name:        in.Name,
		Slug:        util.Slugify(in.Name),
		Description: in.Description,
		IsActive:    active,
	}
	if err := s.store.UpdateBrand(ctx, b); err != nil {
		return nil, mapStoreErr(err)
	}
	s.invalidateListings(ctx)
	return b, nil
}

// DeleteBrand soft-deletes a brand; its products drop out of public
// listings until reassigned.
func (s *CatalogService) DeleteBrand(ctx context.Context, id int64) error {
	if err := s.store.DeactivateBrand(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.invalidateListings(ctx)
	return nil
}

// ListCategories lists categories
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

// CategoryInput is the admin payload for category create/update
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// CreateCategory creates a category
func (s *CatalogService) CreateCategory(ctx context.Context, in *CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	c := &models.Category{
		Name:        in.Name,
		Slug:        util.Slugify(in.Name),
		Description: in.Description,
		IsActive:    active,
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

// UpdateCategory updates a category
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in *CategoryInput) (*models.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	c := &models.Category{
		ID:          id,
		Name:        in.Name,
		Slug:        util.Slugify(in.Name),
		Description: in.Description,
		IsActive:    active,
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, mapStoreErr(err)
	}
	s.invalidateListings(ctx)
	return c, nil
}

// DeleteCategory soft-deletes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeactivateCategory(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	s.invalidateListings(ctx)
	return nil
}

func (s *CatalogService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "products:list:*"); err != nil {
		s.logger.Warn("Catalog listing cache invalidation failed", zap.Error(err))
	}
}

// ReviewInput is a member's review payload
type ReviewInput struct {
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

// AddReview stores a review in Waiting Approval; it does not affect the
// product's average rating until approved.
func (s *CatalogService) AddReview(ctx context.Context, userID int64, in *ReviewInput) (*models.Review, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.AddReview")
	defer span.End()

	if in.ProductID <= 0 {
		return nil, fmt.Errorf("%w: malformed product reference", ErrValidation)
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	if _, err := s.store.GetProductByID(ctx, in.ProductID); err != nil {
		return nil, mapStoreErr(err)
	}

	r := &models.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     in.Title,
		Comment:   in.Comment,
		Status:    models.ReviewStatusWaiting,
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return r, nil
}

// ListProductReviews lists a product's approved reviews
func (s *CatalogService) ListProductReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.store.ListReviewsByProduct(ctx, productID)
}

// ListAllReviews lists every review for moderation
func (s *CatalogService) ListAllReviews(ctx context.Context) ([]models.Review, error) {
	return s.store.ListReviews(ctx)
}

// SetReviewStatus approves or rejects a review. Approval changes the
// product's computed average rating, so cached product entries are
// dropped.
func (s *CatalogService) SetReviewStatus(ctx context.Context, reviewID int64, status string) error {
	if status != models.ReviewStatusApproved && status != models.ReviewStatusRejected {
		return fmt.Errorf("%w: unknown review status %q", ErrValidation, status)
	}
	if err := s.store.UpdateReviewStatus(ctx, reviewID, status); err != nil {
		return mapStoreErr(err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "product:slug:*"); err != nil {
			s.logger.Warn("Catalog cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// ToggleWishlist flips whether the user has liked the product
func (s *CatalogService) ToggleWishlist(ctx context.Context, userID, productID int64, liked bool) error {
	if productID <= 0 {
		return fmt.Errorf("%w: malformed product reference", ErrValidation)
	}
	return s.store.ToggleWishlist(ctx, userID, productID, liked)
}

// ListWishlist returns the user's liked products
func (s *CatalogService) ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	return s.store.ListWishlist(ctx, userID)
}
