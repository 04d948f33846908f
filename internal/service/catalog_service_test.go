package service

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogStore struct {
	products   map[int64]*models.Product
	brands     map[int64]*models.Brand
	categories map[int64]*models.Category
	reviews    map[int64]*models.Review
	wishlist   map[[2]int64]bool
	nextID     int64
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{
		products:   make(map[int64]*models.Product),
		brands:     make(map[int64]*models.Brand),
		categories: make(map[int64]*models.Category),
		reviews:    make(map[int64]*models.Review),
		wishlist:   make(map[[2]int64]bool),
	}
}

func (f *fakeCatalogStore) ListProducts(_ context.Context, _ store.ProductFilter) ([]models.Product, int, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (f *fakeCatalogStore) GetProductBySlug(_ context.Context, slug string) (*models.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug && p.IsActive {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, slug)
}

func (f *fakeCatalogStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", store.ErrNotFound, id)
	}
	return p, nil
}

func (f *fakeCatalogStore) SKUExists(_ context.Context, sku string) (bool, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalogStore) CreateProduct(_ context.Context, p *models.Product) error {
	f.nextID++
	p.ID = f.nextID
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalogStore) UpdateProduct(_ context.Context, p *models.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return fmt.Errorf("%w: product %d", store.ErrNotFound, p.ID)
	}
	f.products[p.ID] = p
	return nil
}

func (f *fakeCatalogStore) DeactivateProduct(_ context.Context, id int64) error {
	p, ok := f.products[id]
	if !ok {
		return fmt.Errorf("%w: product %d", store.ErrNotFound, id)
	}
	p.IsActive = false
	return nil
}

func (f *fakeCatalogStore) ListBrands(_ context.Context, activeOnly bool) ([]models.Brand, error) {
	var out []models.Brand
	for _, b := range f.brands {
		if !activeOnly || b.IsActive {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) CreateBrand(_ context.Context, b *models.Brand) error {
	f.nextID++
	b.ID = f.nextID
	f.brands[b.ID] = b
	return nil
}

func (f *fakeCatalogStore) UpdateBrand(_ context.Context, b *models.Brand) error {
	if _, ok := f.brands[b.ID]; !ok {
		return fmt.Errorf("%w: brand %d", store.ErrNotFound, b.ID)
	}
	f.brands[b.ID] = b
	return nil
}

func (f *fakeCatalogStore) DeactivateBrand(_ context.Context, id int64) error {
	b, ok := f.brands[id]
	if !ok {
		return fmt.Errorf("%w: brand %d", store.ErrNotFound, id)
	}
	b.IsActive = false
	return nil
}

func (f *fakeCatalogStore) ListCategories(_ context.Context, activeOnly bool) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		if !activeOnly || c.IsActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) CreateCategory(_ context.Context, c *models.Category) error {
	f.nextID++
	c.ID = f.nextID
	f.categories[c.ID] = c
	return nil
}

func (f *fakeCatalogStore) UpdateCategory(_ context.Context, c *models.Category) error {
	if _, ok := f.categories[c.ID]; !ok {
		return fmt.Errorf("%w: category %d", store.ErrNotFound, c.ID)
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeCatalogStore) DeactivateCategory(_ context.Context, id int64) error {
	c, ok := f.categories[id]
	if !ok {
		return fmt.Errorf("%w: category %d", store.ErrNotFound, id)
	}
	c.IsActive = false
	return nil
}

func (f *fakeCatalogStore) CreateReview(_ context.Context, r *models.Review) error {
	f.nextID++
	r.ID = f.nextID
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeCatalogStore) ListReviewsByProduct(_ context.Context, productID int64) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ProductID == productID && r.Status == models.ReviewStatusApproved {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) ListReviews(_ context.Context) ([]models.Review, error) {
	var out []models.Review
	for _, r := range f.reviews {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeCatalogStore) UpdateReviewStatus(_ context.Context, reviewID int64, status string) error {
	r, ok := f.reviews[reviewID]
	if !ok {
		return fmt.Errorf("%w: review %d", store.ErrNotFound, reviewID)
	}
	r.Status = status
	return nil
}

func (f *fakeCatalogStore) ToggleWishlist(_ context.Context, userID, productID int64, liked bool) error {
	f.wishlist[[2]int64{userID, productID}] = liked
	return nil
}

func (f *fakeCatalogStore) ListWishlist(_ context.Context, userID int64) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for key, liked := range f.wishlist {
		if key[0] == userID && liked {
			out = append(out, models.WishlistItem{UserID: userID, ProductID: key[1], IsLiked: true})
		}
	}
	return out, nil
}

func TestCreateProductValidation(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore(), nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, &ProductInput{Name: "No SKU", Price: 100})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Free?", Price: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateProductDerivesSlugAndEnforcesSKU(t *testing.T) {
	svc := NewCatalogService(newFakeCatalogStore(), nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Wireless Mouse", Price: 2999})
	require.NoError(t, err)
	assert.Equal(t, "wireless-mouse", p.Slug)
	assert.True(t, p.IsActive)

	_, err = svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Other Mouse", Price: 999})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteProductIsSoft(t *testing.T) {
	fs := newFakeCatalogStore()
	svc := NewCatalogService(fs, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Wireless Mouse", Price: 2999})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))

	// gone from public lookups, still resolvable by ID
	_, err = svc.GetProductBySlug(ctx, "wireless-mouse")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := svc.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, byID.IsActive)
}

func TestAddReviewValidation(t *testing.T) {
	fs := newFakeCatalogStore()
	svc := NewCatalogService(fs, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Wireless Mouse", Price: 2999})
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, 1, &ReviewInput{ProductID: p.ID, Rating: 0})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddReview(ctx, 1, &ReviewInput{ProductID: p.ID, Rating: 6})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.AddReview(ctx, 1, &ReviewInput{ProductID: 999, Rating: 4})
	assert.ErrorIs(t, err, ErrNotFound)

	review, err := svc.AddReview(ctx, 1, &ReviewInput{ProductID: p.ID, Rating: 4, Title: "Solid"})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusWaiting, review.Status)
}

func TestReviewModeration(t *testing.T) {
	fs := newFakeCatalogStore()
	svc := NewCatalogService(fs, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Wireless Mouse", Price: 2999})
	require.NoError(t, err)
	review, err := svc.AddReview(ctx, 1, &ReviewInput{ProductID: p.ID, Rating: 4})
	require.NoError(t, err)

	// pending reviews are invisible publicly
	public, err := svc.ListProductReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, public)

	assert.ErrorIs(t, svc.SetReviewStatus(ctx, review.ID, "Published"), ErrValidation)
	require.NoError(t, svc.SetReviewStatus(ctx, review.ID, models.ReviewStatusApproved))

	public, err = svc.ListProductReviews(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, public, 1)
}

func TestToggleWishlist(t *testing.T) {
	fs := newFakeCatalogStore()
	svc := NewCatalogService(fs, nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{SKU: "SKU-1", Name: "Wireless Mouse", Price: 2999})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ToggleWishlist(ctx, 1, 0, true), ErrValidation)

	require.NoError(t, svc.ToggleWishlist(ctx, 1, p.ID, true))
	items, err := svc.ListWishlist(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, svc.ToggleWishlist(ctx, 1, p.ID, false))
	items, err = svc.ListWishlist(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}
