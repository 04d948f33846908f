package api

import (
	"net/http"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listProducts(c *gin.Context) {
	filter := store.ProductFilter{
		CategorySlug: c.Query("category"),
		BrandSlug:    c.Query("brand"),
		Search:       c.Query("search"),
	}
	filter.MinPrice, _ = strconv.ParseInt(c.Query("min"), 10, 64)
	filter.MaxPrice, _ = strconv.ParseInt(c.Query("max"), 10, 64)
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))

	listing, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *Handler) createProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product removed"})
}

func (h *Handler) listBrands(c *gin.Context) {
	activeOnly := true
	if claims := mustClaims(c); claims != nil && claims.Role == models.RoleAdmin {
		activeOnly = false
	}
	brands, err := h.catalogService.ListBrands(c.Request.Context(), activeOnly)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brands": brands})
}

func (h *Handler) createBrand(c *gin.Context) {
	var in service.BrandInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	brand, err := h.catalogService.CreateBrand(c.Request.Context(), &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"brand": brand})
}

func (h *Handler) updateBrand(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.BrandInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	brand, err := h.catalogService.UpdateBrand(c.Request.Context(), id, &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"brand": brand})
}

func (h *Handler) deleteBrand(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteBrand(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "brand removed"})
}

func (h *Handler) listCategories(c *gin.Context) {
	activeOnly := true
	if claims := mustClaims(c); claims != nil && claims.Role == models.RoleAdmin {
		activeOnly = false
	}
	categories, err := h.catalogService.ListCategories(c.Request.Context(), activeOnly)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) createCategory(c *gin.Context) {
	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category removed"})
}

func (h *Handler) listProductReviews(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	reviews, err := h.catalogService.ListProductReviews(c.Request.Context(), productID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *Handler) addReview(c *gin.Context) {
	var in service.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	review, err := h.catalogService.AddReview(c.Request.Context(), mustClaims(c).UserID, &in)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

func (h *Handler) listAllReviews(c *gin.Context) {
	reviews, err := h.catalogService.ListAllReviews(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

func (h *Handler) approveReview(c *gin.Context) {
	h.setReviewStatus(c, models.ReviewStatusApproved)
}

func (h *Handler) rejectReview(c *gin.Context) {
	h.setReviewStatus(c, models.ReviewStatusRejected)
}

func (h *Handler) setReviewStatus(c *gin.Context, status string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.SetReviewStatus(c.Request.Context(), id, status); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review updated"})
}

func (h *Handler) listWishlist(c *gin.Context) {
	items, err := h.catalogService.ListWishlist(c.Request.Context(), mustClaims(c).UserID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": items})
}

func (h *Handler) toggleWishlist(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id"`
		IsLiked   bool  `json:"isLiked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.catalogService.ToggleWishlist(c.Request.Context(), mustClaims(c).UserID, req.ProductID, req.IsLiked); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "wishlist updated"})
}
