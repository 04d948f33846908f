package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.cartService.GetCart(c.Request.Context(), mustClaims(c).UserID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
		UnitPrice int64 `json:"unit_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// The captured price comes from the catalog, never the client
	product, err := h.catalogService.GetProductByID(c.Request.Context(), req.ProductID)
	if err != nil {
		h.respondErr(c, err)
		return
	}

	view, err := h.cartService.AddItem(c.Request.Context(), mustClaims(c).UserID, req.ProductID, req.Quantity, product.Price)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.cartService.UpdateItem(c.Request.Context(), mustClaims(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	var req struct {
		ProductID int64 `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.cartService.RemoveItem(c.Request.Context(), mustClaims(c).UserID, req.ProductID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cartService.Clear(c.Request.Context(), mustClaims(c).UserID); err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
