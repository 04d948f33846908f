package api

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) checkout(c *gin.Context) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	view, err := h.orderService.Checkout(c.Request.Context(), mustClaims(c).UserID, req.PaymentMethod)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims := mustClaims(c)
	view, err := h.orderService.GetOrder(c.Request.Context(), claims.UserID, claims.Role, id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listOrders(c *gin.Context) {
	claims := mustClaims(c)
	f := orderFilterFromQuery(c)

	listing, err := h.orderService.ListOrders(c.Request.Context(), claims.UserID, claims.Role, f)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// searchOrders exposes the full filter set. The user_id filter only
// takes effect for admins; everyone else stays pinned to their own
// orders by the service.
func (h *Handler) searchOrders(c *gin.Context) {
	claims := mustClaims(c)
	f := orderFilterFromQuery(c)
	f.UserID, _ = strconv.ParseInt(c.Query("user_id"), 10, 64)

	listing, err := h.orderService.ListOrders(c.Request.Context(), claims.UserID, claims.Role, f)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) cancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims := mustClaims(c)
	order, err := h.orderService.Cancel(c.Request.Context(), claims.UserID, claims.Role, id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func orderFilterFromQuery(c *gin.Context) store.OrderFilter {
	f := store.OrderFilter{
		Status:      c.Query("status"),
		OrderNumber: c.Query("order_number"),
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if from := c.Query("from"); from != "" {
		f.From, _ = time.Parse(time.RFC3339, from)
	}
	if to := c.Query("to"); to != "" {
		f.To, _ = time.Parse(time.RFC3339, to)
	}
	return f
}
