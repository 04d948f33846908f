package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/chat"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	authService       *service.AuthService
	catalogService    *service.CatalogService
	cartService       *service.CartService
	orderService      *service.OrderService
	newsletterService *service.NewsletterService
	hub               *chat.Hub
	jwter             *auth.JWTer
}

// NewHandler creates a new HTTP handler
func NewHandler(
	authService *service.AuthService,
	catalogService *service.CatalogService,
	cartService *service.CartService,
	orderService *service.OrderService,
	newsletterService *service.NewsletterService,
	hub *chat.Hub,
	jwter *auth.JWTer,
) *Handler {
	return &Handler{
		authService:       authService,
		catalogService:    catalogService,
		cartService:       cartService,
		orderService:      orderService,
		newsletterService: newsletterService,
		hub:               hub,
		jwter:             jwter,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", h.healthCheck)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/forgot", h.forgotPassword)
	}

	product := api.Group("/product")
	{
		product.GET("", h.listProducts)
		product.GET("/:slug", h.getProduct)
		product.POST("/add", h.requireAuth(), h.requireRole(models.RoleAdmin, models.RoleMerchant), h.createProduct)
		product.PUT("/:id", h.requireAuth(), h.requireRole(models.RoleAdmin, models.RoleMerchant), h.updateProduct)
		product.DELETE("/delete/:id", h.requireAuth(), h.requireRole(models.RoleAdmin, models.RoleMerchant), h.deleteProduct)
	}

	brand := api.Group("/brand")
	{
		brand.GET("", h.optionalAuth(), h.listBrands)
		brand.POST("/add", h.requireAuth(), h.requireRole(models.RoleAdmin, models.RoleMerchant), h.createBrand)
		brand.PUT("/:id", h.requireAuth(), h.requireRole(models.RoleAdmin, models.RoleMerchant), h.updateBrand)
		brand.DELETE("/delete/:id", h.requireAuth(), h.requireRole(models.RoleAdmin), h.deleteBrand)
	}

	category := api.Group("/category")
	{
		category.GET("", h.optionalAuth(), h.listCategories)
		category.POST("/add", h.requireAuth(), h.requireRole(models.RoleAdmin), h.createCategory)
		category.PUT("/:id", h.requireAuth(), h.requireRole(models.RoleAdmin), h.updateCategory)
		category.DELETE("/delete/:id", h.requireAuth(), h.requireRole(models.RoleAdmin), h.deleteCategory)
	}

	review := api.Group("/review")
	{
		review.GET("", h.requireAuth(), h.requireRole(models.RoleAdmin), h.listAllReviews)
		review.GET("/:productId", h.listProductReviews)
		review.POST("/add", h.requireAuth(), h.addReview)
		review.PUT("/approve/:id", h.requireAuth(), h.requireRole(models.RoleAdmin), h.approveReview)
		review.PUT("/reject/:id", h.requireAuth(), h.requireRole(models.RoleAdmin), h.rejectReview)
	}

	wishlist := api.Group("/wishlist", h.requireAuth())
	{
		wishlist.GET("", h.listWishlist)
		wishlist.POST("", h.toggleWishlist)
	}

	cart := api.Group("/cart", h.requireAuth())
	{
		cart.GET("", h.getCart)
		cart.POST("/add", h.addCartItem)
		cart.PUT("/update", h.updateCartItem)
		cart.DELETE("/delete", h.removeCartItem)
		cart.POST("/clear", h.clearCart)
	}

	order := api.Group("/order", h.requireAuth())
	{
		order.POST("/add", h.checkout)
		order.GET("", h.listOrders)
		order.GET("/search", h.searchOrders)
		order.GET("/:id", h.getOrder)
		order.PUT("/status/:id", h.requireRole(models.RoleAdmin), h.updateOrderStatus)
		order.PUT("/cancel/:id", h.cancelOrder)
	}

	api.POST("/newsletter/subscribe", h.subscribeNewsletter)
	api.GET("/chat", h.requireAuth(), h.serveChat)
}

// healthCheck reports liveness; it carries no dependency checks so the
// orchestrator never restarts the process over a flaky downstream.
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondErr maps the service error taxonomy onto HTTP statuses.
// Unclassified errors become an opaque 500; the detail stays in logs.
func (h *Handler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
