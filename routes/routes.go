package routes

import (
	"net/http"

	"order-service/controllers"
	"order-service/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterCheckoutRoutes(r *gin.Engine, checkoutController *controllers.CheckoutController) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	checkoutRoutes := r.Group("/checkout")
	checkoutRoutes.Use(middleware.AuthMiddleware())
	checkoutRoutes.POST("", checkoutController.Checkout)
	checkoutRoutes.POST("/availability", checkoutController.CheckAvailability)
	// Manual compensation for saga-style rollbacks driven by operators or
	// collaborating services; the checkout transaction rolls itself back.
	checkoutRoutes.POST("/revert-stock", checkoutController.RevertStock)
}
