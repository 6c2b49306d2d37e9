package controllers

import (
	"net/http"

	"order-service/middleware"
	"order-service/models"
	"order-service/services"

	"github.com/gin-gonic/gin"
)

type CheckoutController struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutController(checkoutService *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkoutService: checkoutService}
}

// Checkout handles POST /checkout
func (cc *CheckoutController) Checkout(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   services.CodeValidationError,
			"message": err.Error(),
		})
		return
	}
	// The authenticated caller owns the checkout regardless of the payload.
	req.UserID = userID

	result, svcErr := cc.checkoutService.ProcessCheckout(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, checkoutFailure(svcErr))
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// CheckAvailability handles POST /checkout/availability
func (cc *CheckoutController) CheckAvailability(ctx *gin.Context) {
	var req struct {
		Items []models.CheckoutItem `json:"items" binding:"required,dive"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   services.CodeValidationError,
			"message": err.Error(),
		})
		return
	}

	result, svcErr := cc.checkoutService.CheckAvailability(ctx.Request.Context(), req.Items)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, checkoutFailure(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// RevertStock handles POST /checkout/revert-stock (manual compensation)
func (cc *CheckoutController) RevertStock(ctx *gin.Context) {
	var req struct {
		StockUpdates []models.StockUpdate `json:"stock_updates" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   services.CodeValidationError,
			"message": err.Error(),
		})
		return
	}

	if svcErr := cc.checkoutService.RevertStock(ctx.Request.Context(), req.StockUpdates); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, checkoutFailure(svcErr))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func checkoutFailure(svcErr *services.CheckoutError) gin.H {
	resp := gin.H{
		"success": false,
		"error":   svcErr.Code,
		"message": svcErr.Message,
	}
	if svcErr.Product != nil {
		resp["product"] = svcErr.Product
	}
	if svcErr.ProductID != "" {
		resp["product_id"] = svcErr.ProductID
	}
	return resp
}
