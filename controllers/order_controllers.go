package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/models"
	"github.com/yeremiapane/siparist/services"
	"github.com/yeremiapane/siparist/utils"
)

type OrderController struct {
	Orders *services.OrderEngine
	Now    func() time.Time
}

func NewOrderController(orders *services.OrderEngine) *OrderController {
	return &OrderController{Orders: orders, Now: time.Now}
}

// GetAllOrders -> tanpa ?status= return papan order (per status + omzet hari ini)
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	status := c.Query("status")
	orders, err := oc.Orders.List(c.Request.Context(), models.OrderStatus(status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if status != "" {
		utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order board", services.BuildOrdersView(orders, oc.Now()))
}

// UpdateOrderStatus -> pending -> delivered -> paid
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.Orders.Advance(c.Request.Context(), c.Param("order_id"), models.OrderStatus(req.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
