package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Jame-iro/agrolink-backend/internal/model"
	"github.com/Jame-iro/agrolink-backend/internal/service"
)

type Orders struct {
	Svc service.Orders
}

func NewOrders(svc service.Orders) *Orders { return &Orders{Svc: svc} }

// orderResponse mirrors the order document with a trailing message field.
type orderResponse struct {
	*model.Order
	Message string `json:"message"`
}

// Create handles POST /api/orders.
func (h *Orders) Create(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	order, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderResponse{Order: order, Message: "Order created successfully"})
}

// ListByConsumer handles GET /api/orders/consumer/:id where :id is either
// an internal id or a Telegram id.
func (h *Orders) ListByConsumer(c *gin.Context) {
	orders, err := h.Svc.ListByConsumer(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// ListByFarmer handles GET /api/orders/farmer/:id.
func (h *Orders) ListByFarmer(c *gin.Context) {
	orders, err := h.Svc.ListByFarmer(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id.
func (h *Orders) Get(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}
	order, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PATCH /api/orders/:id/status.
func (h *Orders) UpdateStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format"})
		return
	}
	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	order, err := h.Svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orderResponse{
		Order:   order,
		Message: "Order status updated to " + string(order.Status),
	})
}
