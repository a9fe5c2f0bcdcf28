package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/money"
	"github.com/messmate/messmate/internal/order"
	"github.com/messmate/messmate/internal/payment"
)

// OrderHandler handles meal order endpoints.
type OrderHandler struct {
	orders *order.Service
	passes *messpass.Manager
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	passes := messpass.NewManager(db)
	return &OrderHandler{
		orders: order.NewService(db, payment.NewService(db, passes)),
		passes: passes,
	}
}

// orderItemDTO defines one ordered item in the response payload.
type orderItemDTO struct {
	MenuItemID uint64 `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
}

// orderDTO defines the meal order response payload.
type orderDTO struct {
	ID                  uint64         `json:"id"`
	UserID              uint64         `json:"user_id"`
	Items               []orderItemDTO `json:"items"`
	TotalAmount         string         `json:"total_amount"`
	Status              string         `json:"status"`
	MealType            string         `json:"meal_type"`
	SpecialInstructions string         `json:"special_instructions,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

func toOrderDTO(o *models.MealOrder) orderDTO {
	var snapshots []models.OrderItemSnapshot
	_ = json.Unmarshal(o.ItemsSnapshot, &snapshots)
	items := make([]orderItemDTO, 0, len(snapshots))
	for _, snapshot := range snapshots {
		items = append(items, orderItemDTO{
			MenuItemID: snapshot.MenuItemID,
			Name:       snapshot.Name,
			Price:      money.Format(snapshot.PriceCents),
		})
	}
	return orderDTO{
		ID:                  o.ID,
		UserID:              o.UserID,
		Items:               items,
		TotalAmount:         money.Format(o.TotalAmountCents),
		Status:              string(o.Status),
		MealType:            string(o.MealType),
		SpecialInstructions: o.SpecialInstructions,
		CreatedAt:           o.CreatedAt,
	}
}

func toOrderDTOs(orders []models.MealOrder) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(&orders[i]))
	}
	return out
}

// createOrderRequest defines the request body for placing an order.
type createOrderRequest struct {
	MealType            string   `json:"meal_type"`
	ItemIDs             []uint64 `json:"item_ids"`
	SpecialInstructions string   `json:"special_instructions"`
}

// Create places a meal order for the authenticated user.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createOrderRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	mealType, errMeal := models.ParseMealType(body.MealType)
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal_type"})
		return
	}

	created, errCreate := h.orders.Create(c.Request.Context(), userID, mealType, body.ItemIDs, body.SpecialInstructions)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toOrderDTO(created))
}

// Pay settles a pending order from the caller's mess pass.
func (h *OrderHandler) Pay(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orderID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	found, errGet := h.orders.Get(c.Request.Context(), orderID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	if found.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}

	pass, errPass := h.passes.GetByUser(c.Request.Context(), userID)
	if errPass != nil {
		respondError(c, errPass)
		return
	}

	paid, errPay := h.orders.PayWithPass(c.Request.Context(), orderID, pass.ID)
	if errPay != nil {
		respondError(c, errPay)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(paid))
}

// Get returns one order.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	found, errGet := h.orders.Get(c.Request.Context(), orderID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(found))
}

// ListMine returns the authenticated user's orders, newest first.
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	orders, errList := h.orders.ListByUser(c.Request.Context(), userID)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderDTOs(orders)})
}

// ListByStatus returns all orders in the given status.
func (h *OrderHandler) ListByStatus(c *gin.Context) {
	status, errStatus := models.ParseOrderStatus(c.Param("status"))
	if errStatus != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	orders, errList := h.orders.ListByStatus(c.Request.Context(), status)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderDTOs(orders)})
}

// ListTodays returns today's orders for one meal slot.
func (h *OrderHandler) ListTodays(c *gin.Context) {
	mealType, errMeal := models.ParseMealType(c.Param("mealType"))
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal type"})
		return
	}
	orders, errList := h.orders.ListTodays(c.Request.Context(), mealType, time.Now().UTC())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderDTOs(orders)})
}

// UpdateStatus moves an order to the given status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	var body updateStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, errStatus := models.ParseOrderStatus(body.Status)
	if errStatus != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	updated, errUpdate := h.orders.UpdateStatus(c.Request.Context(), orderID, status)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(updated))
}

// Cancel cancels the caller's own order.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	orderID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	found, errGet := h.orders.Get(c.Request.Context(), orderID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	if found.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}

	cancelled, errCancel := h.orders.Cancel(c.Request.Context(), orderID)
	if errCancel != nil {
		respondError(c, errCancel)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(cancelled))
}
