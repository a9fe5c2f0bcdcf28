package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/money"
	"github.com/messmate/messmate/internal/payment"
	"github.com/messmate/messmate/internal/users"
)

// PaymentHandler handles payment ledger endpoints.
type PaymentHandler struct {
	payments *payment.Service
	passes   *messpass.Manager
	users    *users.Service
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	passes := messpass.NewManager(db)
	return &PaymentHandler{
		payments: payment.NewService(db, passes),
		passes:   passes,
		users:    users.NewService(db),
	}
}

// paymentDTO defines the payment response payload.
type paymentDTO struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	MessPassID    *uint64   `json:"mess_pass_id,omitempty"`
	Amount        string    `json:"amount"`
	PaymentType   string    `json:"payment_type"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toPaymentDTO(p *models.Payment) paymentDTO {
	return paymentDTO{
		ID:            p.ID,
		UserID:        p.UserID,
		MessPassID:    p.MessPassID,
		Amount:        money.Format(p.AmountCents),
		PaymentType:   string(p.PaymentType),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	}
}

func toPaymentDTOs(payments []models.Payment) []paymentDTO {
	out := make([]paymentDTO, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentDTO(&payments[i]))
	}
	return out
}

// createPaymentRequest defines the request body for a pending payment record.
type createPaymentRequest struct {
	Amount      string `json:"amount"`
	PaymentType string `json:"payment_type"`
	Description string `json:"description"`
}

// rechargeRequest defines the request body for a recharge payment.
type rechargeRequest struct {
	UserEmail string `json:"user_email"`
	Amount    string `json:"amount"`
}

// Create records a pending payment for the authenticated user.
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body createPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	amountCents, errAmount := money.Parse(body.Amount)
	if errAmount != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	paymentType, errType := models.ParsePaymentType(body.PaymentType)
	if errType != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_type"})
		return
	}

	created, errCreate := h.payments.Create(c.Request.Context(), userID, amountCents, paymentType, body.Description)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toPaymentDTO(created))
}

// Recharge tops up a user's pass and records the completed payment in one
// transaction. Without user_email the caller recharges their own pass.
func (h *PaymentHandler) Recharge(c *gin.Context) {
	var body rechargeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	amountCents, errAmount := money.Parse(body.Amount)
	if errAmount != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	userID := getUserID(c)
	if email := strings.TrimSpace(body.UserEmail); email != "" {
		user, errUser := h.users.GetByEmail(c.Request.Context(), email)
		if errUser != nil {
			respondError(c, errUser)
			return
		}
		userID = user.ID
	}
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pass, errPass := h.passes.GetByUser(c.Request.Context(), userID)
	if errPass != nil {
		respondError(c, errPass)
		return
	}

	created, errRecharge := h.payments.ProcessRecharge(c.Request.Context(), userID, pass.ID, amountCents)
	if errRecharge != nil {
		respondError(c, errRecharge)
		return
	}
	c.JSON(http.StatusCreated, toPaymentDTO(created))
}

// ListMine returns the authenticated user's payment history, newest first.
func (h *PaymentHandler) ListMine(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	payments, errList := h.payments.ListByUser(c.Request.Context(), userID)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": toPaymentDTOs(payments)})
}

// ListByUserEmail returns a user's payment history, newest first.
func (h *PaymentHandler) ListByUserEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	user, errUser := h.users.GetByEmail(c.Request.Context(), email)
	if errUser != nil {
		respondError(c, errUser)
		return
	}

	payments, errList := h.payments.ListByUser(c.Request.Context(), user.ID)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": toPaymentDTOs(payments)})
}

// ListByStatus returns all payments in the given status.
func (h *PaymentHandler) ListByStatus(c *gin.Context) {
	status, errStatus := models.ParsePaymentStatus(c.Param("status"))
	if errStatus != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	payments, errList := h.payments.ListByStatus(c.Request.Context(), status)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": toPaymentDTOs(payments)})
}

// GetByTransactionID returns the payment with the given transaction id.
func (h *PaymentHandler) GetByTransactionID(c *gin.Context) {
	transactionID := strings.TrimSpace(c.Param("transactionId"))
	found, errGet := h.payments.GetByTransactionID(c.Request.Context(), transactionID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toPaymentDTO(found))
}

// updateStatusRequest defines the request body for payment status updates.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus moves a payment to the given status.
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	paymentID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	var body updateStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, errStatus := models.ParsePaymentStatus(body.Status)
	if errStatus != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	updated, errUpdate := h.payments.UpdateStatus(c.Request.Context(), paymentID, status)
	if errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, toPaymentDTO(updated))
}

// Report returns payments of one type within an inclusive date range,
// together with their total.
func (h *PaymentHandler) Report(c *gin.Context) {
	paymentType, errType := models.ParsePaymentType(c.Query("type"))
	if errType != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}

	start, errStart := time.Parse(dateLayout, strings.TrimSpace(c.Query("start")))
	if errStart != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start, expected YYYY-MM-DD"})
		return
	}
	end, errEnd := time.Parse(dateLayout, strings.TrimSpace(c.Query("end")))
	if errEnd != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end, expected YYYY-MM-DD"})
		return
	}
	// Make the end bound cover the whole day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	payments, errList := h.payments.ListByTypeAndRange(c.Request.Context(), paymentType, start, end)
	if errList != nil {
		respondError(c, errList)
		return
	}

	var totalCents int64
	for i := range payments {
		totalCents += payments[i].AmountCents
	}
	c.JSON(http.StatusOK, gin.H{
		"payments": toPaymentDTOs(payments),
		"count":    len(payments),
		"total":    money.Format(totalCents),
	})
}
