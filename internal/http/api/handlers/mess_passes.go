package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/messpass"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/money"
	"github.com/messmate/messmate/internal/users"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// MessPassHandler handles mess pass endpoints.
type MessPassHandler struct {
	passes *messpass.Manager
	users  *users.Service
}

// NewMessPassHandler constructs a MessPassHandler.
func NewMessPassHandler(db *gorm.DB) *MessPassHandler {
	return &MessPassHandler{passes: messpass.NewManager(db), users: users.NewService(db)}
}

// messPassDTO defines the mess pass response payload.
type messPassDTO struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	PassNumber string    `json:"pass_number"`
	PassType   string    `json:"pass_type"`
	ValidFrom  string    `json:"valid_from"`
	ValidUntil string    `json:"valid_until"`
	Balance    string    `json:"balance"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func toMessPassDTO(pass *models.MessPass) messPassDTO {
	return messPassDTO{
		ID:         pass.ID,
		UserID:     pass.UserID,
		PassNumber: pass.PassNumber,
		PassType:   string(pass.PassType),
		ValidFrom:  pass.ValidFrom.Format(dateLayout),
		ValidUntil: pass.ValidUntil.Format(dateLayout),
		Balance:    money.Format(pass.BalanceCents),
		IsActive:   pass.IsActive,
		CreatedAt:  pass.CreatedAt,
	}
}

// createMessPassRequest defines the request body for pass issuance.
type createMessPassRequest struct {
	UserEmail  string `json:"user_email"`
	PassType   string `json:"pass_type"`
	ValidFrom  string `json:"valid_from"`
	ValidUntil string `json:"valid_until"`
}

// amountRequest defines the request body for balance mutations.
type amountRequest struct {
	Amount string `json:"amount"`
}

// Create issues a new mess pass for the given user.
func (h *MessPassHandler) Create(c *gin.Context) {
	var body createMessPassRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	passType, errType := models.ParsePassType(body.PassType)
	if errType != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pass_type"})
		return
	}

	validFrom, errFrom := time.Parse(dateLayout, strings.TrimSpace(body.ValidFrom))
	if errFrom != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_from, expected YYYY-MM-DD"})
		return
	}
	validUntil, errUntil := time.Parse(dateLayout, strings.TrimSpace(body.ValidUntil))
	if errUntil != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until, expected YYYY-MM-DD"})
		return
	}
	if validUntil.Before(validFrom) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "valid_until precedes valid_from"})
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

	pass, errCreate := h.passes.Create(c.Request.Context(), userID, passType, validFrom, validUntil)
	if errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toMessPassDTO(pass))
}

// GetMine returns the authenticated user's most recent pass.
func (h *MessPassHandler) GetMine(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pass, errGet := h.passes.GetByUser(c.Request.Context(), userID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toMessPassDTO(pass))
}

// GetByEmail returns the most recent pass of the user with the given email.
func (h *MessPassHandler) GetByEmail(c *gin.Context) {
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

	pass, errGet := h.passes.GetByUser(c.Request.Context(), user.ID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toMessPassDTO(pass))
}

// GetByNumber returns the pass with the given pass number.
func (h *MessPassHandler) GetByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	pass, errGet := h.passes.GetByNumber(c.Request.Context(), number)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toMessPassDTO(pass))
}

// Recharge adds the posted amount to the pass balance.
func (h *MessPassHandler) Recharge(c *gin.Context) {
	passID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	amountCents, ok := bindAmount(c)
	if !ok {
		return
	}

	pass, errRecharge := h.passes.Recharge(c.Request.Context(), passID, amountCents)
	if errRecharge != nil {
		respondError(c, errRecharge)
		return
	}
	c.JSON(http.StatusOK, toMessPassDTO(pass))
}

// Deduct subtracts the posted amount from the pass balance.
func (h *MessPassHandler) Deduct(c *gin.Context) {
	passID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	amountCents, ok := bindAmount(c)
	if !ok {
		return
	}

	pass, errDeduct := h.passes.Deduct(c.Request.Context(), passID, amountCents)
	if errDeduct != nil {
		respondError(c, errDeduct)
		return
	}
	c.JSON(http.StatusOK, toMessPassDTO(pass))
}

// Deactivate marks the pass inactive.
func (h *MessPassHandler) Deactivate(c *gin.Context) {
	passID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	if errDeactivate := h.passes.Deactivate(c.Request.Context(), passID); errDeactivate != nil {
		respondError(c, errDeactivate)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "mess pass deactivated"})
}

// ListExpired returns active passes whose validity has lapsed.
func (h *MessPassHandler) ListExpired(c *gin.Context) {
	asOf := time.Now().UTC()
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, errParse := time.Parse(dateLayout, raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of, expected YYYY-MM-DD"})
			return
		}
		asOf = parsed
	}

	passes, errList := h.passes.ListExpired(c.Request.Context(), asOf)
	if errList != nil {
		respondError(c, errList)
		return
	}

	out := make([]messPassDTO, 0, len(passes))
	for i := range passes {
		out = append(out, toMessPassDTO(&passes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"mess_passes": out})
}

// parseIDParam parses a numeric path parameter, writing the error response
// itself when the value is malformed.
func parseIDParam(c *gin.Context, name string) (uint64, error) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// bindAmount binds and parses a decimal amount body into cents.
func bindAmount(c *gin.Context) (int64, bool) {
	var body amountRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return 0, false
	}
	amountCents, errParse := money.Parse(body.Amount)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return 0, false
	}
	return amountCents, true
}
