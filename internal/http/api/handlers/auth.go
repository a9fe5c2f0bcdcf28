package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/config"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
	"github.com/messmate/messmate/internal/users"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	users  *users.Service
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{users: users.NewService(db), jwtCfg: jwtCfg}
}

// signupRequest defines the request body for account registration.
type signupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	UserType   string `json:"user_type"`
	RollNumber string `json:"roll_number"`
	Hostel     string `json:"hostel"`
	Room       string `json:"room"`
	Phone      string `json:"phone"`
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userDTO defines the public user payload.
type userDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	UserType   string `json:"user_type"`
	RollNumber string `json:"roll_number"`
	Hostel     string `json:"hostel,omitempty"`
	Room       string `json:"room,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsActive   bool   `json:"is_active"`
}

func toUserDTO(user *models.User) userDTO {
	return userDTO{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		UserType:   string(user.UserType),
		RollNumber: user.RollNumber,
		Hostel:     user.Hostel,
		Room:       user.Room,
		Phone:      user.Phone,
		IsActive:   user.IsActive,
	}
}

// Signup registers a new account and returns a session token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var body signupRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Email) == "" ||
		strings.TrimSpace(body.Password) == "" || strings.TrimSpace(body.RollNumber) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email, password and roll_number are required"})
		return
	}

	user, errSignup := h.users.Signup(c.Request.Context(), users.SignupParams{
		Name:       body.Name,
		Email:      body.Email,
		Password:   body.Password,
		UserType:   body.UserType,
		RollNumber: body.RollNumber,
		Hostel:     body.Hostel,
		Room:       body.Room,
		Phone:      body.Phone,
	})
	if errSignup != nil {
		respondError(c, errSignup)
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Name, string(user.UserType), h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": toUserDTO(user)})
}

// Login authenticates a user and returns a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	user, errLogin := h.users.Login(c.Request.Context(), body.Email, body.Password)
	if errLogin != nil {
		if errors.Is(errLogin, users.ErrUserNotFound) || errors.Is(errLogin, users.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, errLogin)
		return
	}

	token, errToken := security.GenerateToken(h.jwtCfg.Secret, user.ID, user.Email, user.Name, string(user.UserType), h.jwtCfg.Expiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUserDTO(user)})
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	userID := getUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, errFind := h.users.GetByID(c.Request.Context(), userID)
	if errFind != nil {
		respondError(c, errFind)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(user))
}
