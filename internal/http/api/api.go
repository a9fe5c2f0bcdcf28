// Package api wires the HTTP routes of the mess backend.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/config"
	"github.com/messmate/messmate/internal/http/api/handlers"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

// RegisterRoutes registers all public, authenticated and admin routes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig) {
	if r == nil || db == nil {
		return
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	root := r.Group("/api")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	root.POST("/auth/signup", authHandler.Signup)
	root.POST("/auth/login", authHandler.Login)

	authed := root.Group("")
	authed.Use(userAuthMiddleware(db, jwtCfg))

	authed.GET("/profile", authHandler.Profile)

	passHandler := handlers.NewMessPassHandler(db)
	authed.GET("/mess-passes/me", passHandler.GetMine)
	authed.GET("/mess-passes/number/:number", passHandler.GetByNumber)

	paymentHandler := handlers.NewPaymentHandler(db)
	authed.POST("/payments", paymentHandler.Create)
	authed.POST("/payments/recharge", paymentHandler.Recharge)
	authed.GET("/payments/me", paymentHandler.ListMine)
	authed.GET("/payments/transaction/:transactionId", paymentHandler.GetByTransactionID)

	menuHandler := handlers.NewMenuHandler(db)
	authed.GET("/menu/items", menuHandler.ListItems)
	authed.GET("/menu/items/search", menuHandler.SearchItems)
	authed.GET("/menu/items/vegetarian", menuHandler.ListVegetarian)
	authed.GET("/menu/items/meal-type/:mealType", menuHandler.ListByMealType)
	authed.GET("/menu/items/category/:category", menuHandler.ListByCategory)
	authed.GET("/menu/items/:id", menuHandler.GetItem)
	authed.GET("/menu/daily/today", menuHandler.ListTodaysMenus)
	authed.GET("/menu/daily/today/:mealType", menuHandler.GetTodaysMenuByMealType)
	authed.GET("/menu/daily", menuHandler.ListMenusByDate)
	authed.GET("/menu/daily/range", menuHandler.ListMenusByRange)

	orderHandler := handlers.NewOrderHandler(db)
	authed.POST("/orders", orderHandler.Create)
	authed.GET("/orders/me", orderHandler.ListMine)
	authed.GET("/orders/:id", orderHandler.Get)
	authed.POST("/orders/:id/pay", orderHandler.Pay)
	authed.POST("/orders/:id/cancel", orderHandler.Cancel)

	admin := authed.Group("")
	admin.Use(adminOnly())

	admin.POST("/mess-passes", passHandler.Create)
	admin.GET("/mess-passes/by-email", passHandler.GetByEmail)
	admin.GET("/mess-passes/expired", passHandler.ListExpired)
	admin.POST("/mess-passes/:id/recharge", passHandler.Recharge)
	admin.POST("/mess-passes/:id/deduct", passHandler.Deduct)
	admin.POST("/mess-passes/:id/deactivate", passHandler.Deactivate)

	admin.GET("/payments/by-user", paymentHandler.ListByUserEmail)
	admin.GET("/payments/status/:status", paymentHandler.ListByStatus)
	admin.PUT("/payments/:id/status", paymentHandler.UpdateStatus)
	admin.GET("/payments/report", paymentHandler.Report)

	admin.POST("/menu/items", menuHandler.CreateItem)
	admin.PUT("/menu/items/:id", menuHandler.UpdateItem)
	admin.DELETE("/menu/items/:id", menuHandler.DeleteItem)
	admin.POST("/menu/daily", menuHandler.CreateDailyMenu)
	admin.PUT("/menu/daily/:id", menuHandler.UpdateDailyMenu)
	admin.DELETE("/menu/daily/:id", menuHandler.DeleteDailyMenu)

	admin.GET("/orders/status/:status", orderHandler.ListByStatus)
	admin.GET("/orders/today/:mealType", orderHandler.ListTodays)
	admin.PUT("/orders/:id/status", orderHandler.UpdateStatus)

	studentHandler := handlers.NewStudentHandler(db)
	admin.GET("/students/active", studentHandler.ListActive)
	admin.GET("/students/hostel/:hostel", studentHandler.ListByHostel)
	admin.GET("/students/search", studentHandler.Search)
	admin.GET("/students/count", studentHandler.Count)
	admin.GET("/students/roll/:rollNumber", studentHandler.GetByRollNumber)
}

// userAuthMiddleware validates session JWTs and loads the user into context.
func userAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseToken(jwtCfg.Secret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var user models.User
		if errFind := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account deactivated"})
			return
		}

		c.Set(handlers.ContextUserIDKey, user.ID)
		c.Set(handlers.ContextUserTypeKey, string(user.UserType))
		c.Next()
	}
}

// adminOnly rejects requests from non-admin accounts.
func adminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get(handlers.ContextUserTypeKey)
		if !ok || value != string(models.UserTypeAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
