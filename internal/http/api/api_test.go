package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/config"
	dbpkg "github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/security"
)

var testJWTConfig = config.JWTConfig{Secret: "test-secret", Expiry: time.Hour}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := dbpkg.Open(":memory:")
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate database: %v", errMigrate)
	}

	engine := gin.New()
	RegisterRoutes(engine, conn, testJWTConfig)
	return engine, conn
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &out); errDecode != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), errDecode)
	}
	return out
}

func signupStudent(t *testing.T, engine *gin.Engine, email, roll string) string {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":        "Test Student",
		"email":       email,
		"password":    "secret123",
		"roll_number": roll,
		"hostel":      "North",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("signup returned no token")
	}
	return token
}

func createAdmin(t *testing.T, conn *gorm.DB) string {
	t.Helper()
	hash, errHash := security.HashPassword("admin-secret")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	admin := models.User{
		Name:       "Mess Admin",
		Email:      "admin@campus.edu",
		Password:   hash,
		UserType:   models.UserTypeAdmin,
		RollNumber: "ADMIN001",
		IsActive:   true,
	}
	if errCreate := conn.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	token, errToken := security.GenerateToken(testJWTConfig.Secret, admin.ID, admin.Email, admin.Name, string(admin.UserType), testJWTConfig.Expiry)
	if errToken != nil {
		t.Fatalf("generate admin token: %v", errToken)
	}
	return token
}

func issuePass(t *testing.T, engine *gin.Engine, adminToken, userEmail string) uint64 {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/mess-passes", adminToken, gin.H{
		"user_email":  userEmail,
		"pass_type":   "MONTHLY",
		"valid_from":  "2026-08-01",
		"valid_until": "2026-08-31",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create pass returned %d: %s", rec.Code, rec.Body.String())
	}
	id, _ := decodeBody(t, rec)["id"].(float64)
	if id == 0 {
		t.Fatalf("create pass returned no id")
	}
	return uint64(id)
}

func TestSignupAndLogin(t *testing.T) {
	engine, _ := setupRouter(t)

	token := signupStudent(t, engine, "alice@campus.edu", "21CS001")

	rec := doJSON(t, engine, http.MethodGet, "/api/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile returned %d: %s", rec.Code, rec.Body.String())
	}
	profile := decodeBody(t, rec)
	if profile["email"] != "alice@campus.edu" {
		t.Fatalf("unexpected profile email: %v", profile["email"])
	}
	if profile["user_type"] != "STUDENT" {
		t.Fatalf("expected STUDENT fallback, got %v", profile["user_type"])
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":        "Other",
		"email":       "alice@campus.edu",
		"password":    "secret123",
		"roll_number": "21CS099",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email signup returned %d, want 409", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@campus.edu",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login returned %d, want 401", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "Alice@Campus.Edu",
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSignupRejectsUnknownUserType(t *testing.T) {
	engine, _ := setupRouter(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name":        "Mallory",
		"email":       "mallory@campus.edu",
		"password":    "secret123",
		"roll_number": "21CS042",
		"user_type":   "SUPERUSER",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown user_type returned %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	engine, _ := setupRouter(t)

	rec := doJSON(t, engine, http.MethodGet, "/api/mess-passes/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d, want 401", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/mess-passes/me", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d, want 401", rec.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	engine, _ := setupRouter(t)
	studentToken := signupStudent(t, engine, "bob@campus.edu", "21CS002")

	rec := doJSON(t, engine, http.MethodGet, "/api/students/active", studentToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student on admin route returned %d, want 403", rec.Code)
	}
}

func TestMessPassLifecycle(t *testing.T) {
	engine, conn := setupRouter(t)
	adminToken := createAdmin(t, conn)
	studentToken := signupStudent(t, engine, "carol@campus.edu", "21CS003")

	passID := issuePass(t, engine, adminToken, "carol@campus.edu")

	// Second active pass for the same user conflicts.
	rec := doJSON(t, engine, http.MethodPost, "/api/mess-passes", adminToken, gin.H{
		"user_email":  "carol@campus.edu",
		"pass_type":   "MONTHLY",
		"valid_from":  "2026-09-01",
		"valid_until": "2026-09-30",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second pass returned %d, want 409", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/payments/recharge", studentToken, gin.H{"amount": "100.00"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("recharge returned %d: %s", rec.Code, rec.Body.String())
	}
	recharge := decodeBody(t, rec)
	if recharge["status"] != "COMPLETED" {
		t.Fatalf("recharge payment status %v, want COMPLETED", recharge["status"])
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/mess-passes/me", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get pass returned %d: %s", rec.Code, rec.Body.String())
	}
	if balance := decodeBody(t, rec)["balance"]; balance != "100.00" {
		t.Fatalf("balance %v, want 100.00", balance)
	}

	path := fmt.Sprintf("/api/mess-passes/%d/deduct", passID)
	rec = doJSON(t, engine, http.MethodPost, path, adminToken, gin.H{"amount": "30.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deduct returned %d: %s", rec.Code, rec.Body.String())
	}
	if balance := decodeBody(t, rec)["balance"]; balance != "70.00" {
		t.Fatalf("balance after deduct %v, want 70.00", balance)
	}

	rec = doJSON(t, engine, http.MethodPost, path, adminToken, gin.H{"amount": "100.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("overdraft returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, path, adminToken, gin.H{"amount": "-5.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative amount returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/mess-passes/%d/deactivate", passID), adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/payments/recharge", studentToken, gin.H{"amount": "10.00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("recharge on inactive pass returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/mess-passes/999/deactivate", adminToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deactivate missing pass returned %d, want 404", rec.Code)
	}
}

func TestOrderFlow(t *testing.T) {
	engine, conn := setupRouter(t)
	adminToken := createAdmin(t, conn)
	studentToken := signupStudent(t, engine, "dave@campus.edu", "21CS004")
	issuePass(t, engine, adminToken, "dave@campus.edu")

	rec := doJSON(t, engine, http.MethodPost, "/api/menu/items", adminToken, gin.H{
		"name":      "Thali",
		"price":     "45.00",
		"meal_type": "LUNCH",
		"category":  "MAIN_COURSE",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item returned %d: %s", rec.Code, rec.Body.String())
	}
	itemID := uint64(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, engine, http.MethodPost, "/api/payments/recharge", studentToken, gin.H{"amount": "100.00"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("recharge returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/api/orders", studentToken, gin.H{
		"meal_type": "LUNCH",
		"item_ids":  []uint64{itemID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order returned %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)
	if created["total_amount"] != "45.00" {
		t.Fatalf("order total %v, want 45.00", created["total_amount"])
	}
	orderID := uint64(created["id"].(float64))

	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/orders/%d/pay", orderID), studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay order returned %d: %s", rec.Code, rec.Body.String())
	}
	if status := decodeBody(t, rec)["status"]; status != "CONFIRMED" {
		t.Fatalf("order status %v, want CONFIRMED", status)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/mess-passes/me", studentToken, nil)
	if balance := decodeBody(t, rec)["balance"]; balance != "55.00" {
		t.Fatalf("balance after meal %v, want 55.00", balance)
	}

	// Paying twice is rejected.
	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/orders/%d/pay", orderID), studentToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double pay returned %d, want 400", rec.Code)
	}

	// Another student cannot pay or cancel someone else's order.
	otherToken := signupStudent(t, engine, "eve@campus.edu", "21CS005")
	rec = doJSON(t, engine, http.MethodPost, fmt.Sprintf("/api/orders/%d/cancel", orderID), otherToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign cancel returned %d, want 403", rec.Code)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/payments/me", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list payments returned %d: %s", rec.Code, rec.Body.String())
	}
	payments, _ := decodeBody(t, rec)["payments"].([]any)
	if len(payments) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(payments))
	}
}
