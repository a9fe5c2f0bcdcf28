package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/menu"
	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/money"
)

// MenuHandler handles menu item and daily menu endpoints.
type MenuHandler struct {
	menus *menu.Service
}

// NewMenuHandler constructs a MenuHandler.
func NewMenuHandler(db *gorm.DB) *MenuHandler {
	return &MenuHandler{menus: menu.NewService(db)}
}

// menuItemDTO defines the menu item response payload.
type menuItemDTO struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        string `json:"price"`
	MealType     string `json:"meal_type"`
	Category     string `json:"category"`
	IsAvailable  bool   `json:"is_available"`
	IsVegetarian bool   `json:"is_vegetarian"`
	ImageURL     string `json:"image_url,omitempty"`
}

func toMenuItemDTO(item *models.MenuItem) menuItemDTO {
	return menuItemDTO{
		ID:           item.ID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        money.Format(item.PriceCents),
		MealType:     string(item.MealType),
		Category:     string(item.Category),
		IsAvailable:  item.IsAvailable,
		IsVegetarian: item.IsVegetarian,
		ImageURL:     item.ImageURL,
	}
}

func toMenuItemDTOs(items []models.MenuItem) []menuItemDTO {
	out := make([]menuItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toMenuItemDTO(&items[i]))
	}
	return out
}

// dailyMenuDTO defines the daily menu response payload.
type dailyMenuDTO struct {
	ID       uint64        `json:"id"`
	MenuDate string        `json:"menu_date"`
	MealType string        `json:"meal_type"`
	IsActive bool          `json:"is_active"`
	Items    []menuItemDTO `json:"items"`
}

func toDailyMenuDTO(dailyMenu *models.DailyMenu) dailyMenuDTO {
	return dailyMenuDTO{
		ID:       dailyMenu.ID,
		MenuDate: dailyMenu.MenuDate.Format(dateLayout),
		MealType: string(dailyMenu.MealType),
		IsActive: dailyMenu.IsActive,
		Items:    toMenuItemDTOs(dailyMenu.MenuItems),
	}
}

// menuItemRequest defines the request body for item create and update.
type menuItemRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        string `json:"price"`
	MealType     string `json:"meal_type"`
	Category     string `json:"category"`
	IsAvailable  *bool  `json:"is_available"`
	IsVegetarian *bool  `json:"is_vegetarian"`
	ImageURL     string `json:"image_url"`
}

// bindMenuItem validates a menu item body into a model, reporting errors itself.
func bindMenuItem(c *gin.Context) (*models.MenuItem, bool) {
	var body menuItemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return nil, false
	}
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return nil, false
	}
	priceCents, errPrice := money.Parse(body.Price)
	if errPrice != nil || priceCents < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return nil, false
	}
	mealType, errMeal := models.ParseMealType(body.MealType)
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal_type"})
		return nil, false
	}
	category, errCategory := models.ParseFoodCategory(body.Category)
	if errCategory != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return nil, false
	}

	item := models.MenuItem{
		Name:         strings.TrimSpace(body.Name),
		Description:  body.Description,
		PriceCents:   priceCents,
		MealType:     mealType,
		Category:     category,
		IsAvailable:  true,
		IsVegetarian: true,
		ImageURL:     body.ImageURL,
	}
	if body.IsAvailable != nil {
		item.IsAvailable = *body.IsAvailable
	}
	if body.IsVegetarian != nil {
		item.IsVegetarian = *body.IsVegetarian
	}
	return &item, true
}

// CreateItem adds a menu item to the catalog.
func (h *MenuHandler) CreateItem(c *gin.Context) {
	item, ok := bindMenuItem(c)
	if !ok {
		return
	}
	if errCreate := h.menus.CreateItem(c.Request.Context(), item); errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toMenuItemDTO(item))
}

// ListItems returns the full catalog.
func (h *MenuHandler) ListItems(c *gin.Context) {
	items, errList := h.menus.ListItems(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMenuItemDTOs(items)})
}

// GetItem returns one menu item.
func (h *MenuHandler) GetItem(c *gin.Context) {
	itemID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	item, errGet := h.menus.GetItem(c.Request.Context(), itemID)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toMenuItemDTO(item))
}

// ListByMealType returns available items for one meal slot.
func (h *MenuHandler) ListByMealType(c *gin.Context) {
	mealType, errMeal := models.ParseMealType(c.Param("mealType"))
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal type"})
		return
	}
	items, errList := h.menus.ListAvailableByMealType(c.Request.Context(), mealType)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMenuItemDTOs(items)})
}

// ListByCategory returns available items in one category.
func (h *MenuHandler) ListByCategory(c *gin.Context) {
	category, errCategory := models.ParseFoodCategory(c.Param("category"))
	if errCategory != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}
	items, errList := h.menus.ListAvailableByCategory(c.Request.Context(), category)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMenuItemDTOs(items)})
}

// ListVegetarian returns available vegetarian items.
func (h *MenuHandler) ListVegetarian(c *gin.Context) {
	items, errList := h.menus.ListVegetarian(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMenuItemDTOs(items)})
}

// SearchItems returns items whose name contains the query, case-insensitively.
func (h *MenuHandler) SearchItems(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	items, errSearch := h.menus.SearchItems(c.Request.Context(), name)
	if errSearch != nil {
		respondError(c, errSearch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toMenuItemDTOs(items)})
}

// UpdateItem replaces a menu item's editable fields.
func (h *MenuHandler) UpdateItem(c *gin.Context) {
	itemID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	item, ok := bindMenuItem(c)
	if !ok {
		return
	}
	item.ID = itemID
	if errUpdate := h.menus.UpdateItem(c.Request.Context(), item); errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, toMenuItemDTO(item))
}

// DeleteItem removes a menu item from the catalog.
func (h *MenuHandler) DeleteItem(c *gin.Context) {
	itemID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	if errDelete := h.menus.DeleteItem(c.Request.Context(), itemID); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "menu item deleted"})
}

// dailyMenuRequest defines the request body for daily menu create and update.
type dailyMenuRequest struct {
	MenuDate string   `json:"menu_date"`
	MealType string   `json:"meal_type"`
	ItemIDs  []uint64 `json:"item_ids"`
	IsActive *bool    `json:"is_active"`
}

// CreateDailyMenu publishes a menu for one date and meal slot.
func (h *MenuHandler) CreateDailyMenu(c *gin.Context) {
	var body dailyMenuRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	menuDate, errDate := time.Parse(dateLayout, strings.TrimSpace(body.MenuDate))
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu_date, expected YYYY-MM-DD"})
		return
	}
	mealType, errMeal := models.ParseMealType(body.MealType)
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal_type"})
		return
	}
	if len(body.ItemIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_ids is required"})
		return
	}

	items := make([]models.MenuItem, 0, len(body.ItemIDs))
	for _, id := range body.ItemIDs {
		item, errGet := h.menus.GetItem(c.Request.Context(), id)
		if errGet != nil {
			respondError(c, errGet)
			return
		}
		items = append(items, *item)
	}

	dailyMenu := models.DailyMenu{
		MenuDate:  menuDate,
		MealType:  mealType,
		MenuItems: items,
		IsActive:  true,
	}
	if body.IsActive != nil {
		dailyMenu.IsActive = *body.IsActive
	}

	if errCreate := h.menus.CreateDailyMenu(c.Request.Context(), &dailyMenu); errCreate != nil {
		respondError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, toDailyMenuDTO(&dailyMenu))
}

// ListTodaysMenus returns all menus published for today.
func (h *MenuHandler) ListTodaysMenus(c *gin.Context) {
	menus, errList := h.menus.ListByDate(c.Request.Context(), time.Now().UTC())
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]dailyMenuDTO, 0, len(menus))
	for i := range menus {
		out = append(out, toDailyMenuDTO(&menus[i]))
	}
	c.JSON(http.StatusOK, gin.H{"menus": out})
}

// GetTodaysMenuByMealType returns today's menu for one meal slot.
func (h *MenuHandler) GetTodaysMenuByMealType(c *gin.Context) {
	mealType, errMeal := models.ParseMealType(c.Param("mealType"))
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal type"})
		return
	}
	found, errGet := h.menus.GetByDateAndMealType(c.Request.Context(), time.Now().UTC(), mealType)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toDailyMenuDTO(found))
}

// ListMenusByDate returns menus for a specific date.
func (h *MenuHandler) ListMenusByDate(c *gin.Context) {
	date, errDate := time.Parse(dateLayout, strings.TrimSpace(c.Query("date")))
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}
	menus, errList := h.menus.ListByDate(c.Request.Context(), date)
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]dailyMenuDTO, 0, len(menus))
	for i := range menus {
		out = append(out, toDailyMenuDTO(&menus[i]))
	}
	c.JSON(http.StatusOK, gin.H{"menus": out})
}

// ListMenusByRange returns menus within an inclusive date range.
func (h *MenuHandler) ListMenusByRange(c *gin.Context) {
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
	menus, errList := h.menus.ListByRange(c.Request.Context(), start, end)
	if errList != nil {
		respondError(c, errList)
		return
	}
	out := make([]dailyMenuDTO, 0, len(menus))
	for i := range menus {
		out = append(out, toDailyMenuDTO(&menus[i]))
	}
	c.JSON(http.StatusOK, gin.H{"menus": out})
}

// UpdateDailyMenu replaces a daily menu's date, slot and item set.
func (h *MenuHandler) UpdateDailyMenu(c *gin.Context) {
	menuID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}

	var body dailyMenuRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	menuDate, errDate := time.Parse(dateLayout, strings.TrimSpace(body.MenuDate))
	if errDate != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid menu_date, expected YYYY-MM-DD"})
		return
	}
	mealType, errMeal := models.ParseMealType(body.MealType)
	if errMeal != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal_type"})
		return
	}

	items := make([]models.MenuItem, 0, len(body.ItemIDs))
	for _, id := range body.ItemIDs {
		item, errGet := h.menus.GetItem(c.Request.Context(), id)
		if errGet != nil {
			respondError(c, errGet)
			return
		}
		items = append(items, *item)
	}

	dailyMenu := models.DailyMenu{
		ID:        menuID,
		MenuDate:  menuDate,
		MealType:  mealType,
		MenuItems: items,
		IsActive:  true,
	}
	if body.IsActive != nil {
		dailyMenu.IsActive = *body.IsActive
	}

	if errUpdate := h.menus.UpdateDailyMenu(c.Request.Context(), &dailyMenu); errUpdate != nil {
		respondError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, toDailyMenuDTO(&dailyMenu))
}

// DeleteDailyMenu removes a published daily menu.
func (h *MenuHandler) DeleteDailyMenu(c *gin.Context) {
	menuID, errID := parseIDParam(c, "id")
	if errID != nil {
		return
	}
	if errDelete := h.menus.DeleteDailyMenu(c.Request.Context(), menuID); errDelete != nil {
		respondError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "daily menu deleted"})
}
