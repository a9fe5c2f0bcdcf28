package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/messmate/messmate/internal/models"
	"github.com/messmate/messmate/internal/users"
)

// StudentHandler handles roster endpoints for operators.
type StudentHandler struct {
	users *users.Service
}

// NewStudentHandler constructs a StudentHandler.
func NewStudentHandler(db *gorm.DB) *StudentHandler {
	return &StudentHandler{users: users.NewService(db)}
}

func toUserDTOs(accounts []models.User) []userDTO {
	out := make([]userDTO, 0, len(accounts))
	for i := range accounts {
		out = append(out, toUserDTO(&accounts[i]))
	}
	return out
}

// ListActive returns all active students ordered by roll number.
func (h *StudentHandler) ListActive(c *gin.Context) {
	students, errList := h.users.ListActiveStudents(c.Request.Context())
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": toUserDTOs(students)})
}

// ListByHostel returns active students living in one hostel.
func (h *StudentHandler) ListByHostel(c *gin.Context) {
	hostel := strings.TrimSpace(c.Param("hostel"))
	if hostel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hostel is required"})
		return
	}
	students, errList := h.users.ListStudentsByHostel(c.Request.Context(), hostel)
	if errList != nil {
		respondError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": toUserDTOs(students)})
}

// Search returns students whose name contains the query, case-insensitively.
func (h *StudentHandler) Search(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	students, errSearch := h.users.SearchStudentsByName(c.Request.Context(), name)
	if errSearch != nil {
		respondError(c, errSearch)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": toUserDTOs(students)})
}

// GetByRollNumber returns the student registered under the roll number.
func (h *StudentHandler) GetByRollNumber(c *gin.Context) {
	rollNumber := strings.TrimSpace(c.Param("rollNumber"))
	student, errGet := h.users.GetByRollNumber(c.Request.Context(), rollNumber)
	if errGet != nil {
		respondError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, toUserDTO(student))
}

// Count returns the number of active students.
func (h *StudentHandler) Count(c *gin.Context) {
	count, errCount := h.users.CountActiveStudents(c.Request.Context())
	if errCount != nil {
		respondError(c, errCount)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
