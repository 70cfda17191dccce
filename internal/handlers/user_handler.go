package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/user-service/internal/services"
	"github.com/SAP-F-2025/user-service/internal/utils"
)

// UserHandler serves the administrative roster surface.
type UserHandler struct {
	BaseHandler
	adminService services.UserAdminService
}

func NewUserHandler(adminService services.UserAdminService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
	}
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Description Get a paginated list of users
// @Tags admin
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, instructor, admin)"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid query parameters",
			Code:    "validation_failed",
		})
		return
	}

	response, err := h.adminService.List(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, response)
}

// SearchUsers searches for users by name or email
// @Summary Search users
// @Tags admin
// @Produce json
// @Param q query string true "Search query"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param role query string false "Filter by role (student, instructor, admin)"
// @Success 200 {object} services.UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /admin/users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Search query parameter 'q' is required",
			Code:    "validation_failed",
		})
		return
	}

	h.LogRequest(c, "Searching users", "query", query)

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid query parameters",
			Code:    "validation_failed",
		})
		return
	}
	req.Query = query

	response, err := h.adminService.List(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to search users")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "User ID is required",
			Code:    "validation_failed",
		})
		return
	}

	h.LogRequest(c, "Getting user", "user_id", userID)

	user, err := h.adminService.Get(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserEvents lists the credential audit trail for a user
// @Summary List auth events for a user
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max events (default: 50)"
// @Success 200 {array} models.AuthEvent
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /admin/users/{id}/events [get]
func (h *UserHandler) GetUserEvents(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "User ID is required",
			Code:    "validation_failed",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}

	h.LogRequest(c, "Listing auth events", "user_id", userID)

	events, err := h.adminService.Events(c.Request.Context(), userID, limit)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list auth events")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ExportUsers streams the roster as an xlsx workbook
// @Summary Export user roster
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (student, instructor, admin)"
// @Success 200 {file} binary "xlsx workbook"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /admin/users/export [get]
func (h *UserHandler) ExportUsers(c *gin.Context) {
	h.LogRequest(c, "Exporting user roster")

	var req services.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid query parameters",
			Code:    "validation_failed",
		})
		return
	}

	filename := fmt.Sprintf("users-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.adminService.ExportRoster(c.Request.Context(), c.Writer, req); err != nil {
		// Headers may already be out; log rather than write a second body.
		h.LogError(c, err, "Failed to export user roster")
	}
}
