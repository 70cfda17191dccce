package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/user-service/internal/services"
	"github.com/SAP-F-2025/user-service/internal/utils"
)

type ProfileHandler struct {
	BaseHandler
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService, logger utils.Logger) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:    NewBaseHandler(logger),
		profileService: profileService,
	}
}

// GetProfile returns the authenticated account's profile
// @Summary Get own profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthenticated"
// @Router /user/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
			Code:    "unauthenticated",
		})
		return
	}

	user, err := h.profileService.Get(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates profile fields and optionally the avatar. Bound from
// multipart form because of the file part; plain form posts without a file
// work the same way.
// @Summary Update own profile
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param name formData string false "Display name"
// @Param email formData string false "Email address"
// @Param bio formData string false "Short bio"
// @Param avatar formData file false "Avatar image (jpeg, png or webp)"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse "Validation failed or email taken"
// @Router /user/update-profile [patch]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
			Code:    "unauthenticated",
		})
		return
	}

	h.LogRequest(c, "Updating profile", "user_id", userID)

	var req services.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	var avatar *services.AvatarUpload
	if fileHeader, err := c.FormFile("avatar"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			h.LogError(c, err, "Failed to open avatar upload")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_failed",
				Message: "Could not read avatar file",
				Code:    "validation_failed",
			})
			return
		}
		defer file.Close()

		avatar = &services.AvatarUpload{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Size:        fileHeader.Size,
			Reader:      file,
		}
	}

	user, err := h.profileService.Update(c.Request.Context(), userID, req, avatar)
	if err != nil {
		h.handleServiceError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteAccount removes the authenticated account and clears the session
// cookie.
// @Summary Delete own account
// @Tags profile
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse "Unauthenticated"
// @Router /user/account [delete]
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
			Code:    "unauthenticated",
		})
		return
	}

	h.LogRequest(c, "Deleting account", "user_id", userID)

	if err := h.profileService.Delete(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err, "Failed to delete account")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Account deleted"})
}
