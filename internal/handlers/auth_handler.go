package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/services"
	"github.com/SAP-F-2025/user-service/internal/utils"
)

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	BaseHandler
	authService  services.AuthService
	resetService services.ResetService
	cookies      CookieConfig
}

func NewAuthHandler(authService services.AuthService, resetService services.ResetService, cookies CookieConfig, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  NewBaseHandler(logger),
		authService:  authService,
		resetService: resetService,
		cookies:      cookies,
	}
}

// SignUp registers a new account and opens a session
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.SignUpRequest true "Registration payload"
// @Success 201 {object} models.SessionResponse
// @Failure 400 {object} ErrorResponse "Validation failed or email taken"
// @Router /user/signup [post]
func (h *AuthHandler) SignUp(c *gin.Context) {
	h.LogRequest(c, "Signing up new account")

	var req services.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	session, err := h.authService.SignUp(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to sign up")
		return
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	c.JSON(http.StatusCreated, models.SessionResponse{
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignIn authenticates an account and opens a session
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.SignInRequest true "Credentials"
// @Success 200 {object} models.SessionResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Router /user/signin [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	h.LogRequest(c, "Signing in")

	var req services.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	session, err := h.authService.SignIn(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err, "Failed to sign in")
		return
	}

	h.setSessionCookie(c, session.Token, session.ExpiresAt)
	c.JSON(http.StatusOK, models.SessionResponse{
		User:      session.User,
		ExpiresAt: session.ExpiresAt,
	})
}

// SignOut clears the session cookie. Tokens are stateless, so a copy kept by
// the client stays valid until expiry.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /user/signout [get]
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.LogRequest(c, "Signing out")

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Signed out"})
}

// GetSession returns the authenticated account
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthenticated"
// @Router /user/me [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
			Code:    "unauthenticated",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ChangePassword rotates the password for the authenticated account
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse "Wrong current password"
// @Router /user/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
			Code:    "unauthenticated",
		})
		return
	}

	h.LogRequest(c, "Changing password", "user_id", userID)

	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		h.handleServiceError(c, err, "Failed to change password")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password changed"})
}

// ForgotPassword starts the reset flow. The response does not reveal whether
// the address is registered.
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.ForgotPasswordRequest true "Account email"
// @Success 200 {object} SuccessResponse
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Router /user/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	h.LogRequest(c, "Requesting password reset")

	var req services.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	if err := h.resetService.Request(c.Request.Context(), req.Email); err != nil {
		h.handleServiceError(c, err, "Failed to request password reset")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "If that email is registered, a reset link has been sent",
	})
}

// ResetPassword redeems a reset token and sets a new password
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token from the email"
// @Param request body validator.ResetPasswordRequest true "New password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse "Invalid or expired token"
// @Router /user/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	h.LogRequest(c, "Resetting password")

	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_failed",
			Message: "Invalid request body",
			Code:    "validation_failed",
		})
		return
	}

	if err := h.resetService.Redeem(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		h.handleServiceError(c, err, "Failed to reset password")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password has been reset"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, maxAge, "/", h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
}
