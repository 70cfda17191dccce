package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/user-service/internal/models"
	"github.com/SAP-F-2025/user-service/internal/services"
	"github.com/SAP-F-2025/user-service/internal/utils"
)

// stubAuthService drives the handlers without the real service stack.
type stubAuthService struct {
	user *models.User
}

func (s *stubAuthService) SignUp(ctx context.Context, req services.SignUpRequest) (*services.Session, error) {
	if req.Email == "taken@example.com" {
		return nil, services.ErrEmailTaken
	}
	return &services.Session{User: s.user, Token: "session-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) SignIn(ctx context.Context, req services.SignInRequest) (*services.Session, error) {
	if req.Password != "password1" {
		return nil, services.ErrInvalidCredentials
	}
	return &services.Session{User: s.user, Token: "session-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token != "session-token" {
		return nil, services.ErrUnauthenticated
	}
	return s.user, nil
}

func (s *stubAuthService) ChangePassword(ctx context.Context, userID string, req services.ChangePasswordRequest) error {
	if req.OldPassword != "password1" {
		return services.ErrInvalidCredentials
	}
	return nil
}

type stubProfileService struct {
	user *models.User
}

func (s *stubProfileService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.user, nil
}

func (s *stubProfileService) Update(ctx context.Context, userID string, req services.UpdateProfileRequest, avatar *services.AvatarUpload) (*models.User, error) {
	return s.user, nil
}

func (s *stubProfileService) Delete(ctx context.Context, userID string) error {
	return nil
}

type stubResetService struct {
	requested []string
}

func (s *stubResetService) Request(ctx context.Context, email string) error {
	s.requested = append(s.requested, email)
	return nil
}

func (s *stubResetService) Redeem(ctx context.Context, token, newPassword string) error {
	if token != "valid-reset-token" {
		return services.ErrResetTokenInvalid
	}
	return nil
}

func newTestRouter(t *testing.T, auth services.AuthService, reset services.ResetService) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	authHandler := NewAuthHandler(auth, reset, CookieConfig{}, logger)
	profileHandler := NewProfileHandler(&stubProfileService{}, logger)
	authMiddleware := NewAuthMiddleware(auth)

	router := gin.New()
	user := router.Group("/api/v1/user")
	{
		user.POST("/signup", authHandler.SignUp)
		user.POST("/signin", authHandler.SignIn)
		user.POST("/forgot-password", authHandler.ForgotPassword)
		user.POST("/reset-password/:token", authHandler.ResetPassword)

		authed := user.Group("")
		authed.Use(authMiddleware.RequireAuth())
		{
			authed.GET("/me", authHandler.GetSession)
			authed.POST("/change-password", authHandler.ChangePassword)
			authed.DELETE("/account", profileHandler.DeleteAccount)
		}
	}

	admin := router.Group("/api/v1/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
	{
		admin.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })
	}

	return router
}

func stubUser(role models.UserRole) *models.User {
	return &models.User{ID: "user-1", Name: "Test User", Email: "test@example.com", Role: role}
}

func doJSON(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_SignUp(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	w := doJSON(router, http.MethodPost, "/api/v1/user/signup",
		`{"name":"Test User","email":"test@example.com","password":"password1"}`, nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", w.Code)
	}

	cookieSet := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookieName && cookie.Value != "" {
			cookieSet = true
			if !cookie.HttpOnly {
				t.Error("session cookie is not HttpOnly")
			}
		}
	}
	if !cookieSet {
		t.Error("signup did not set the session cookie")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if _, ok := body["user"]; !ok {
		t.Error("signup response has no user")
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("signup response leaks password material")
	}
}

func TestAuthHandler_SignUpEmailTaken(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	w := doJSON(router, http.MethodPost, "/api/v1/user/signup",
		`{"name":"Test User","email":"taken@example.com","password":"password1"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("signup status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "email_taken") {
		t.Errorf("signup body = %s, want email_taken code", w.Body.String())
	}
}

func TestAuthHandler_SignInWrongPassword(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	w := doJSON(router, http.MethodPost, "/api/v1/user/signin",
		`{"email":"test@example.com","password":"wrong-pass1"}`, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("signin status = %d, want 401", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_credentials") {
		t.Errorf("signin body = %s, want invalid_credentials code", w.Body.String())
	}
}

func TestAuthHandler_ForgotPasswordAlwaysSucceeds(t *testing.T) {
	reset := &stubResetService{}
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, reset)

	for _, email := range []string{"test@example.com", "unknown@example.com"} {
		w := doJSON(router, http.MethodPost, "/api/v1/user/forgot-password",
			`{"email":"`+email+`"}`, nil)
		if w.Code != http.StatusOK {
			t.Errorf("forgot-password for %s status = %d, want 200", email, w.Code)
		}
	}
}

func TestAuthHandler_ResetPasswordInvalidToken(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	w := doJSON(router, http.MethodPost, "/api/v1/user/reset-password/bogus-token",
		`{"password":"brand-new-pass1"}`, nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("reset-password status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_reset_token") {
		t.Errorf("reset-password body = %s, want invalid_reset_token code", w.Body.String())
	}
}

func TestRequireAuth(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	// No token at all.
	w := doJSON(router, http.MethodGet, "/api/v1/user/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me without token status = %d, want 401", w.Code)
	}

	// Bearer header works for non-browser clients.
	w = doJSON(router, http.MethodGet, "/api/v1/user/me", "", map[string]string{
		"Authorization": "Bearer session-token",
	})
	if w.Code != http.StatusOK {
		t.Errorf("me with bearer token status = %d, want 200", w.Code)
	}

	// Cookie is the primary transport.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "session-token"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("me with cookie status = %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role models.UserRole
		want int
	}{
		{"student is forbidden", models.RoleStudent, http.StatusForbidden},
		{"instructor is forbidden", models.RoleInstructor, http.StatusForbidden},
		{"admin is allowed", models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubAuthService{user: stubUser(tt.role)}, &stubResetService{})
			w := doJSON(router, http.MethodGet, "/api/v1/admin/users", "", map[string]string{
				"Authorization": "Bearer session-token",
			})
			if w.Code != tt.want {
				t.Errorf("admin route status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestDeleteAccountClearsSession(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	w := doJSON(router, http.MethodDelete, "/api/v1/user/account", "", map[string]string{
		"Authorization": "Bearer session-token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("delete account status = %d, want 200", w.Code)
	}

	cleared := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookieName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("account deletion did not clear the session cookie")
	}
}

func TestChangePasswordRequiresCurrentPassword(t *testing.T) {
	router := newTestRouter(t, &stubAuthService{user: stubUser(models.RoleStudent)}, &stubResetService{})

	headers := map[string]string{"Authorization": "Bearer session-token"}

	w := doJSON(router, http.MethodPost, "/api/v1/user/change-password",
		`{"old_password":"wrong-pass1","new_password":"new-password1"}`, headers)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("password change with wrong current status = %d, want 401", w.Code)
	}

	w = doJSON(router, http.MethodPost, "/api/v1/user/change-password",
		`{"old_password":"password1","new_password":"new-password1"}`, headers)
	if w.Code != http.StatusOK {
		t.Errorf("password change status = %d, want 200", w.Code)
	}
}
