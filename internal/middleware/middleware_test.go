package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/pkg/apperrors"
	"github.com/yigit/exchangeintake/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestHandleAPIError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrApplicationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{fmt.Errorf("wrapped: %w", apperrors.ErrDraftNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{fmt.Errorf("%w: name", apperrors.ErrValidationFailed), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewBadRequestError("Draft ID required"), http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{apperrors.NewForbiddenError("nope"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests},
		{apperrors.ErrUpstreamUnavailable, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
		{errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleAPIError(c, tc.err)

		if w.Code != tc.status {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.status, w.Code)
		}
		if resp := decodeError(t, w); resp.Error == nil || resp.Error.Code != tc.code {
			t.Errorf("%v: expected code %s, got %+v", tc.err, tc.code, resp.Error)
		}
	}
}

func TestBadRequestKeepsCustomMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, apperrors.NewBadRequestError("Draft ID required"))

	if resp := decodeError(t, w); resp.Error.Message != "Draft ID required" {
		t.Errorf("Expected custom message, got %q", resp.Error.Message)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	expected := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "camera=(), microphone=(), geolocation=()",
	}
	for header, want := range expected {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
	if !strings.Contains(w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'") {
		t.Errorf("Unexpected CSP %q", w.Header().Get("Content-Security-Policy"))
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(RateLimitRule{Name: "login", Max: 2, Window: time.Minute, Headers: true, Message: "slow down"})
	limiter.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("10.0.0.1"); w.Code != http.StatusOK || w.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("First request: expected 200 with 1 remaining, got %d %q", w.Code, w.Header().Get("X-RateLimit-Remaining"))
	}
	do("10.0.0.1")

	w := do("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "30" {
		t.Errorf("Expected Retry-After 30, got %q", w.Header().Get("Retry-After"))
	}
	resp := decodeError(t, w)
	if resp.Error.Message != "slow down" {
		t.Errorf("Expected rule message, got %q", resp.Error.Message)
	}
	if details, ok := resp.Error.Details.(map[string]interface{}); !ok || details["retryAfter"] != float64(30) {
		t.Errorf("Expected retryAfter detail, got %#v", resp.Error.Details)
	}

	if w := do("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("Expected other client to be unaffected, got %d", w.Code)
	}

	now = now.Add(31 * time.Second)
	if w := do("10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("Expected request after refill to pass, got %d", w.Code)
	}
}

func TestRateLimiterWithoutHeaders(t *testing.T) {
	limiter := NewRateLimiter(DraftRateLimit)
	r := gin.New()
	r.POST("/draft", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/draft", nil))
	if w.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("Expected no rate limit headers on draft route")
	}
}

func TestAdminAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", TokenIssuer: "test"})
	token, _, err := jwtService.GenerateSessionToken("office@example.edu")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/admin", NewAuthMiddleware(jwtService).AdminAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, AdminEmail(c))
	})

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookieName, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "a.b.c"}) }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		tc.setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, w.Code)
		}
		if tc.status == http.StatusOK && w.Body.String() != "office@example.edu" {
			t.Errorf("%s: expected admin email in context, got %q", tc.name, w.Body.String())
		}
	}
}

type bindTarget struct {
	StudentCGPA string `json:"studentCGPA" binding:"required,cgpa"`
	Code        string `json:"code" binding:"required,coursecode"`
}

func TestBindJSONReportsJSONFieldNames(t *testing.T) {
	if err := RegisterValidators(); err != nil {
		t.Fatalf("Expected validators to register, got %v", err)
	}

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var body bindTarget
		if !BindJSON(c, &body) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"studentCGPA":"4.5","code":"CS101"}`)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Error.Code != dto.ErrorCodeValidationFailed || resp.Error.Field != "studentCGPA" {
		t.Errorf("Expected studentCGPA validation error, got %+v", resp.Error)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`)))
	if resp := decodeError(t, w); resp.Error.Code != dto.ErrorCodeBadRequest {
		t.Errorf("Expected bad request for malformed body, got %+v", resp.Error)
	}
}
