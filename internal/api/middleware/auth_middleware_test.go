package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/auth"
)

func newTestAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})
	svc, err := auth.NewAuthService(privatePEM, publicPEM, 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func runProtected(t *testing.T, handler gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var gotUserID string
	router := gin.New()
	router.GET("/protected", handler, func(c *gin.Context) {
		gotUserID, _ = UserID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, gotUserID
}

func TestRequireAuth(t *testing.T) {
	svc := newTestAuthService(t)
	pair, err := svc.GenerateTokenPair("user-123", false)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}

	w, userID := runProtected(t, RequireAuth(svc), "Bearer "+pair.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("valid access token should pass, got %d", w.Code)
	}
	if userID != "user-123" {
		t.Fatalf("user id not injected, got %q", userID)
	}

	// 刷新令牌不能当访问令牌用。
	w, _ = runProtected(t, RequireAuth(svc), "Bearer "+pair.RefreshToken)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh token must be rejected, got %d", w.Code)
	}

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		w, _ = runProtected(t, RequireAuth(svc), header)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q must be rejected, got %d", header, w.Code)
		}
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	svc := newTestAuthService(t)

	w, userID := runProtected(t, OptionalAuth(svc), "")
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request should pass, got %d", w.Code)
	}
	if userID != "" {
		t.Fatalf("anonymous request must not carry a user id, got %q", userID)
	}

	// 无效令牌退化为匿名而不是 401。
	w, userID = runProtected(t, OptionalAuth(svc), "Bearer garbage")
	if w.Code != http.StatusOK || userID != "" {
		t.Fatalf("invalid token should degrade to anonymous: code=%d userID=%q", w.Code, userID)
	}

	pair, err := svc.GenerateTokenPair("user-123", false)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}
	w, userID = runProtected(t, OptionalAuth(svc), "Bearer "+pair.AccessToken)
	if w.Code != http.StatusOK || userID != "user-123" {
		t.Fatalf("valid token should authenticate: code=%d userID=%q", w.Code, userID)
	}
}

func TestRequirePasswordChangeCompleted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/write", func(c *gin.Context) {
		c.Set("mustChangePassword", true)
	}, RequirePasswordChangeCompleted(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/write", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("pending password change must block writes, got %d", w.Code)
	}
}
