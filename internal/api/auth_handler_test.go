package api

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devfolio/internal/auth"
	"devfolio/internal/database"
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

	svc, err := auth.NewAuthService(privatePEM, publicPEM, 15*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

// 连不上的 Redis 客户端：限流与锁定检查失败时登录流程放行。
func newUnreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
}

func newTestAuthHandler(t *testing.T, db *gorm.DB) *AuthHandler {
	t.Helper()
	return NewAuthHandler(db, newTestAuthService(t), newUnreachableRedis(t), nil, 10, 5, 15*time.Minute, "")
}

func TestRegisterAndEmailConflict(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)

	body := map[string]any{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "correct-horse-battery",
	}

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/register", body, "")
	h.Register(c)
	requireStatus(t, w, http.StatusCreated)
	if decodeData(t, w)["email"] != "ada@example.com" {
		t.Fatalf("email should be normalized to lowercase: %s", w.Body.String())
	}

	c, w = newTestContext(t, http.MethodPost, "/api/v1/auth/register", body, "")
	h.Register(c)
	requireStatus(t, w, http.StatusConflict)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)

	cases := []map[string]any{
		{"email": "a@example.com", "password": "correct-horse-battery"},
		{"name": "Ada", "email": "not-an-email", "password": "correct-horse-battery"},
		{"name": "Ada", "email": "a@example.com", "password": "short"},
	}
	for _, body := range cases {
		c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/register", body, "")
		h.Register(c)
		requireStatus(t, w, http.StatusBadRequest)
	}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)
	user := seedUser(t, db, "owner@example.com")

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "owner@example.com",
		"password": "correct-horse-battery",
	}, "")
	h.Login(c)
	requireStatus(t, w, http.StatusOK)

	data := decodeData(t, w)
	accessToken, _ := data["access_token"].(string)
	if accessToken == "" {
		t.Fatalf("login response missing access token: %s", w.Body.String())
	}
	if data["token_type"] != "Bearer" {
		t.Fatalf("unexpected token type: %v", data["token_type"])
	}

	claims, err := h.authService.ValidateToken(accessToken)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != user.ID || claims.TokenType != "access" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// 刷新令牌落在 HttpOnly Cookie 里。
	cookies := w.Result().Cookies()
	found := false
	for _, cookie := range cookies {
		if cookie.Name == refreshTokenCookieName {
			found = true
			if !cookie.HttpOnly {
				t.Fatal("refresh cookie must be HttpOnly")
			}
		}
	}
	if !found {
		t.Fatal("login must set the refresh token cookie")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)
	seedUser(t, db, "owner@example.com")

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "owner@example.com",
		"password": "wrong-password",
	}, "")
	h.Login(c)
	requireStatus(t, w, http.StatusUnauthorized)

	c, w = newTestContext(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email":    "ghost@example.com",
		"password": "correct-horse-battery",
	}, "")
	h.Login(c)
	requireStatus(t, w, http.StatusUnauthorized)
}

func TestChangePasswordClearsMustChangeFlag(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)

	hashed, err := auth.HashPassword("initial-password-123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := database.User{
		Name:               "owner",
		Email:              "owner@example.com",
		PasswordHash:       hashed,
		MustChangePassword: true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/change-password", map[string]any{
		"current_password": "initial-password-123",
		"new_password":     "brand-new-password-456",
		"confirm_password": "brand-new-password-456",
	}, user.ID)
	h.ChangePassword(c)
	requireStatus(t, w, http.StatusOK)
	if data := decodeData(t, w); data["must_change_password"] != false {
		t.Fatalf("response should clear the flag: %s", w.Body.String())
	}

	var reloaded database.User
	if err := db.First(&reloaded, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.MustChangePassword {
		t.Fatal("must_change_password should be cleared in the database")
	}
	if !auth.CheckPasswordHash("brand-new-password-456", reloaded.PasswordHash) {
		t.Fatal("new password should verify against the stored hash")
	}
}

func TestChangePasswordRejectsMismatchAndReuse(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)
	user := seedUser(t, db, "owner@example.com")

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/change-password", map[string]any{
		"current_password": "correct-horse-battery",
		"new_password":     "brand-new-password-456",
		"confirm_password": "something-else-entirely",
	}, user.ID)
	h.ChangePassword(c)
	requireStatus(t, w, http.StatusBadRequest)

	c, w = newTestContext(t, http.MethodPost, "/api/v1/auth/change-password", map[string]any{
		"current_password": "correct-horse-battery",
		"new_password":     "correct-horse-battery",
		"confirm_password": "correct-horse-battery",
	}, user.ID)
	h.ChangePassword(c)
	requireStatus(t, w, http.StatusBadRequest)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	db := newTestDB(t)
	h := newTestAuthHandler(t, db)
	user := seedUser(t, db, "owner@example.com")

	pair, err := h.authService.GenerateTokenPair(user.ID, false)
	if err != nil {
		t.Fatalf("generate token pair: %v", err)
	}

	// 用访问令牌冒充刷新令牌必须被拒绝。
	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refresh_token": pair.AccessToken,
	}, "")
	h.Refresh(c)
	requireStatus(t, w, http.StatusUnauthorized)
}
