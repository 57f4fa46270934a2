package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops-hk/itpm-service/internal/auth"
	"github.com/itops-hk/itpm-service/internal/model"
)

const testSecret = "test-secret-at-least-32-chars-long"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authRouter() *gin.Engine {
	router := gin.New()
	router.Use(Auth(auth.NewParser(testSecret)))
	router.GET("/ping", func(c *gin.Context) {
		principal, _ := MustPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"role": principal.Role})
	})
	return router
}

func TestAuth_MissingHeader(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidToken(t *testing.T) {
	router := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "Supervisor"))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Supervisor")
}

func actionRouter(principal model.Principal, action model.Action) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		SetPrincipal(c, principal)
		c.Next()
	})
	router.POST("/guarded", RequireAction(action), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestRequireAction(t *testing.T) {
	manager := model.Principal{UserID: uuid.New(), Role: model.RoleProjectManager}
	supervisor := model.Principal{UserID: uuid.New(), Role: model.RoleSupervisor}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	actionRouter(manager, model.ActionApproveProposal).ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "您沒有權限執行此操作")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/guarded", nil)
	actionRouter(supervisor, model.ActionApproveProposal).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAction_NoPrincipal(t *testing.T) {
	router := gin.New()
	router.POST("/guarded", RequireAction(model.ActionApproveProposal), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/guarded", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		role model.Role
		want int
	}{
		{model.RoleAdmin, http.StatusOK},
		{model.RoleSupervisor, http.StatusForbidden},
		{model.RoleProjectManager, http.StatusForbidden},
	}
	for _, tc := range cases {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			SetPrincipal(c, model.Principal{UserID: uuid.New(), Role: tc.role})
			c.Next()
		})
		router.DELETE("/admin-only", RequireAdmin(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/admin-only", nil)
		router.ServeHTTP(w, req)
		assert.Equalf(t, tc.want, w.Code, "role %s", tc.role)
	}
}
