package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := newTestIssuer(t)

	valid, err := issuer.AccessToken(Principal{UserID: 7, Email: "c@example.com", Role: RoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
	}{
		{"No token", nil, http.StatusUnauthorized},
		{"Invalid format", map[string]string{"Authorization": "Token abc"}, http.StatusUnauthorized},
		{"Empty bearer", map[string]string{"Authorization": "Bearer "}, http.StatusUnauthorized},
		{"Garbage token", map[string]string{TokenHeader: "garbage"}, http.StatusUnauthorized},
		{"x-auth-token", map[string]string{TokenHeader: valid}, http.StatusOK},
		{"Bearer fallback", map[string]string{"Authorization": "Bearer " + valid}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", AuthMiddleware(issuer), func(c *gin.Context) {
				p, ok := GetPrincipal(c)
				require.True(t, ok)
				assert.Equal(t, 7, p.UserID)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := newTestIssuer(t)
	tokens, err := issuer.Issue(Principal{UserID: 1, Email: "a@b.c", Role: RoleAdmin})
	require.NoError(t, err)

	router := gin.New()
	router.GET("/", AuthMiddleware(issuer), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TokenHeader, tokens.RefreshToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		principal      *Principal
		allowed        []Role
		expectedStatus int
	}{
		{"Matching role", &Principal{UserID: 1, Role: RoleAdmin}, []Role{RoleAdmin}, http.StatusOK},
		{"One of several", &Principal{UserID: 1, Role: RoleProvider}, []Role{RoleCustomer, RoleProvider}, http.StatusOK},
		{"Missing principal", nil, []Role{RoleAdmin}, http.StatusUnauthorized},
		{"Insufficient role", &Principal{UserID: 1, Role: RoleCustomer}, []Role{RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			if tt.principal != nil {
				c.Set(principalKey, *tt.principal)
			}
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RequireRole(tt.allowed...)(c)
			if !c.IsAborted() {
				c.Status(http.StatusOK)
			}
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestGetUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := GetUserID(c)
	assert.False(t, ok)

	c.Set(principalKey, "not-a-principal")
	_, ok = GetUserID(c)
	assert.False(t, ok)

	c.Set(principalKey, Principal{UserID: 42, Role: RoleCustomer})
	id, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, 42, id)
}
