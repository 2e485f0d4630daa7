package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskspace/internal/auth"
	"taskspace/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "workspace-secret"

// setupRouter guards a workspace listing that echoes the authenticated user.
func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(testSecret))
	authorized.GET("/workspaces", func(c *gin.Context) {
		userID, ok := c.Get(middleware.UserIDKey)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID.(uuid.UUID).String()})
	})

	return r
}

func getWorkspaces(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", "/workspaces", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func issue(t *testing.T, secret string, ttl time.Duration, subject string) string {
	t.Helper()
	token, err := auth.NewTokens(secret, ttl).Generate(subject)
	require.NoError(t, err)
	return token
}

func TestJWTAuthMiddleware_SetsUserID(t *testing.T) {
	router := setupRouter()
	userID := uuid.New()

	resp := getWorkspaces(router, "Bearer "+issue(t, testSecret, time.Hour, userID.String()))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"user_id":"`+userID.String()+`"}`, resp.Body.String())
}

func TestJWTAuthMiddleware_Rejects(t *testing.T) {
	userID := uuid.New().String()

	tests := []struct {
		name          string
		authorization string
		wantError     string
	}{
		{"missing header", "", "Authorization header is required"},
		{"not bearer", "Token abc", "Authorization header format must be Bearer {token}"},
		{"empty bearer", "Bearer ", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not-a-jwt", "Invalid or expired token"},
		{"other secret", "Bearer " + issue(t, "other-secret", time.Hour, userID), "Invalid or expired token"},
		{"expired", "Bearer " + issue(t, testSecret, -time.Minute, userID), "Invalid or expired token"},
		{"subject not a uuid", "Bearer " + issue(t, testSecret, time.Hour, "dana@taskspace.dev"), "Invalid user ID in token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := getWorkspaces(setupRouter(), tt.authorization)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantError+`"}`, resp.Body.String())
		})
	}
}
