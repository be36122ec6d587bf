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
)

var testSecret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireOwner(testSecret))
	r.GET("/me", func(c *gin.Context) {
		id, ok := OwnerID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestRequireOwner(t *testing.T) {
	ownerID := uuid.New()
	valid, err := IssueOwnerToken(testSecret, ownerID, time.Hour)
	require.NoError(t, err)
	expired, err := IssueOwnerToken(testSecret, ownerID, -time.Hour)
	require.NoError(t, err)
	wrongKey, err := IssueOwnerToken([]byte("other"), ownerID, time.Hour)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "bearer_header", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "cookie", cookie: valid, wantStatus: http.StatusOK},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "malformed_header", header: "Token " + valid, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "wrong_secret", header: "Bearer " + wrongKey, wantStatus: http.StatusUnauthorized},
		{name: "no_subject", header: "Bearer " + noSubject, wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tc.cookie})
			}
			w := httptest.NewRecorder()

			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, ownerID.String(), w.Body.String())
			}
		})
	}
}
