package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invoicehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ownerIDKey = "ownerID"

var errMissingToken = errors.New("authorization is missing")

// ParseOwnerToken verifies an HS256 token and returns the owner id from its sub claim.
func ParseOwnerToken(tokenString string, secret []byte) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, fmt.Errorf("token has no subject")
	}
	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token subject is not an owner id")
	}
	return ownerID, nil
}

// IssueOwnerToken signs a token for ownerID. Used by the CLI for local sessions.
func IssueOwnerToken(secret []byte, ownerID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   ownerID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// tokenFromRequest reads the bearer header, falling back to the access_token cookie.
func tokenFromRequest(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("invalid authorization format. Expected 'Bearer <token>'")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errMissingToken
}

// RequireOwner validates the JWT and scopes the request to the owner in its sub claim.
func RequireOwner(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := tokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		ownerID, err := ParseOwnerToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		c.Set(ownerIDKey, ownerID)
		c.Next()
	}
}

// OwnerID returns the owner set by RequireOwner.
func OwnerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ownerIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// SetOwnerID is used by tests and internal callers that authenticate differently.
func SetOwnerID(c *gin.Context, ownerID uuid.UUID) {
	c.Set(ownerIDKey, ownerID)
}
