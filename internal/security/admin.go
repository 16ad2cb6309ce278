package security

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/ZanzyTHEbar/kratu/internal/errors"
)

const adminSubject = "kratu-admin"

// IssueAdminToken signs an HS256 admin token that expires after ttl
func IssueAdminToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", apperrors.NewConfigurationError("admin.secret is not set", nil)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", apperrors.NewInternalError("failed to sign admin token", err)
	}
	return token, nil
}

// ValidateAdminToken checks the signature, subject and expiry of token
func ValidateAdminToken(secret, token string) error {
	if secret == "" {
		return apperrors.NewUnauthorizedError("admin access is disabled")
	}
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return apperrors.NewUnauthorizedError("invalid admin token", err.Error())
	}
	return nil
}

// RequireAdmin admits requests carrying "Authorization: Bearer <token>" with a
// token issued for secret
func RequireAdmin(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			c.Header("WWW-Authenticate", `Bearer realm="kratu-admin"`)
			apperrors.Abort(c, apperrors.NewUnauthorizedError("admin token required"))
			return
		}
		if err := ValidateAdminToken(secret, token); err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="kratu-admin", error="invalid_token"`)
			apperrors.Abort(c, err)
			return
		}
		c.Next()
	}
}
