package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "onyx.backend/internal/domain/errors"
	"onyx.backend/internal/interfaces/http/response"
	"onyx.backend/pkg/jwt"
	"onyx.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// ProviderSubjectKey is the context key for the verified token subject
	ProviderSubjectKey = "providerSubject"
)

// TokenVerifier validates tokens issued by the embedded-wallet auth provider
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// ProviderAuthMiddleware requires a valid provider bearer token. With a nil
// verifier the guard is disabled and every request passes.
func ProviderAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader(AuthorizationHeader)
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			logger.Warn(c.Request.Context(), "Provider token missing", zap.String("path", c.FullPath()))
			response.AbortWithError(c, domainerrors.Unauthorized("Unauthorized"))
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, BearerPrefix)))
		if err != nil {
			logger.Warn(c.Request.Context(), "Provider token rejected", zap.String("path", c.FullPath()), zap.Error(err))
			msg := "Unauthorized"
			if errors.Is(err, jwt.ErrExpiredToken) {
				msg = "Token has expired"
			}
			response.AbortWithError(c, domainerrors.Unauthorized(msg))
			return
		}

		c.Set(ProviderSubjectKey, claims.Subject)
		c.Next()
	}
}

// GetProviderSubject returns the verified token subject, if the guard ran
func GetProviderSubject(c *gin.Context) (string, bool) {
	subject, exists := c.Get(ProviderSubjectKey)
	if !exists {
		return "", false
	}
	s, ok := subject.(string)
	return s, ok && s != ""
}
