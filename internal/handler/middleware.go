package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/logutil"
	"github.com/ridehail/backend/internal/model"
	"github.com/ridehail/backend/internal/service"
	"github.com/rs/zerolog"
)

const (
	authAccountKey  = "auth_account"
	authTokenKey    = "auth_token"
	requestIDHeader = "X-Request-ID"
)

// AuthMiddleware gates a route on a valid, unrevoked token belonging to an
// existing account of the given role.
func AuthMiddleware(authService *service.AuthService, role model.Role) gin.HandlerFunc {
	cookieName := authService.CookieConfig().Name
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := extractToken(c, cookieName)
		account, err := authService.Authenticate(c.Request.Context(), role, token)
		if err != nil {
			writeAuthError(c, role, err)
			c.Abort()
			return
		}

		c.Set(authAccountKey, account)
		c.Set(authTokenKey, token)
		c.Next()
	}
}

// extractToken prefers the cookie, then an Authorization: Bearer header.
func extractToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func GetAuthAccount(c *gin.Context) *model.Account {
	if value, ok := c.Get(authAccountKey); ok {
		if account, ok := value.(*model.Account); ok {
			return account
		}
	}
	return nil
}

func getAuthToken(c *gin.Context) string {
	return c.GetString(authTokenKey)
}

// CORSMiddleware allows the listed origins. "*" answers any origin with a
// literal "*" and never with credentials, so browsers do not share
// cookie-authenticated responses with arbitrary sites.
func CORSMiddleware(allowedOrigins []string, allowCredentials bool) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	allowAny := false
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAny = true
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				if allowCredentials {
					c.Header("Access-Control-Allow-Credentials", "true")
				}
				setCORSAllowHeaders(c)
			} else if allowAny {
				c.Header("Access-Control-Allow-Origin", "*")
				setCORSAllowHeaders(c)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		c.Next()
	}
}

func setCORSAllowHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}

// RequestLogger puts a per-request logger (tagged with a request id) into
// the request context and logs the outcome.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logutil.WithLogger(c.Request.Context(), logger))

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Msg("request")
	}
}
