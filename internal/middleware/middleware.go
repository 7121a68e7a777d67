package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/metrics"
	"github.com/joshua-takyi/tourbay/internal/models"
)

const claimsKey = "user"

// TokenVerifier checks an access token's signature and expiry.
type TokenVerifier interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

// SessionSource refreshes sessions and loads the caller's profile.
type SessionSource interface {
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
}

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get("request_id")

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Metrics records request counts and latency by matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

// ErrorHandler logs errors attached with c.Error. Handlers that already wrote
// a response keep it; otherwise a generic 500 is sent.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		requestID, _ := c.Get("request_id")
		for _, err := range c.Errors {
			logger.Error("Request error",
				"request_id", requestID,
				"error", err.Error(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, helpers.ApiResponse{
				Success: false,
				Message: "Internal server error",
			})
		}
	}
}

func unauthorized(c *gin.Context, reason string) {
	helpers.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized access", errors.New(reason))
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// AuthMiddleware validates the access token from the cookie or bearer header.
// An expired cookie session is refreshed silently with the refresh cookie.
// The profile role is loaded into EnhancedClaims.
func AuthMiddleware(verifier TokenVerifier, sessions SessionSource, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			token = bearerToken(c)
		}

		var claims *helpers.CustomClaims
		if token != "" {
			claims, err = verifier.Validate(token)
		}
		if token == "" || err != nil {
			refreshToken, refreshErr := c.Cookie("refresh_token")
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, "no valid access token")
				return
			}

			session, refreshErr := sessions.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil || session == nil || session.AccessToken == "" {
				logger.Warn("Token refresh failed", "error", refreshErr)
				unauthorized(c, "refresh failed")
				return
			}

			secure := gin.Mode() == gin.ReleaseMode
			c.SetCookie("access_token", session.AccessToken, session.ExpiresIn, "/", "", secure, true)
			c.SetCookie("refresh_token", session.RefreshToken, 3600*24*30, "/", "", secure, true)
			logger.Info("Token refreshed successfully",
				"user_id", session.UserID,
				"expires_in", session.ExpiresIn,
			)

			token = session.AccessToken
			claims, err = verifier.Validate(token)
			if err != nil {
				unauthorized(c, "refreshed token invalid")
				return
			}
		}

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			Role:         "guest",
			UserID:       claims.Subject,
			Email:        claims.Email,
			AccessToken:  token,
		}

		userID, parseErr := uuid.Parse(claims.Subject)
		if parseErr != nil {
			logger.Error("Invalid user ID in token", "user_id", claims.Subject, "error", parseErr)
		} else if user, err := sessions.GetUser(c.Request.Context(), userID, token); err != nil {
			logger.Info("Profile not found, using default role", "user_id", claims.Subject, "error", err)
		} else {
			if user.Role != "" {
				enhanced.Role = user.Role
			}
			enhanced.Username = user.Username
			enhanced.Fullname = user.FullName
			enhanced.PhoneNumber = user.PhoneNumber
			enhanced.AvatarURL = user.AvatarURL
			enhanced.CreatedAt = user.CreatedAt.Format(time.RFC3339)
		}

		c.Set(claimsKey, enhanced)
		c.Next()
	}
}

// RequireRole stops the request unless the authenticated caller has one of
// the roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get(claimsKey)
		claims, ok := v.(*helpers.EnhancedClaims)
		if !ok || claims == nil {
			helpers.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized access", nil)
			return
		}
		if !claims.HasRole(roles...) {
			helpers.ErrorResponse(c, http.StatusForbidden, "Access denied", nil)
			return
		}
		c.Next()
	}
}
