package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

const (
	ClaimsKey = "user"

	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"
	verifierCookie     = "pkce_verifier"

	refreshTokenMaxAge = 3600 * 24 * 30
	verifierMaxAge     = 600
)

// claimsFrom reads the claims AuthMiddleware stored. It writes the 401 itself
// when they are missing.
func claimsFrom(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		helpers.ErrorResponse(c, http.StatusUnauthorized, "Unauthorized", nil)
		return nil, false
	}
	claims, ok := v.(*helpers.EnhancedClaims)
	if !ok || claims == nil {
		helpers.ErrorResponse(c, http.StatusInternalServerError, "Invalid user claims", nil)
		return nil, false
	}
	return claims, true
}

func actorFrom(c *gin.Context) (services.Actor, bool) {
	claims, ok := claimsFrom(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.ActorFromClaims(claims), true
}

func secureCookies() bool {
	return gin.Mode() == gin.ReleaseMode
}

func setSessionCookies(c *gin.Context, s *models.AuthSession) {
	if s == nil || s.AccessToken == "" {
		return
	}
	secure := secureCookies()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, s.AccessToken, s.ExpiresIn, "/", "", secure, true)
	if s.RefreshToken != "" {
		c.SetCookie(refreshTokenCookie, s.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
	}
}

func clearSessionCookies(c *gin.Context) {
	secure := secureCookies()
	c.SetCookie(accessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", secure, true)
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryFloat(c *gin.Context, key string) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}
