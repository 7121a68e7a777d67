package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

func SignUp(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		session, err := u.SignUp(c.Request.Context(), &req)
		if err != nil {
			failWith(c, err, "Sign up failed", http.StatusBadRequest)
			return
		}

		setSessionCookies(c, session)
		message := "Account created"
		if session.AccessToken == "" {
			message = "Account created, check your email to verify it"
		}
		helpers.SuccessResponse(c, http.StatusCreated, message, session)
	}
}

func Login(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		session, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			failWith(c, err, "Sign in failed", http.StatusUnauthorized)
			return
		}

		// tokens travel in cookies only
		setSessionCookies(c, session)
		helpers.SuccessResponse(c, http.StatusOK, "Signed in", session)
	}
}

func Logout(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(accessTokenCookie); err == nil {
			if err := u.SignOut(c.Request.Context(), token); err != nil {
				_ = c.Error(err)
			}
		}
		clearSessionCookies(c)
		helpers.SuccessResponse(c, http.StatusOK, "Logged out successfully", nil)
	}
}

func Refresh(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(refreshTokenCookie)
		if err != nil || token == "" {
			var body struct {
				RefreshToken string `json:"refresh_token"`
			}
			_ = c.ShouldBindJSON(&body)
			token = body.RefreshToken
		}

		session, err := u.RefreshToken(c.Request.Context(), token)
		if err != nil {
			clearSessionCookies(c)
			failWith(c, err, "Session refresh failed", http.StatusUnauthorized)
			return
		}
		setSessionCookies(c, session)
		helpers.SuccessResponse(c, http.StatusOK, "Session refreshed", session)
	}
}

// PasswordReset always answers the same way for well-formed emails so the
// endpoint cannot be used to discover accounts.
func PasswordReset(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		if err := u.SendPasswordReset(c.Request.Context(), req.Email); err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid email", err)
				return
			}
			_ = c.Error(err)
		}
		helpers.SuccessResponse(c, http.StatusOK, "If the account exists a reset link has been sent", nil)
	}
}

func ResendVerification(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			return
		}
		if err := u.ResendVerification(c.Request.Context(), claims.Email); err != nil {
			failWith(c, err, "Could not resend verification email", http.StatusBadRequest)
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Verification email sent", nil)
	}
}

func Reauthenticate(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			return
		}
		if err := u.Reauthenticate(c.Request.Context(), claims.AccessToken); err != nil {
			failWith(c, err, "Could not start re-authentication", http.StatusBadRequest)
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "A confirmation code has been sent", nil)
	}
}

// GoogleAuth redirects to the provider. The PKCE verifier is parked in a
// short-lived cookie for the callback exchange.
func GoogleAuth(u *services.UserService, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		redirectTo := c.Query("redirect_to")
		if redirectTo == "" {
			redirectTo = frontendURL + "/auth/callback"
		}

		authURL, verifier, err := u.GoogleAuthURL(c.Request.Context(), redirectTo)
		if err != nil {
			fail(c, err, "Failed to generate Google auth URL")
			return
		}

		if verifier != "" {
			c.SetCookie(verifierCookie, verifier, verifierMaxAge, "/", "", secureCookies(), true)
		}
		c.Redirect(http.StatusTemporaryRedirect, authURL)
	}
}

// GoogleAuthCallback forwards provider errors to the frontend. Tokens arrive
// as URL fragments and are handled client-side.
func GoogleAuthCallback(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if providerErr := c.Query("error"); providerErr != "" {
			q := url.Values{}
			q.Set("error", providerErr)
			q.Set("error_description", c.Query("error_description"))
			c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth/signin?"+q.Encode())
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/auth/callback")
	}
}
