package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/services"
)

// targetUser parses :id and checks the caller may act on it: the user
// themselves or an admin.
func targetUser(c *gin.Context) (uuid.UUID, *helpers.EnhancedClaims, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid user ID format", nil)
		return uuid.Nil, nil, false
	}
	claims, ok := claimsFrom(c)
	if !ok {
		return uuid.Nil, nil, false
	}
	if !claims.IsOwner(id.String()) && !claims.IsAdmin() {
		helpers.ErrorResponse(c, http.StatusForbidden, "Access denied", nil)
		return uuid.Nil, nil, false
	}
	return id, claims, true
}

func Profile(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			return
		}
		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			helpers.ErrorResponse(c, http.StatusUnauthorized, "Invalid user ID in token", nil)
			return
		}
		user, err := u.GetUser(c.Request.Context(), id, claims.AccessToken)
		if err != nil {
			fail(c, err, "Failed to load profile")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", user)
	}
}

func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, claims, ok := targetUser(c)
		if !ok {
			return
		}
		user, err := u.GetUser(c.Request.Context(), id, claims.AccessToken)
		if err != nil {
			fail(c, err, "Failed to load user")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", user)
	}
}

func UpdateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, claims, ok := targetUser(c)
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		user, err := u.UpdateProfile(c.Request.Context(), id, fields, claims.AccessToken)
		if err != nil {
			fail(c, err, "Failed to update user")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Profile updated", user)
	}
}

// DeleteUser is the explicit account-deletion flow. Users may delete their own
// account; admins may delete any.
func DeleteUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, claims, ok := targetUser(c)
		if !ok {
			return
		}
		if err := u.DeleteUser(c.Request.Context(), id, claims.AccessToken); err != nil {
			fail(c, err, "Failed to delete user")
			return
		}
		if claims.IsOwner(id.String()) {
			clearSessionCookies(c)
		}
		helpers.SuccessResponse(c, http.StatusOK, "User deleted successfully", nil)
	}
}

func UploadAvatar(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, claims, ok := targetUser(c)
		if !ok {
			return
		}
		var req struct {
			Image string `json:"image" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		avatarURL, err := u.UploadAvatar(c.Request.Context(), id, req.Image, claims.AccessToken)
		if err != nil {
			fail(c, err, "Failed to upload avatar")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "Avatar updated", gin.H{"avatar_url": avatarURL})
	}
}
