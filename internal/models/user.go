package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleTraveler = "traveler"
	RoleGuide    = "guide"
	RoleAdmin    = "admin"
)

type User struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	FullName      string    `db:"fullname" json:"fullname"`
	Email         string    `db:"email" json:"email"`
	Role          string    `db:"role" json:"role"`
	PhoneNumber   string    `db:"phone_number" json:"phone_number"`
	Bio           string    `db:"bio" json:"bio"`
	Location      string    `db:"location" json:"location"`
	Languages     []string  `db:"languages" json:"languages"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url"`
	IsVerified    bool      `db:"is_verified" json:"is_verified"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) IsGuide() bool {
	return u.Role == RoleGuide
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required,min=3,max=30"`
	FullName string `json:"fullname" validate:"required,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=traveler guide"`
}

// AuthSession is what the identity provider hands back after sign-in, sign-up
// or refresh. User is nil when the provider returns no profile.
type AuthSession struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	User         *User     `json:"user,omitempty"`
}

// ProfileFields lists the columns a user may change through profile edit.
var ProfileFields = map[string]bool{
	"username":     true,
	"fullname":     true,
	"phone_number": true,
	"bio":          true,
	"location":     true,
	"languages":    true,
	"avatar_url":   true,
}
