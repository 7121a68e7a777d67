package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	ProfileTable = "profiles"
	ToursTable   = "tours"

	profileColumns = "id,email,username,fullname,role,phone_number,bio,location,languages,avatar_url,is_verified,email_verified,created_at,updated_at"
)

type UserRepo interface {
	CreateUser(ctx context.Context, req *SignupRequest) (*AuthSession, error)
	AuthenticateUser(ctx context.Context, email, password string) (*AuthSession, error)
	RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	Reauthenticate(ctx context.Context, accessToken string) error
	ResendVerification(ctx context.Context, email string) error
	AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error
	CountUsersByRole(ctx context.Context, accessToken string) (map[string]int64, error)
}

func ConvertToUser(raw map[string]interface{}) (*User, error) {
	userBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw user: %w", err)
	}

	user := &User{}
	if err := json.Unmarshal(userBytes, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to user struct: %w", err)
	}

	return user, nil
}

func authError(err error) error {
	return errors.New(helpers.MapAuthError(err.Error()))
}

func sessionFrom(s types.Session) *AuthSession {
	return &AuthSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, req *SignupRequest) (*AuthSession, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		Data: map[string]interface{}{
			"username": req.Username,
			"fullname": req.FullName,
			"role":     req.Role,
		},
	})
	if err != nil {
		return nil, authError(err)
	}

	session := sessionFrom(res.Session)
	if session.UserID == uuid.Nil {
		session.UserID = res.User.ID
		session.Email = res.User.Email
	}

	now := time.Now().UTC()
	profile := map[string]interface{}{
		"id":             session.UserID.String(),
		"email":          req.Email,
		"username":       req.Username,
		"fullname":       req.FullName,
		"role":           req.Role,
		"languages":      []string{},
		"is_verified":    false,
		"email_verified": false,
		"created_at":     now,
		"updated_at":     now,
	}

	client, err := su.clientFor(session.AccessToken)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProfileTable).
		Insert(profile, false, "", "representation", "exact").
		Execute()
	if err != nil {
		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key"):
			return nil, fmt.Errorf("%w: username or email already taken", ErrConflict)
		case strings.Contains(errMsg, "null value in column"):
			return nil, fmt.Errorf("%w: required field is missing", ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	var users []User
	if err := json.Unmarshal(raw, &users); err == nil && len(users) > 0 {
		session.User = &users[0]
	}

	return session, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*AuthSession, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, authError(err)
	}
	return sessionFrom(resp.Session), nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*AuthSession, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", authError(err))
	}
	return sessionFrom(resp.Session), nil
}

func (su *SupabaseRepo) SignOut(ctx context.Context, accessToken string) error {
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) SendPasswordReset(ctx context.Context, email string) error {
	if err := su.supabaseClient.Auth.Recover(types.RecoverRequest{Email: email}); err != nil {
		return authError(err)
	}
	return nil
}

func (su *SupabaseRepo) Reauthenticate(ctx context.Context, accessToken string) error {
	if err := su.supabaseClient.Auth.WithToken(accessToken).Reauthenticate(); err != nil {
		return authError(err)
	}
	return nil
}

func (su *SupabaseRepo) ResendVerification(ctx context.Context, email string) error {
	if err := su.supabaseClient.Auth.OTP(types.OTPRequest{Email: email}); err != nil {
		return authError(err)
	}
	return nil
}

// AuthorizeURL returns the federated sign-in URL and the PKCE verifier the
// caller must keep until the code exchange.
func (su *SupabaseRepo) AuthorizeURL(ctx context.Context, provider, redirectTo string) (string, string, error) {
	resp, err := su.supabaseClient.Auth.Authorize(types.AuthorizeRequest{
		Provider: types.Provider(provider),
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to build %s authorize url: %w", provider, err)
	}

	authURL := resp.AuthorizationURL
	if redirectTo != "" {
		u, err := url.Parse(authURL)
		if err != nil {
			return "", "", fmt.Errorf("invalid authorize url: %w", err)
		}
		q := u.Query()
		q.Set("redirect_to", redirectTo)
		u.RawQuery = q.Encode()
		authURL = u.String()
	}

	return authURL, resp.Verifier, nil
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid UUID", ErrInvalidInput)
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, status, err := client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	// Supabase returns an array even for single results
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %w", err)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	return &users[0], nil
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, fields map[string]interface{}, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid UUID", ErrInvalidInput)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	raw, count, err := client.From(ProfileTable).
		Update(fields, "representation", "exact").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	var rawUsers []map[string]interface{}
	if err := json.Unmarshal(raw, &rawUsers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated user: %w", err)
	}

	if count == 0 || len(rawUsers) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	return ConvertToUser(rawUsers[0])
}

func (su *SupabaseRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: invalid UUID", ErrInvalidInput)
	}

	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}

	_, count, err := client.From(ProfileTable).Delete("minimal", "exact").Eq("id", id.String()).Execute()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if count == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	return nil
}

func (su *SupabaseRepo) CountUsersByRole(ctx context.Context, accessToken string) (map[string]int64, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, 3)
	for _, role := range []string{RoleTraveler, RoleGuide, RoleAdmin} {
		_, count, err := client.From(ProfileTable).
			Select("id", "exact", true).
			Eq("role", role).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("failed to count %s users: %w", role, err)
		}
		counts[role] = count
	}

	return counts, nil
}
