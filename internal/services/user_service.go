package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

const AvatarUploadTimeout = 60 * time.Second

type UserService struct {
	userRepo models.UserRepo
	guides   *GuideService
	uploader ImageUploader
	logger   *slog.Logger
}

func NewUserService(userRepo models.UserRepo, guides *GuideService, uploader ImageUploader, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		guides:   guides,
		uploader: uploader,
		logger:   logger,
	}
}

func (us *UserService) SignUp(ctx context.Context, req *models.SignupRequest) (*models.AuthSession, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Role == "" {
		req.Role = models.RoleTraveler
	}

	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}

	if !helpers.IsPasswordStrong(req.Password) {
		return nil, fmt.Errorf("%w: password is not strong enough", models.ErrInvalidInput)
	}

	session, err := us.userRepo.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Role == models.RoleGuide {
		user := session.User
		if user == nil {
			user = &models.User{ID: session.UserID, Email: req.Email, Username: req.Username, FullName: req.FullName, Role: req.Role}
		}
		us.syncGuide(ctx, user)
	}

	return session, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.AuthSession, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, fmt.Errorf("%w: invalid password format", models.ErrInvalidInput)
	}
	return us.userRepo.AuthenticateUser(ctx, strings.ToLower(email), password)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrInvalidInput)
	}
	return us.userRepo.RefreshToken(ctx, refreshToken)
}

func (us *UserService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return us.userRepo.SignOut(ctx, accessToken)
}

func (us *UserService) SendPasswordReset(ctx context.Context, email string) error {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	return us.userRepo.SendPasswordReset(ctx, strings.ToLower(email))
}

func (us *UserService) Reauthenticate(ctx context.Context, accessToken string) error {
	return us.userRepo.Reauthenticate(ctx, accessToken)
}

func (us *UserService) ResendVerification(ctx context.Context, email string) error {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email format", models.ErrInvalidInput)
	}
	return us.userRepo.ResendVerification(ctx, email)
}

// GoogleAuthURL returns the provider URL and the PKCE verifier.
func (us *UserService) GoogleAuthURL(ctx context.Context, redirectTo string) (string, string, error) {
	return us.userRepo.AuthorizeURL(ctx, "google", redirectTo)
}

func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	return us.userRepo.GetUser(ctx, id, accessToken)
}

// UpdateProfile writes only the profiles row. The guide read model is then
// re-derived from what the database returned.
func (us *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]interface{}, accessToken string) (*models.User, error) {
	clean := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if !models.ProfileFields[k] {
			return nil, fmt.Errorf("%w: field %q cannot be updated", models.ErrInvalidInput, k)
		}
		clean[k] = v
	}

	if raw, ok := clean["languages"]; ok {
		langs, err := toStringSlice(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: languages must be a list of strings", models.ErrInvalidInput)
		}
		clean["languages"] = helpers.RemoveDuplicates(langs)
	}
	for _, k := range []string{"username", "fullname", "bio", "location", "phone_number"} {
		if s, ok := clean[k].(string); ok {
			clean[k] = helpers.StringTrim(s)
		}
	}
	if name, ok := clean["username"].(string); ok {
		if err := models.Validate.Var(name, "min=3,max=30"); err != nil {
			return nil, fmt.Errorf("%w: username must be 3 to 30 characters", models.ErrInvalidInput)
		}
	}

	clean["updated_at"] = time.Now().UTC()

	user, err := us.userRepo.UpdateUser(ctx, clean, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if user.IsGuide() {
		us.syncGuide(ctx, user)
	}
	return user, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if err := us.userRepo.DeleteUser(ctx, id, accessToken); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// UploadAvatar uploads the image and stores its URL on the profile. The
// upload is abandoned after AvatarUploadTimeout.
func (us *UserService) UploadAvatar(ctx context.Context, id uuid.UUID, image string, accessToken string) (string, error) {
	if id == uuid.Nil {
		return "", fmt.Errorf("%w: no valid UUID provided", models.ErrInvalidInput)
	}
	if strings.TrimSpace(image) == "" {
		return "", fmt.Errorf("%w: image is required", models.ErrInvalidInput)
	}

	var urls, publicIDs []string
	err := raceTimeout(ctx, AvatarUploadTimeout, func(ctx context.Context) error {
		var err error
		urls, publicIDs, err = us.uploader.Upload(ctx, []string{image}, helpers.AvatarFolder)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: image is empty", models.ErrInvalidInput)
	}

	user, err := us.UpdateProfile(ctx, id, map[string]interface{}{"avatar_url": urls[0]}, accessToken)
	if err != nil {
		us.uploader.Delete(context.WithoutCancel(ctx), publicIDs)
		return "", err
	}

	return user.AvatarURL, nil
}

func (us *UserService) syncGuide(ctx context.Context, user *models.User) {
	if us.guides == nil {
		return
	}
	if err := us.guides.SyncFromUser(ctx, user); err != nil {
		us.logger.Error("Failed to sync guide read model",
			"user_id", user.ID,
			"error", err,
		)
	}
}

func toStringSlice(v interface{}) ([]string, error) {
	switch vals := v.(type) {
	case []string:
		return vals, nil
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected list, got %T", v)
}
