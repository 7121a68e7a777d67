package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
)

var documentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
}

const MaxDocumentSize = 10 << 20

type GuideService struct {
	guides  models.GuidesRepo
	users   models.UserRepo
	storage models.StorageRepo
	logger  *slog.Logger
}

func NewGuideService(guides models.GuidesRepo, users models.UserRepo, storage models.StorageRepo, logger *slog.Logger) *GuideService {
	return &GuideService{
		guides:  guides,
		users:   users,
		storage: storage,
		logger:  logger,
	}
}

// SyncFromUser re-derives the guide read model from its profile.
func (gs *GuideService) SyncFromUser(ctx context.Context, user *models.User) error {
	if user == nil || !user.IsGuide() {
		return nil
	}
	return gs.guides.UpsertGuide(ctx, models.GuideFromUser(user))
}

func (gs *GuideService) ListGuides(ctx context.Context, filter models.GuideFilter) ([]*models.GuideProfile, int64, error) {
	return gs.guides.ListGuides(ctx, filter)
}

// GetGuide falls back to the profile when the read model is missing and
// rebuilds it on the way out.
func (gs *GuideService) GetGuide(ctx context.Context, id string) (*models.GuideProfile, error) {
	guide, err := gs.guides.GetGuide(ctx, id)
	if err == nil {
		return guide, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	uid, parseErr := uuid.Parse(id)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: invalid guide id", models.ErrInvalidInput)
	}
	user, userErr := gs.users.GetUser(ctx, uid, "")
	if userErr != nil {
		return nil, err
	}
	if !user.IsGuide() {
		return nil, fmt.Errorf("guide %s: %w", id, models.ErrNotFound)
	}
	if syncErr := gs.SyncFromUser(ctx, user); syncErr != nil {
		gs.logger.Warn("Failed to rebuild guide read model", "user_id", id, "error", syncErr)
		return models.GuideFromUser(user), nil
	}
	return gs.guides.GetGuide(ctx, id)
}

func (gs *GuideService) UpdateCertifications(ctx context.Context, actor Actor, req *models.UpdateGuideRequest) (*models.GuideProfile, error) {
	if err := actor.require(models.RoleGuide); err != nil {
		return nil, err
	}
	req.Certifications = helpers.RemoveDuplicates(req.Certifications)
	if err := models.Validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return gs.guides.SetCertifications(ctx, actor.UserID, req.Certifications)
}

// UploadVerificationDocument stores the file in object storage and records the
// URL on the guide. The object is removed again if the record cannot be written.
func (gs *GuideService) UploadVerificationDocument(ctx context.Context, actor Actor, filename, contentType string, size int64, body io.Reader) (string, error) {
	if err := actor.require(models.RoleGuide); err != nil {
		return "", err
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := documentTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported document type %q", models.ErrInvalidInput, contentType)
	}
	if size <= 0 || size > MaxDocumentSize {
		return "", fmt.Errorf("%w: document must be between 1 byte and 10MB", models.ErrInvalidInput)
	}

	base := helpers.GenerateSlug(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "document"
	}
	objectPath := fmt.Sprintf("%s/%s-%s%s", actor.UserID, base, uuid.NewString()[:8], ext)

	url, err := gs.storage.UploadDocument(ctx, objectPath, contentType, body, actor.AccessToken)
	if err != nil {
		return "", err
	}

	if err := gs.guides.AddVerificationDocument(ctx, actor.UserID, url); err != nil {
		if rmErr := gs.storage.RemoveDocument(context.WithoutCancel(ctx), objectPath, actor.AccessToken); rmErr != nil {
			gs.logger.Error("Failed to remove orphaned document", "path", objectPath, "error", rmErr)
		}
		return "", err
	}

	return url, nil
}

func (gs *GuideService) IncrementCompletedTours(ctx context.Context, guideID string, n int) error {
	return gs.guides.IncrementCompletedTours(ctx, guideID, n)
}
