package services

import (
	"context"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joshua-takyi/tourbay/internal/helpers"
)

type ImageUploader interface {
	Upload(ctx context.Context, images []string, folder string) (urls []string, publicIDs []string, err error)
	Delete(ctx context.Context, publicIDs []string)
}

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary) *CloudinaryUploader {
	return &CloudinaryUploader{cld: cld}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, images []string, folder string) ([]string, []string, error) {
	return helpers.UploadImages(ctx, u.cld, images, folder)
}

func (u *CloudinaryUploader) Delete(ctx context.Context, publicIDs []string) {
	helpers.DeleteImages(ctx, u.cld, publicIDs)
}
