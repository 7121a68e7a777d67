package models

import (
	"context"
	"fmt"
	"io"

	storage_go "github.com/supabase-community/storage-go"
)

type StorageRepo interface {
	UploadDocument(ctx context.Context, path, contentType string, data io.Reader, accessToken string) (string, error)
	RemoveDocument(ctx context.Context, path, accessToken string) error
}

// UploadDocument stores the object in the configured bucket under path and
// returns its public URL.
func (su *SupabaseRepo) UploadDocument(ctx context.Context, path, contentType string, data io.Reader, accessToken string) (string, error) {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return "", err
	}
	if client.Storage == nil {
		return "", fmt.Errorf("storage client is not initialized")
	}

	upsert := false
	if _, err := client.Storage.UploadFile(su.bucket, path, data, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", path, su.bucket, err)
	}

	return client.Storage.GetPublicUrl(su.bucket, path).SignedURL, nil
}

func (su *SupabaseRepo) RemoveDocument(ctx context.Context, path, accessToken string) error {
	client, err := su.clientFor(accessToken)
	if err != nil {
		return err
	}
	if _, err := client.Storage.RemoveFile(su.bucket, []string{path}); err != nil {
		return fmt.Errorf("failed to remove %s from bucket %s: %w", path, su.bucket, err)
	}
	return nil
}
