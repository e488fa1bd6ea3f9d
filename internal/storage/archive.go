package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
)

// ImageArchive mirrors generated images into object storage under
// <user>/<history id>.png. The user id is url-safe base64 encoded so it can
// never escape its prefix.
type ImageArchive struct {
	provider Provider
	bucket   string
}

func NewImageArchive(ctx context.Context, provider Provider, bucket string) (*ImageArchive, error) {
	if err := provider.CreateBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("error creating image archive bucket: %w", err)
	}
	return &ImageArchive{provider: provider, bucket: bucket}, nil
}

func ImageKey(userID string, historyID uint) string {
	return fmt.Sprintf("%s/%d.png", base64.RawURLEncoding.EncodeToString([]byte(userID)), historyID)
}

func (a *ImageArchive) Save(ctx context.Context, userID string, historyID uint, image []byte) error {
	return a.provider.PutObject(ctx, a.bucket, ImageKey(userID, historyID), bytes.NewReader(image))
}

func (a *ImageArchive) Load(ctx context.Context, userID string, historyID uint) ([]byte, error) {
	return a.provider.GetObject(ctx, a.bucket, ImageKey(userID, historyID))
}

func (a *ImageArchive) Delete(ctx context.Context, userID string, historyID uint) error {
	return a.provider.DeleteObject(ctx, a.bucket, ImageKey(userID, historyID))
}
