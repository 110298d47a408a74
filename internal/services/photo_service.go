package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"denuncias/internal/imaging"
	"denuncias/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Photo kinds, used as the filename prefix.
const (
	PhotoKindComplaint = "complaint"
	PhotoKindAvatar    = "avatar"
)

// PhotoService normalises uploads and writes them to the photo store.
type PhotoService struct {
	store        storage.Store
	maxDimension int
	maxPixels    int
	quality      int
	logger       *zap.Logger
}

// NewPhotoService creates a new PhotoService. Uploads declaring more than
// maxPixels pixels are refused.
func NewPhotoService(store storage.Store, maxDimension, maxPixels, quality int, logger *zap.Logger) *PhotoService {
	return &PhotoService{
		store:        store,
		maxDimension: maxDimension,
		maxPixels:    maxPixels,
		quality:      quality,
		logger:       logger,
	}
}

// Save stores the photo as <kind>_<ownerID>_<random>.jpg and returns its URL.
func (s *PhotoService) Save(ctx context.Context, kind, ownerID string, content io.Reader) (string, error) {
	data, err := imaging.Normalize(content, s.maxDimension, s.maxPixels, s.quality)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s_%s_%s.jpg", kind, ownerID, uuid.New().String()[:8])
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), imaging.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return url, nil
}

// Remove deletes a previously saved photo. Failures are logged only.
func (s *PhotoService) Remove(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	key, ok := s.store.KeyFromURL(*url)
	if !ok {
		s.logger.Warn("photo url does not belong to this store", zap.String("url", *url))
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to remove photo", zap.String("key", key), zap.Error(err))
	}
}
