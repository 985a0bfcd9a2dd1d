package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/nearnect/nearnect-api/config"
	"go.uber.org/zap"
)

// UploadFolders are the folders uploads are sorted into, in lookup order
var UploadFolders = []string{"profiles", "gallery", "documents", "general"}

// Storage persists uploaded files under keys of the form "<folder>/<filename>"
type Storage interface {
	Save(ctx context.Context, key string, fileHeader *multipart.FileHeader) error
	// URL returns a URL a browser can fetch the object from
	URL(ctx context.Context, key string) (string, error)
	// Delete removes the object, reporting false if it did not exist
	Delete(ctx context.Context, key string) (bool, error)
}

var storageInstance Storage

// InitStorage picks S3 when a bucket is configured and the local upload directory otherwise
func InitStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	if cfg.UsesS3() {
		s, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		zap.L().Info("Using S3 storage", zap.String("bucket", cfg.AWSS3Bucket))
		storageInstance = s
		return s, nil
	}

	zap.L().Info("Using local storage", zap.String("dir", cfg.UploadDir))
	storageInstance = NewLocalStorage(cfg.UploadDir)
	return storageInstance, nil
}

// GetStorage returns the initialized storage backend
func GetStorage() Storage {
	return storageInstance
}

// SetStorage sets the storage backend (primarily for testing)
func SetStorage(s Storage) {
	storageInstance = s
}
