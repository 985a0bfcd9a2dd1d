package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"time"

	"github.com/nearnect/nearnect-api/utils"
)

var (
	ErrUploadNotOwned = errors.New("file does not belong to user")
	ErrUploadNotFound = errors.New("file not found")
)

// UploadedFile describes a stored upload as returned to clients
type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	Path         string `json:"path"`
}

// UploadService validates, names and stores user uploads
type UploadService struct {
	storage Storage
	now     func() time.Time
}

func NewUploadService(storage Storage) *UploadService {
	return &UploadService{storage: storage, now: time.Now}
}

// Upload validates the file and stores it in folder under a per-user unique name
func (s *UploadService) Upload(ctx context.Context, folder string, userID uint, fileHeader *multipart.FileHeader) (*UploadedFile, error) {
	if err := utils.ValidateUpload(fileHeader); err != nil {
		return nil, err
	}

	filename := utils.UploadFilename(fileHeader.Filename, userID, s.now())
	key := path.Join(folder, filename)

	if err := s.storage.Save(ctx, key, fileHeader); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	url, err := s.storage.URL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload URL: %w", err)
	}

	return &UploadedFile{
		Filename:     filename,
		OriginalName: fileHeader.Filename,
		MimeType:     utils.ContentTypeFor(fileHeader.Filename),
		Size:         fileHeader.Size,
		URL:          url,
		Path:         key,
	}, nil
}

// Delete removes filename from the first upload folder holding it
func (s *UploadService) Delete(ctx context.Context, userID uint, filename string) error {
	if !utils.OwnsUpload(filename, userID) {
		return ErrUploadNotOwned
	}

	for _, folder := range UploadFolders {
		deleted, err := s.storage.Delete(ctx, path.Join(folder, filename))
		if err != nil {
			return err
		}
		if deleted {
			return nil
		}
	}
	return ErrUploadNotFound
}
