package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxFileSize is 5MB in bytes
	MaxFileSize = 5 * 1024 * 1024
	// MaxGalleryFiles is the number of files accepted by one gallery upload
	MaxGalleryFiles = 10
)

// AllowedExtensions lists the accepted upload extensions
var AllowedExtensions = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateUpload checks the uploaded file's extension and size
func ValidateUpload(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only images (jpeg, jpg, png, gif, webp) and PDF files are allowed",
		}
	}

	return nil
}

// ContentTypeFor returns the MIME type for an allowed extension
func ContentTypeFor(filename string) string {
	if ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// UploadFilename builds the stored name "<unixms>_<userId>_<sanitized-base><ext>"
func UploadFilename(original string, userID uint, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	return fmt.Sprintf("%d_%d_%s%s", now.UnixMilli(), userID, base, ext)
}

// OwnsUpload reports whether a stored filename was uploaded by userID
func OwnsUpload(filename string, userID uint) bool {
	parts := strings.SplitN(filename, "_", 3)
	return len(parts) == 3 && parts[1] == fmt.Sprint(userID)
}

// IsSafeFilename rejects names that could escape the upload folder
func IsSafeFilename(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
