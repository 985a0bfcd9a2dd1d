package controllers

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/middleware"
	"github.com/nearnect/nearnect-api/models"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/utils"
)

const (
	folderProfiles  = "profiles"
	folderGallery   = "gallery"
	folderDocuments = "documents"
)

// respondUploadError maps upload failures onto the error envelope
func respondUploadError(c *gin.Context, err error) {
	var uploadErr *utils.FileUploadError
	if errors.As(err, &uploadErr) {
		respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
		return
	}
	respondServerError(c, "UPLOAD_FAILED", "Failed to upload file", err)
}

func uploadSingle(c *gin.Context, field, folder string) (*services.UploadedFile, uint, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, 0, false
	}

	fileHeader, err := c.FormFile(field)
	if err != nil {
		respondError(c, http.StatusBadRequest, "NO_FILE", "No file uploaded in field "+field)
		return nil, 0, false
	}

	file, err := services.NewUploadService(services.GetStorage()).Upload(c.Request.Context(), folder, userID, fileHeader)
	if err != nil {
		respondUploadError(c, err)
		return nil, 0, false
	}
	return file, userID, true
}

// UploadAvatar handles POST /api/v1/upload/avatar - stores a profile picture and sets it on the user
func UploadAvatar(c *gin.Context) {
	file, userID, ok := uploadSingle(c, "avatar", folderProfiles)
	if !ok {
		return
	}

	if err := config.GetDB().WithContext(c.Request.Context()).
		Model(&models.User{}).Where("id = ?", userID).
		Update("avatar_url", file.URL).Error; err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to update avatar", err)
		return
	}

	respondOK(c, http.StatusOK, file)
}

// UploadDocument handles POST /api/v1/upload/document
func UploadDocument(c *gin.Context) {
	file, _, ok := uploadSingle(c, "document", folderDocuments)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, file)
}

// UploadGallery handles POST /api/v1/upload/gallery - up to MaxGalleryFiles images at once
func UploadGallery(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, "NO_FILE", "No files uploaded in field gallery")
		return
	}
	headers := form.File["gallery"]
	if len(headers) == 0 {
		respondError(c, http.StatusBadRequest, "NO_FILE", "No files uploaded in field gallery")
		return
	}
	if len(headers) > utils.MaxGalleryFiles {
		respondError(c, http.StatusBadRequest, "TOO_MANY_FILES", "Too many files uploaded")
		return
	}

	// validate everything before storing anything
	for _, fh := range headers {
		if err := utils.ValidateUpload(fh); err != nil {
			respondUploadError(c, err)
			return
		}
	}

	svc := services.NewUploadService(services.GetStorage())
	files := make([]*services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		file, err := svc.Upload(c.Request.Context(), folderGallery, userID, fh)
		if err != nil {
			respondUploadError(c, err)
			return
		}
		files = append(files, file)
	}

	respondOK(c, http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

// DeleteUpload handles DELETE /api/v1/upload/:filename - only the uploader may delete
func DeleteUpload(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return
	}

	filename := c.Param("filename")
	if !utils.IsSafeFilename(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	err = services.NewUploadService(services.GetStorage()).Delete(c.Request.Context(), userID, filename)
	switch {
	case errors.Is(err, services.ErrUploadNotOwned):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only delete your own files")
		return
	case errors.Is(err, services.ErrUploadNotFound):
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	case err != nil:
		respondServerError(c, "DELETE_FAILED", "Failed to delete file", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "File deleted",
	})
}

// ServeUpload handles GET /uploads/:folder/:filename. Local files are served
// directly; object storage answers with a redirect to a signed URL.
func ServeUpload(c *gin.Context) {
	folder, filename := c.Param("folder"), c.Param("filename")

	if !isUploadFolder(folder) || !utils.IsSafeFilename(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}
	if _, ok := utils.AllowedExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Unsupported file type")
		return
	}

	switch storage := services.GetStorage().(type) {
	case *services.LocalStorage:
		filePath := filepath.Join(storage.Root(), folder, filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
			return
		}
		c.Header("Content-Type", utils.ContentTypeFor(filename))
		c.Header("Cache-Control", "public, max-age=86400")
		c.File(filePath)
	case nil:
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "File storage is not configured")
	default:
		url, err := storage.URL(c.Request.Context(), path.Join(folder, filename))
		if err != nil {
			respondServerError(c, "STORAGE_ERROR", "Failed to resolve file URL", err)
			return
		}
		c.Redirect(http.StatusFound, url)
	}
}

func isUploadFolder(folder string) bool {
	for _, f := range services.UploadFolders {
		if f == folder {
			return true
		}
	}
	return false
}
