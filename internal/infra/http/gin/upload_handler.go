package ginserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"premises/internal/infra/storage/s3"
)

// UploadHTTP stores listing images and hands back public URLs.
type UploadHTTP interface {
	UploadImage(c *gin.Context)
}

type UploadHandler struct {
	Uploader s3.Uploader
	Logger   *slog.Logger
}

func (h UploadHandler) UploadImage(c *gin.Context) {
	principal, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads unavailable"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > s3.MaxImageSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %d MB)", s3.MaxImageSizeBytes/1024/1024)})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s3.MaxImageSizeBytes+1))
	if err != nil {
		h.respondUploadError(c, fmt.Errorf("read file: %w", err))
		return
	}

	url, err := h.Uploader.UploadListingImage(c.Request.Context(), principal.ID, fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, s3.ErrEmptyImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is empty"})
		case errors.Is(err, s3.ErrImageTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file too large (max %d MB)", s3.MaxImageSizeBytes/1024/1024)})
		case errors.Is(err, s3.ErrUnsupportedImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.respondUploadError(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

func (h UploadHandler) respondUploadError(c *gin.Context, err error) {
	if h.Logger != nil {
		h.Logger.Error("image upload failed", "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
}

var _ UploadHTTP = UploadHandler{}
