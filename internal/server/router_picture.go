package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sojourn-labs/sojourn/backend/internal/picture"
	"go.uber.org/zap"
)

func (h *httpHandler) handlePictureUpload(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file provided"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}
	defer file.Close()

	result, err := h.pictures.Upload(c.Request.Context(), accountID, picture.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		switch {
		case errors.Is(err, picture.ErrMissingFile):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No file provided"})
		case errors.Is(err, picture.ErrNotAnImage):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File must be an image"})
		case errors.Is(err, picture.ErrTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "File size must be less than 5MB"})
		default:
			h.logger.Error("profile picture upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		}
		return
	}
	if result.CleanupErr != nil {
		h.logger.Warn("failed to delete previous profile picture", zap.Error(result.CleanupErr))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": result.URL,
		"message":  "Profile picture updated successfully",
	})
}

func (h *httpHandler) handlePictureDelete(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	if err := h.pictures.Delete(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, picture.ErrNoPicture) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No profile picture to delete"})
			return
		}
		h.logger.Error("profile picture delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile picture deleted successfully"})
}
