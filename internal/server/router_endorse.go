package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sojourn-labs/sojourn/backend/internal/endorse"
	"go.uber.org/zap"
)

type endorsementRequestPayload struct {
	EndorsedUserID string `json:"endorsed_user_id"`
}

func (h *httpHandler) handleEndorsementCreate(c *gin.Context) {
	var request endorsementRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Endorsed user ID is required"})
		return
	}

	endorserID := c.GetString(accountIDContextKey)
	displayName, err := h.endorsements.Create(c.Request.Context(), endorserID, request.EndorsedUserID)
	if err != nil {
		switch {
		case errors.Is(err, endorse.ErrMissingEndorsedID):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Endorsed user ID is required"})
		case errors.Is(err, endorse.ErrSelfEndorsement):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Cannot endorse yourself"})
		case errors.Is(err, endorse.ErrAlreadyEndorsed):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "You have already endorsed this user"})
		case errors.Is(err, endorse.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
		default:
			h.logger.Error("endorsement create failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully endorsed " + displayName})
}

func (h *httpHandler) handleEndorsementDelete(c *gin.Context) {
	var request endorsementRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Endorsed user ID is required"})
		return
	}

	endorserID := c.GetString(accountIDContextKey)
	if err := h.endorsements.Delete(c.Request.Context(), endorserID, request.EndorsedUserID); err != nil {
		if errors.Is(err, endorse.ErrMissingEndorsedID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Endorsed user ID is required"})
			return
		}
		h.logger.Error("endorsement delete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Endorsement removed successfully"})
}

func (h *httpHandler) handleEndorsementStatus(c *gin.Context) {
	viewerID := c.GetString(accountIDContextKey)

	status, err := h.endorsements.Status(c.Request.Context(), viewerID, c.Query("user_id"))
	if err != nil {
		if errors.Is(err, endorse.ErrMissingEndorsedID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "User ID is required"})
			return
		}
		h.logger.Error("endorsement status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"has_endorsed":      status.HasEndorsed,
		"endorsement_count": status.Count,
		"user": gin.H{
			"username":  status.Username,
			"full_name": status.FullName,
		},
	})
}

func (h *httpHandler) handleEndorsementList(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.endorsements.List(c.Request.Context(), c.Query("user_id"), page, limit)
	if err != nil {
		if errors.Is(err, endorse.ErrMissingEndorsedID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "User ID is required"})
			return
		}
		h.logger.Error("endorsement list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"endorsements": result.Items,
		"total":        result.Total,
		"page":         result.Page,
		"limit":        result.Limit,
		"has_more":     result.HasMore,
	})
}
