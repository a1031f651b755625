package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sojourn-labs/sojourn/backend/internal/avatar"
	"github.com/sojourn-labs/sojourn/backend/internal/profile"
	"go.uber.org/zap"
)

const defaultActivityPoints = 10

type meProfilePayload struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	FullName        string     `json:"full_name"`
	Gender          string     `json:"gender"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	State           string     `json:"state"`
	Tags            string     `json:"tags"`
	Bio             string     `json:"bio"`
	ProfileImageURL string     `json:"profile_image_url"`
	Endorsements    int64      `json:"endorsements"`
	BlogCount       int64      `json:"blog_count"`
	PlacesExplored  int64      `json:"places_explored"`
	ActivityPoints  int64      `json:"activity_points"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (h *httpHandler) handleMe(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.logger.Error("failed to load account", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	stored, err := h.profiles.Provision(c.Request.Context(), accountID, account.FullName)
	if err != nil {
		h.logger.Error("failed to provision profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":              meProfileFromModel(stored),
		"completionPercentage": profile.Completion(stored),
		"avatar": avatar.NewProps(avatar.PropsUser{
			ID:              stored.ID,
			Username:        stored.Username,
			FullName:        stored.FullName,
			Email:           account.Email,
			ProfileImageURL: stored.ProfileImageURL,
		}, ""),
	})
}

func (h *httpHandler) handleProfileUpdate(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	input := profile.UpdateInput{
		FullName:    c.PostForm("full_name"),
		Username:    c.PostForm("username"),
		Gender:      c.PostForm("gender"),
		DateOfBirth: c.PostForm("date_of_birth"),
		State:       c.PostForm("state"),
		Tags:        c.PostForm("tags"),
		Bio:         c.PostForm("bio"),
	}

	result, err := h.profiles.Update(c.Request.Context(), accountID, input)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.Error("profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if len(result.FieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": result.FieldErrors})
		return
	}
	if result.MetadataSyncErr != nil {
		h.logger.Warn("account metadata sync failed", zap.Error(result.MetadataSyncErr))
	}

	c.Redirect(http.StatusSeeOther, "/me")
}

func (h *httpHandler) handleProfilePage(c *gin.Context) {
	requested := c.Param("username")
	canonical := strings.ToLower(strings.TrimSpace(requested))
	if h.canonicalRedirect && requested != canonical && canonical != "" {
		c.Redirect(http.StatusMovedPermanently, "/profile/"+canonical)
		return
	}

	viewerID := c.GetString(accountIDContextKey)
	result, err := h.profiles.Lookup(c.Request.Context(), requested, viewerID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.Error("profile lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":      result.Profile,
		"isOwnProfile": result.IsOwnProfile,
		"avatar": avatar.NewProps(avatar.PropsUser{
			ID:              result.Profile.ID,
			Username:        result.Profile.Username,
			FullName:        result.Profile.FullName,
			ProfileImageURL: result.Profile.ProfileImageURL,
		}, ""),
	})
}

func (h *httpHandler) handleSearchUsers(c *gin.Context) {
	viewerID := c.GetString(accountIDContextKey)

	users, err := h.profiles.Search(c.Request.Context(), viewerID, c.Query("q"))
	if err != nil {
		h.logger.Error("user search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

func (h *httpHandler) handleIncrementBlogs(c *gin.Context) {
	h.applyCounter(c, h.profiles.IncrementBlogCount)
}

func (h *httpHandler) handleIncrementPlaces(c *gin.Context) {
	h.applyCounter(c, h.profiles.IncrementPlacesExplored)
}

func (h *httpHandler) handleIncrementEndorsements(c *gin.Context) {
	h.applyCounter(c, h.profiles.IncrementEndorsements)
}

func (h *httpHandler) handleActivityPoints(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)

	points := int64(defaultActivityPoints)
	if raw := strings.TrimSpace(c.PostForm("points")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Points must be a positive number"})
			return
		}
		points = parsed
	}

	if err := h.profiles.AddActivityPoints(c.Request.Context(), accountID, points); err != nil {
		h.counterError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/me")
}

func (h *httpHandler) applyCounter(c *gin.Context, bump func(ctx context.Context, accountID string) error) {
	accountID := c.GetString(accountIDContextKey)
	if err := bump(c.Request.Context(), accountID); err != nil {
		h.counterError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/me")
}

func (h *httpHandler) counterError(c *gin.Context, err error) {
	if errors.Is(err, profile.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	h.logger.Error("counter update failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

func meProfileFromModel(stored *profile.Profile) meProfilePayload {
	return meProfilePayload{
		ID:              stored.ID,
		Username:        stored.Username,
		FullName:        stored.FullName,
		Gender:          stored.Gender,
		DateOfBirth:     stored.DateOfBirth,
		State:           stored.State,
		Tags:            stored.Tags,
		Bio:             stored.Bio,
		ProfileImageURL: stored.ProfileImageURL,
		Endorsements:    stored.Endorsements,
		BlogCount:       stored.BlogCount,
		PlacesExplored:  stored.PlacesExplored,
		ActivityPoints:  stored.ActivityPoints,
		CreatedAt:       stored.CreatedAt,
		UpdatedAt:       stored.UpdatedAt,
	}
}
