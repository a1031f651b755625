package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sojourn-labs/sojourn/backend/internal/auth"
	"github.com/sojourn-labs/sojourn/backend/internal/endorse"
	"github.com/sojourn-labs/sojourn/backend/internal/picture"
	"github.com/sojourn-labs/sojourn/backend/internal/profile"
	"go.uber.org/zap"
)

const accountIDContextKey = "sojourn_account_id"

var (
	errMissingSessionManager     = errors.New("session manager dependency required")
	errMissingAccountsService    = errors.New("accounts service dependency required")
	errMissingProfileService     = errors.New("profile service dependency required")
	errMissingEndorsementService = errors.New("endorsement service dependency required")
	errMissingPictureService     = errors.New("picture service dependency required")
)

type Dependencies struct {
	Sessions          *auth.SessionManager
	Accounts          *auth.Accounts
	Profiles          *profile.Service
	Endorsements      *endorse.Service
	Pictures          *picture.Service
	Logger            *zap.Logger
	CanonicalRedirect bool

	// UploadDir, when set, is served read-only under UploadBaseURL so locally
	// stored profile pictures resolve without a separate file server.
	UploadDir     string
	UploadBaseURL string
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Sessions == nil {
		return nil, errMissingSessionManager
	}
	if deps.Accounts == nil {
		return nil, errMissingAccountsService
	}
	if deps.Profiles == nil {
		return nil, errMissingProfileService
	}
	if deps.Endorsements == nil {
		return nil, errMissingEndorsementService
	}
	if deps.Pictures == nil {
		return nil, errMissingPictureService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	handler := &httpHandler{
		sessions:          deps.Sessions,
		accounts:          deps.Accounts,
		profiles:          deps.Profiles,
		endorsements:      deps.Endorsements,
		pictures:          deps.Pictures,
		logger:            logger,
		canonicalRedirect: deps.CanonicalRedirect,
	}

	router.GET("/healthz", handler.handleHealth)

	router.POST("/auth/signup", handler.handleSignUp)
	router.POST("/auth/login", handler.handleLogin)
	router.POST("/auth/logout", handler.handleLogout)

	router.GET("/profile/:username", handler.optionalSession, handler.handleProfilePage)

	api := router.Group("/api")
	api.GET("/endorsements/list", handler.optionalSession, handler.handleEndorsementList)

	apiAuthed := router.Group("/api")
	apiAuthed.Use(handler.requireSessionJSON)
	apiAuthed.GET("/endorsements", handler.handleEndorsementStatus)
	apiAuthed.POST("/endorsements", handler.handleEndorsementCreate)
	apiAuthed.DELETE("/endorsements", handler.handleEndorsementDelete)
	apiAuthed.GET("/search-users", handler.handleSearchUsers)
	apiAuthed.POST("/upload-profile-picture", handler.handlePictureUpload)
	apiAuthed.DELETE("/upload-profile-picture", handler.handlePictureDelete)

	me := router.Group("/me")
	me.Use(handler.requireSessionPage)
	me.GET("", handler.handleMe)
	me.POST("", handler.handleProfileUpdate)
	me.POST("/increment-blogs", handler.handleIncrementBlogs)
	me.POST("/increment-places", handler.handleIncrementPlaces)
	me.POST("/increment-endorsements", handler.handleIncrementEndorsements)
	me.POST("/activity-points", handler.handleActivityPoints)

	authed := router.Group("/auth")
	authed.Use(handler.requireSessionPage)
	authed.POST("/reset-password", handler.handleResetPassword)

	if deps.UploadDir != "" && deps.UploadBaseURL != "" {
		router.Static(deps.UploadBaseURL, deps.UploadDir)
	}

	return router, nil
}

type httpHandler struct {
	sessions          *auth.SessionManager
	accounts          *auth.Accounts
	profiles          *profile.Service
	endorsements      *endorse.Service
	pictures          *picture.Service
	logger            *zap.Logger
	canonicalRedirect bool
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireSessionJSON guards JSON API routes. A missing or invalid session
// yields 401 rather than a redirect.
func (h *httpHandler) requireSessionJSON(c *gin.Context) {
	accountID, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authentication required"})
		return
	}
	c.Set(accountIDContextKey, accountID)
	c.Next()
}

// requireSessionPage guards form-action routes. Browsers land on /auth when
// the session is missing or stale.
func (h *httpHandler) requireSessionPage(c *gin.Context) {
	accountID, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/auth")
		c.Abort()
		return
	}
	c.Set(accountIDContextKey, accountID)
	c.Next()
}

// optionalSession records the viewer when a valid session is present and
// passes anonymous requests through untouched.
func (h *httpHandler) optionalSession(c *gin.Context) {
	if accountID, err := h.sessions.ValidateRequest(c.Request); err == nil {
		c.Set(accountIDContextKey, accountID)
	}
	c.Next()
}
