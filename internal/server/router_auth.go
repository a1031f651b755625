package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sojourn-labs/sojourn/backend/internal/auth"
	"go.uber.org/zap"
)

func (h *httpHandler) handleSignUp(c *gin.Context) {
	input := auth.SignUpInput{
		Email:       c.PostForm("email"),
		Password:    c.PostForm("password"),
		Name:        c.PostForm("name"),
		DateOfBirth: c.PostForm("date_of_birth"),
	}

	account, err := h.accounts.SignUp(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingSignUpFields):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"form": "Email, password, and name are required"}})
		case errors.Is(err, auth.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"password": "Password must be at least 8 characters"}})
		case errors.Is(err, auth.ErrInvalidDateOfBirth):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"dateOfBirth": "Date of birth must use the YYYY-MM-DD format"}})
		case errors.Is(err, auth.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"email": "Email is already registered"}})
		default:
			h.logger.Error("sign up failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	// Provision eagerly so the first /me load already has a profile row. The
	// lazy path covers this anyway, so a failure here is not fatal.
	if _, err := h.profiles.Provision(c.Request.Context(), account.ID, account.FullName); err != nil {
		h.logger.Warn("profile provisioning at sign up failed", zap.Error(err))
	}

	h.startSession(c, account.ID)
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	account, err := h.accounts.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"form": "Invalid email or password"}})
			return
		}
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	h.startSession(c, account.ID)
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	c.SetCookie(h.sessions.CookieName(), "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/auth")
}

func (h *httpHandler) handleResetPassword(c *gin.Context) {
	accountID := c.GetString(accountIDContextKey)
	password := c.PostForm("password")
	confirmation := c.PostForm("confirm_password")

	if password != confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"confirmPassword": "Passwords do not match"}})
		return
	}

	if err := h.accounts.UpdatePassword(c.Request.Context(), accountID, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"password": "Password must be at least 8 characters"}})
		case errors.Is(err, auth.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		default:
			h.logger.Error("password reset failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		}
		return
	}

	c.Redirect(http.StatusSeeOther, "/me")
}

func (h *httpHandler) startSession(c *gin.Context, accountID string) {
	token, _, err := h.sessions.Issue(accountID)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.SetCookie(h.sessions.CookieName(), token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/me")
}
