package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Thiritin/shifty/internal/service"
	appErrors "github.com/Thiritin/shifty/pkg/errors"
	"github.com/Thiritin/shifty/pkg/response"
)

// AuthHandler exposes the identity-provider login flow.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login godoc
// @Summary Redirect to the identity provider
// @Tags Auth
// @Success 307
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url, err := h.auth.BeginLogin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback godoc
// @Summary Complete the identity provider login
// @Tags Auth
// @Produce json
// @Param state query string true "Login state"
// @Param code query string true "Authorization code"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Account outside the allowed group"
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	login, err := h.auth.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, login)
}

// Logout godoc
// @Summary Log out the current session
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.auth.Logout(c.Request.Context(), claims.UserID)
	response.NoContent(c)
}

// Me godoc
// @Summary Return the authenticated user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
