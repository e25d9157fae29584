package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tubedigest/domain/dto"
	"tubedigest/infrastructure/logger"
	"tubedigest/interfaces/middleware"
	"tubedigest/usecase"
)

type ISessionHandler interface {
	Me(c *gin.Context)
	Logout(c *gin.Context)
}

type SessionHandler struct {
	sessionUsecase usecase.ISessionUsecase
}

func NewSessionHandler(sessionUsecase usecase.ISessionUsecase) ISessionHandler {
	return &SessionHandler{sessionUsecase: sessionUsecase}
}

// Me handles GET /api/me. The auth middleware already verified the token;
// this is where a stale session for a deleted account gets caught.
func (h *SessionHandler) Me(c *gin.Context) {
	email := c.GetString("email")
	res, err := h.sessionUsecase.CurrentUser(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout handles POST /api/auth/logout. The cookie is cleared even when
// credential revocation fails; the client already dropped its local state.
func (h *SessionHandler) Logout(c *gin.Context) {
	email := c.GetString("email")
	if err := h.sessionUsecase.SignOut(c.Request.Context(), email); err != nil {
		logger.GetLogger().WithField("error", err).Warn("credential revocation failed during logout")
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "OK"})
}
