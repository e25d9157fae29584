package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tubedigest/domain/dto"
	"tubedigest/domain/model"
	"tubedigest/infrastructure/logger"
	"tubedigest/usecase"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

type IChannelHandler interface {
	ListDirectory(c *gin.Context)
	ListSelected(c *gin.Context)
	SelectChannels(c *gin.Context)
	ToggleChannel(c *gin.Context)
}

type ChannelHandler struct {
	channelUsecase usecase.IChannelUsecase
}

func NewChannelHandler(channelUsecase usecase.IChannelUsecase) IChannelHandler {
	return &ChannelHandler{channelUsecase: channelUsecase}
}

// ListDirectory handles GET /api/channels.
func (h *ChannelHandler) ListDirectory(c *gin.Context) {
	userID := c.GetString("user_id")
	channels, err := h.channelUsecase.ListDirectory(c.Request.Context(), userID)
	if err != nil {
		writeChannelError(c, err)
		return
	}
	if channels == nil {
		channels = []model.ChannelSummary{}
	}
	c.JSON(http.StatusOK, channels)
}

// ListSelected handles GET /api/channels/selected.
func (h *ChannelHandler) ListSelected(c *gin.Context) {
	userID := c.GetString("user_id")
	entries, err := h.channelUsecase.ListSelected(c.Request.Context(), userID)
	if err != nil {
		writeChannelError(c, err)
		return
	}
	selected := make([]dto.SelectedChannel, 0, len(entries))
	for _, e := range entries {
		selected = append(selected, dto.SelectedChannel{ChannelID: e.ChannelID, Title: e.Title})
	}
	c.JSON(http.StatusOK, selected)
}

// SelectChannels handles POST /api/channels/select, replacing the whole set.
func (h *ChannelHandler) SelectChannels(c *gin.Context) {
	var req dto.SelectChannelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}

	userID := c.GetString("user_id")
	if err := h.channelUsecase.ReplaceSelection(c.Request.Context(), userID, req.ChannelIDs, req.Titles); err != nil {
		writeChannelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SelectChannelsResponse{OK: true})
}

// ToggleChannel handles PUT /api/channels/:channelId.
func (h *ChannelHandler) ToggleChannel(c *gin.Context) {
	var req dto.ToggleChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
		return
	}

	userID := c.GetString("user_id")
	channelID := c.Param("channelId")
	if err := h.channelUsecase.ToggleChannel(c.Request.Context(), userID, channelID, req.Title, req.Selected); err != nil {
		writeChannelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToggleChannelResponse{OK: true, Selected: req.Selected})
}

// writeChannelError maps domain errors onto the HTTP contract: the cap is a
// 400 with machine-readable code, an upstream outage a 503, a dead
// credential a 401.
func writeChannelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrLimitExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit_exceeded", "limit": model.SelectionCap})
	case errors.Is(err, model.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "upstream_unavailable"})
	case errors.Is(err, model.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"})
	default:
		logger.GetLogger().WithField("error", err).Error("channel operation failed")
		c.JSON(http.StatusInternalServerError, dto.Res{ResponseCode: "500", ResponseMessage: "Internal Server Error"})
	}
}
