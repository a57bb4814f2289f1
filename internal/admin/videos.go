package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"santa3d-contest/internal/models"
	"santa3d-contest/internal/pkg"
)

func (h *AdminHandler) ListVideos(c *gin.Context) {
	videos, err := h.svc.Videos.List(c.Request.Context(), models.VideoStatus(c.Query("status")))
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, videos)
}

func (h *AdminHandler) ValidateVideo(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	video, err := h.svc.Videos.Validate(c.Request.Context(), pkg.Actor(c), id)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, video)
}

func (h *AdminHandler) RejectVideo(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			pkg.BadRequest(c, err.Error())
			return
		}
	}
	video, err := h.svc.Videos.Reject(c.Request.Context(), pkg.Actor(c), id, req.Reason)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, video)
}

func (h *AdminHandler) SetSelection(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Selected *bool `json:"selected" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	video, err := h.svc.Videos.SetJudgeSelection(c.Request.Context(), pkg.Actor(c), id, *req.Selected)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, video)
}

func (h *AdminHandler) BulkApprove(c *gin.Context) {
	var req struct {
		VideoIDs []uuid.UUID `json:"videoIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Videos.BulkApprove(c.Request.Context(), pkg.Actor(c), req.VideoIDs)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, result)
}

// Rankings accepts optional minEvaluations and limit query parameters.
func (h *AdminHandler) Rankings(c *gin.Context) {
	minEvaluations, ok := intQuery(c, "minEvaluations", h.svc.Rankings.DefaultMinEvaluations())
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	entries, err := h.svc.Rankings.ComputeRankings(c.Request.Context(), minEvaluations, limit)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, entries)
}

func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		pkg.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return value, true
}
