package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/service"
)

const defaultAuditLimit = 100

func (h *AdminHandler) SyncLikes(c *gin.Context) {
	result, err := h.svc.Likes.SyncLikes(c.Request.Context(), pkg.Actor(c))
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, result)
}

func (h *AdminHandler) InstagramConfig(c *gin.Context) {
	view, err := h.svc.Instagram.View(c.Request.Context())
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, view)
}

func (h *AdminHandler) SaveInstagramConfig(c *gin.Context) {
	var input service.InstagramSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	view, err := h.svc.Instagram.Save(c.Request.Context(), pkg.Actor(c), input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, view)
}

func (h *AdminHandler) ContestState(c *gin.Context) {
	overview, err := h.svc.Contest.Overview(c.Request.Context())
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, overview)
}

func (h *AdminHandler) CloseContest(c *gin.Context) {
	result, err := h.svc.Contest.CloseContest(c.Request.Context(), pkg.Actor(c))
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, result)
}

func (h *AdminHandler) ReopenContest(c *gin.Context) {
	state, err := h.svc.Contest.ReopenContest(c.Request.Context(), pkg.Actor(c))
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, state)
}

func (h *AdminHandler) SnapshotLikes(c *gin.Context) {
	result, err := h.svc.Contest.SnapshotLikes(c.Request.Context(), pkg.Actor(c))
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, result)
}

func (h *AdminHandler) SetPublicScores(c *gin.Context) {
	var req struct {
		Visible *bool `json:"visible" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	state, err := h.svc.Contest.SetPublicScores(c.Request.Context(), pkg.Actor(c), *req.Visible)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, state)
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	limit, ok := intQuery(c, "limit", defaultAuditLimit)
	if !ok {
		return
	}
	entries, err := h.svc.Audit.List(c.Request.Context(), limit)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, entries)
}
