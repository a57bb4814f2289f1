package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/service"
)

type Services struct {
	Auth        *service.AuthService
	Criteria    *service.CriteriaService
	Judges      *service.JudgeService
	Evaluations *service.EvaluationService
	Videos      *service.VideoService
	Rankings    *service.RankingService
	Likes       *service.LikeService
	Instagram   *service.InstagramSettings
	Contest     *service.ContestService
	Audit       *service.AuditTrail
}

type AdminHandler struct {
	svc          Services
	cookieSecure bool
}

func NewAdminHandler(svc Services, cookieSecure bool) *AdminHandler {
	return &AdminHandler{svc: svc, cookieSecure: cookieSecure}
}

// RegisterRoutes mounts the login on public and everything else on the admin group,
// which is expected to carry the admin auth middleware.
func (h *AdminHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/admin/login", h.Login)

	admin.GET("/criteria", h.ListCriteria)
	admin.POST("/criteria", h.CreateCriterion)
	admin.PUT("/criteria/:id", h.UpdateCriterion)
	admin.DELETE("/criteria/:id", h.DeleteCriterion)

	admin.GET("/judges", h.ListJudges)
	admin.POST("/judges", h.CreateJudge)
	admin.POST("/judges/:id/reset-password", h.ResetJudgePassword)
	admin.PUT("/judges/:id/active", h.SetJudgeActive)
	admin.DELETE("/judges/:id", h.DeleteJudge)
	admin.GET("/judges/:id/evaluations", h.JudgeEvaluations)

	admin.GET("/videos", h.ListVideos)
	admin.POST("/videos/:id/validate", h.ValidateVideo)
	admin.POST("/videos/:id/reject", h.RejectVideo)
	admin.PUT("/videos/:id/selection", h.SetSelection)
	admin.POST("/videos/bulk-approve", h.BulkApprove)

	admin.GET("/rankings", h.Rankings)

	admin.POST("/instagram/sync", h.SyncLikes)
	admin.GET("/instagram/config", h.InstagramConfig)
	admin.PUT("/instagram/config", h.SaveInstagramConfig)

	admin.GET("/contest", h.ContestState)
	admin.POST("/contest/close", h.CloseContest)
	admin.POST("/contest/reopen", h.ReopenContest)
	admin.POST("/contest/snapshot-likes", h.SnapshotLikes)
	admin.PUT("/contest/public-scores", h.SetPublicScores)

	admin.GET("/audit-logs", h.AuditLogs)
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	session, err := h.svc.Auth.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.SetAuthCookie(c, session.Token, session.ExpiresAt, h.cookieSecure)
	pkg.Respond(c, http.StatusOK, session)
}

func (h *AdminHandler) ListCriteria(c *gin.Context) {
	list, err := h.svc.Criteria.List(c.Request.Context())
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, list)
}

func (h *AdminHandler) CreateCriterion(c *gin.Context) {
	var input service.CriterionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	criterion, err := h.svc.Criteria.Create(c.Request.Context(), pkg.Actor(c), input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusCreated, criterion)
}

func (h *AdminHandler) UpdateCriterion(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	var input service.CriterionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	criterion, err := h.svc.Criteria.Update(c.Request.Context(), pkg.Actor(c), id, input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, criterion)
}

func (h *AdminHandler) DeleteCriterion(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Criteria.Delete(c.Request.Context(), pkg.Actor(c), id); err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *AdminHandler) ListJudges(c *gin.Context) {
	judges, err := h.svc.Judges.List(c.Request.Context())
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, judges)
}

func (h *AdminHandler) CreateJudge(c *gin.Context) {
	var input service.JudgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	account, err := h.svc.Judges.Create(c.Request.Context(), pkg.Actor(c), input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusCreated, account)
}

func (h *AdminHandler) ResetJudgePassword(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	account, err := h.svc.Judges.ResetPassword(c.Request.Context(), pkg.Actor(c), id)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, account)
}

func (h *AdminHandler) SetJudgeActive(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}
	judge, err := h.svc.Judges.SetActive(c.Request.Context(), pkg.Actor(c), id, *req.Active)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, judge)
}

func (h *AdminHandler) DeleteJudge(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Judges.Delete(c.Request.Context(), pkg.Actor(c), id); err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *AdminHandler) JudgeEvaluations(c *gin.Context) {
	id, ok := pkg.ParseID(c, "id")
	if !ok {
		return
	}
	evaluations, err := h.svc.Evaluations.ListJudgeEvaluations(c.Request.Context(), id)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, evaluations)
}
