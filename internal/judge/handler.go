package judge

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/service"
)

type JudgeHandler struct {
	auth         *service.AuthService
	judges       *service.JudgeService
	criteria     *service.CriteriaService
	evaluations  *service.EvaluationService
	cookieSecure bool
}

func NewJudgeHandler(auth *service.AuthService, judges *service.JudgeService, criteria *service.CriteriaService, evaluations *service.EvaluationService, cookieSecure bool) *JudgeHandler {
	return &JudgeHandler{
		auth:         auth,
		judges:       judges,
		criteria:     criteria,
		evaluations:  evaluations,
		cookieSecure: cookieSecure,
	}
}

func (h *JudgeHandler) RegisterRoutes(public, judge *gin.RouterGroup) {
	public.POST("/judge/login", h.Login)

	judge.POST("/change-password", h.ChangePassword)
	judge.GET("/criteria", h.Criteria)
	judge.GET("/videos", h.Videos)
	judge.POST("/evaluations", h.SubmitEvaluation)
	judge.GET("/evaluations", h.Evaluations)
}

func (h *JudgeHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	session, err := h.auth.JudgeLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.SetAuthCookie(c, session.Token, session.ExpiresAt, h.cookieSecure)
	pkg.Respond(c, http.StatusOK, session)
}

func (h *JudgeHandler) ChangePassword(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	var req struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	session, err := h.auth.ChangeJudgePassword(c.Request.Context(), identity.Subject, req.OldPassword, req.NewPassword)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.SetAuthCookie(c, session.Token, session.ExpiresAt, h.cookieSecure)
	pkg.Respond(c, http.StatusOK, session)
}

func (h *JudgeHandler) Criteria(c *gin.Context) {
	list, err := h.criteria.List(c.Request.Context())
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, list)
}

func (h *JudgeHandler) Videos(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	videos, err := h.judges.SelectedVideos(c.Request.Context(), identity.Subject)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, videos)
}

func (h *JudgeHandler) SubmitEvaluation(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	var input service.SubmitEvaluationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	result, err := h.evaluations.SubmitEvaluation(c.Request.Context(), identity.Subject, input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, result)
}

func (h *JudgeHandler) Evaluations(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	evaluations, err := h.evaluations.ListJudgeEvaluations(c.Request.Context(), identity.Subject)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, evaluations)
}
