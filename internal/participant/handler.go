package participant

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/service"
)

type ParticipantHandler struct {
	participants *service.ParticipantService
	rankings     *service.RankingService
	publicLimit  int
	cookieSecure bool
}

func NewParticipantHandler(participants *service.ParticipantService, rankings *service.RankingService, publicLimit int, cookieSecure bool) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, rankings: rankings, publicLimit: publicLimit, cookieSecure: cookieSecure}
}

func (h *ParticipantHandler) RegisterRoutes(public, participant *gin.RouterGroup) {
	public.POST("/participants/register", h.Register)
	public.GET("/rankings", h.PublicRankings)

	participant.GET("/me", h.Me)
	participant.POST("/video/upload-url", h.UploadURL)
	participant.POST("/video/confirm", h.ConfirmUpload)
}

func (h *ParticipantHandler) Register(c *gin.Context) {
	var input service.RegistrationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	registration, err := h.participants.Register(c.Request.Context(), input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.SetAuthCookie(c, registration.Session.Token, registration.Session.ExpiresAt, h.cookieSecure)
	pkg.Respond(c, http.StatusCreated, registration)
}

func (h *ParticipantHandler) Me(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	view, err := h.participants.Me(c.Request.Context(), identity.Subject)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, view)
}

func (h *ParticipantHandler) UploadURL(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	var req struct {
		Filename    string `json:"filename" binding:"required"`
		ContentType string `json:"contentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	target, err := h.participants.UploadTarget(c.Request.Context(), identity.Subject, req.Filename, req.ContentType)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, target)
}

func (h *ParticipantHandler) ConfirmUpload(c *gin.Context) {
	identity, _ := pkg.CurrentIdentity(c)
	var input service.UploadConfirmation
	if err := c.ShouldBindJSON(&input); err != nil {
		pkg.BadRequest(c, err.Error())
		return
	}

	video, err := h.participants.ConfirmUpload(c.Request.Context(), identity.Subject, input)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, video)
}

// PublicRankings serves the leaderboard once the administrator made scores public.
func (h *ParticipantHandler) PublicRankings(c *gin.Context) {
	entries, err := h.rankings.PublicRankings(c.Request.Context(), h.publicLimit)
	if err != nil {
		pkg.RespondError(c, err)
		return
	}
	pkg.Respond(c, http.StatusOK, entries)
}
