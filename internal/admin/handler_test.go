package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/mailer"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/pkg"
	"santa3d-contest/internal/repository"
	"santa3d-contest/internal/service"
	"santa3d-contest/internal/testutil"
)

type staticMedia []instagram.Media

func (m staticMedia) TaggedMedia(context.Context) ([]instagram.Media, error) {
	return m, nil
}

type harness struct {
	router  *gin.Engine
	repo    *repository.Repository
	headers map[string]string
}

func setupAdmin(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	repo := repository.NewRepository(testutil.NewDB(t))
	tokens := pkg.NewTokenManager("test-secret", time.Hour)
	audit := service.NewAuditTrail(repo)
	media := staticMedia{}
	auth := service.NewAuthService(repo, tokens)
	require.NoError(t, auth.EnsureAdmin(context.Background(), "admin@santa3d.test", "northpole"))

	h := NewAdminHandler(Services{
		Auth:        auth,
		Criteria:    service.NewCriteriaService(repo, audit),
		Judges:      service.NewJudgeService(repo, mailer.NewSendGridMailer("", "", ""), nil, audit),
		Evaluations: service.NewEvaluationService(repo, nil),
		Videos:      service.NewVideoService(repo, audit),
		Rankings:    service.NewRankingService(repo, 3),
		Likes:       service.NewLikeService(repo, media, nil, audit),
		Instagram:   service.NewInstagramSettings(repo, instagram.Credentials{}, audit),
		Contest:     service.NewContestService(repo, media, audit, nil),
		Audit:       audit,
	}, false)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api, api.Group("/admin", pkg.RoleAuthMiddleware(tokens, models.RoleAdmin)))

	res := testutil.PerformRequest(router, http.MethodPost, "/api/v1/admin/login", gin.H{"email": "admin@santa3d.test", "password": "northpole"}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var session service.Session
	require.NoError(t, json.Unmarshal(testutil.Decode(res).Data, &session))
	assert.NotEmpty(t, res.Header().Get("Set-Cookie"))

	return &harness{router: router, repo: repo, headers: map[string]string{"Authorization": "Bearer " + session.Token}}
}

func (h *harness) do(method, path string, body interface{}) (int, testutil.Envelope) {
	res := testutil.PerformRequest(h.router, method, path, body, h.headers)
	return res.Code, testutil.Decode(res)
}

func TestAdminLoginRejectsBadPassword(t *testing.T) {
	h := setupAdmin(t)
	res := testutil.PerformRequest(h.router, http.MethodPost, "/api/v1/admin/login", gin.H{"email": "admin@santa3d.test", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = testutil.PerformRequest(h.router, http.MethodGet, "/api/v1/admin/criteria", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAdminCriteriaAndJudges(t *testing.T) {
	h := setupAdmin(t)

	status, env := h.do(http.MethodPost, "/api/v1/admin/criteria", gin.H{"name": "Technique", "weight": 0.4, "maxScore": 10})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var criterion models.Criterion
	require.NoError(t, json.Unmarshal(env.Data, &criterion))

	status, env = h.do(http.MethodPut, "/api/v1/admin/criteria/"+criterion.ID.String(), gin.H{"name": "Technique", "weight": 0.5, "maxScore": 20})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, _ = h.do(http.MethodPost, "/api/v1/admin/criteria", gin.H{"name": "", "weight": 0.4, "maxScore": 10})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = h.do(http.MethodPost, "/api/v1/admin/judges", gin.H{"name": "Comet", "email": "comet@santa3d.test"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var account service.JudgeAccount
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.NotEmpty(t, account.TemporaryPassword)

	status, env = h.do(http.MethodPost, "/api/v1/admin/judges", gin.H{"name": "Comet", "email": "comet@santa3d.test"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "JUDGE_EMAIL_TAKEN", env.Code)

	status, _ = h.do(http.MethodPut, "/api/v1/admin/judges/"+account.Judge.ID.String()+"/active", gin.H{"active": false})
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(http.MethodPut, "/api/v1/admin/judges/"+account.Judge.ID.String()+"/active", gin.H{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = h.do(http.MethodDelete, "/api/v1/admin/judges/"+account.Judge.ID.String(), nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = h.do(http.MethodDelete, "/api/v1/admin/judges/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAdminVideoModeration(t *testing.T) {
	h := setupAdmin(t)
	ctx := context.Background()
	p := models.Participant{FirstName: "Ana", LastName: "Claus", Email: "ana@santa3d.test"}
	require.NoError(t, h.repo.CreateParticipant(ctx, &p))
	v := models.Video{ParticipantID: p.ID, Status: models.VideoPendingValidation}
	require.NoError(t, h.repo.CreateVideo(ctx, &v))
	base := "/api/v1/admin/videos/" + v.ID.String()

	status, env := h.do(http.MethodPut, base+"/selection", gin.H{"selected": true})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "VIDEO_NOT_VALIDATED", env.Code)

	status, _ = h.do(http.MethodPost, base+"/validate", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = h.do(http.MethodPost, "/api/v1/admin/videos/bulk-approve", gin.H{"videoIds": []string{v.ID.String()}})
	require.Equal(t, http.StatusOK, status, env.Error)
	var bulk service.BulkApproveResult
	require.NoError(t, json.Unmarshal(env.Data, &bulk))
	assert.Len(t, bulk.Selected, 1)

	status, _ = h.do(http.MethodGet, "/api/v1/admin/videos?status=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = h.do(http.MethodGet, "/api/v1/admin/videos?status=VALIDATED", nil)
	require.Equal(t, http.StatusOK, status)
	var videos []service.VideoView
	require.NoError(t, json.Unmarshal(env.Data, &videos))
	require.Len(t, videos, 1)
	assert.True(t, videos[0].IsJudgeSelected)

	status, _ = h.do(http.MethodGet, "/api/v1/admin/rankings?minEvaluations=abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, env = h.do(http.MethodGet, "/api/v1/admin/rankings?minEvaluations=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAdminContestLifecycle(t *testing.T) {
	h := setupAdmin(t)

	status, env := h.do(http.MethodPost, "/api/v1/admin/contest/close", nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = h.do(http.MethodPost, "/api/v1/admin/contest/close", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONTEST_ALREADY_CLOSED", env.Code)

	status, env = h.do(http.MethodGet, "/api/v1/admin/contest", nil)
	require.Equal(t, http.StatusOK, status)
	var overview service.ContestOverview
	require.NoError(t, json.Unmarshal(env.Data, &overview))
	assert.True(t, overview.State.Closed)

	status, _ = h.do(http.MethodPost, "/api/v1/admin/contest/snapshot-likes", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodPost, "/api/v1/admin/contest/reopen", nil)
	assert.Equal(t, http.StatusOK, status)
	status, env = h.do(http.MethodPost, "/api/v1/admin/contest/reopen", nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONTEST_NOT_CLOSED", env.Code)

	status, _ = h.do(http.MethodPut, "/api/v1/admin/contest/public-scores", gin.H{"visible": true})
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodPost, "/api/v1/admin/instagram/sync", nil)
	assert.Equal(t, http.StatusOK, status)

	status, env = h.do(http.MethodGet, "/api/v1/admin/audit-logs?limit=50", nil)
	require.Equal(t, http.StatusOK, status)
	var logs []models.AuditLog
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	actions := make([]string, 0, len(logs))
	for _, entry := range logs {
		actions = append(actions, entry.Action)
	}
	assert.Contains(t, actions, "contest.close")
	assert.Contains(t, actions, "contest.reopen")
	assert.Contains(t, actions, "instagram.sync")
}

func TestAdminInstagramConfig(t *testing.T) {
	h := setupAdmin(t)

	status, env := h.do(http.MethodPut, "/api/v1/admin/instagram/config", gin.H{"accessToken": "secret-token-abcd", "businessAccountId": "17841400000000"})
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = h.do(http.MethodGet, "/api/v1/admin/instagram/config", nil)
	require.Equal(t, http.StatusOK, status)
	var view service.InstagramSettingsView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "database", view.Source)
	assert.Equal(t, "****abcd", view.TokenHint)
	assert.NotContains(t, string(env.Data), "secret-token")
}
