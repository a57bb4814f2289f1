package pkg

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/models"
	"santa3d-contest/internal/service"
	"santa3d-contest/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *TokenManager) *gin.Engine {
	router := gin.New()
	judge := router.Group("/api/v1/judge", RoleAuthMiddleware(tokens, models.RoleJudge))
	whoami := func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		Respond(c, http.StatusOK, identity.Subject.String())
	}
	judge.GET("/videos", whoami)
	judge.POST("/change-password", whoami)
	return router
}

func bearer(t *testing.T, tokens *TokenManager, role models.Role, reset bool) (uuid.UUID, map[string]string) {
	id := uuid.New()
	signed, _, err := tokens.Issue(id, role, reset)
	require.NoError(t, err)
	return id, map[string]string{"Authorization": "Bearer " + signed}
}

func TestRoleAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	router := newAuthRouter(tokens)

	res := testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, map[string]string{"Authorization": "Bearer junk"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "invalid token", testutil.Decode(res).Error)

	_, headers := bearer(t, tokens, models.RoleAdmin, false)
	res = testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	id, headers := bearer(t, tokens, models.RoleJudge, false)
	res = testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, headers)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `"`+id.String()+`"`, string(testutil.Decode(res).Data))
}

func TestRoleAuthMiddlewareReadsCookie(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	router := newAuthRouter(tokens)
	signed, _, err := tokens.Issue(uuid.New(), models.RoleJudge, false)
	require.NoError(t, err)

	res := testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, map[string]string{"Cookie": AuthCookieName + "=" + signed})
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestResetRequiredOnlyReachesChangePassword(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	router := newAuthRouter(tokens)
	_, headers := bearer(t, tokens, models.RoleJudge, true)

	res := testutil.PerformRequest(router, http.MethodGet, "/api/v1/judge/videos", nil, headers)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "PASSWORD_RESET_REQUIRED", testutil.Decode(res).Code)

	res = testutil.PerformRequest(router, http.MethodPost, "/api/v1/judge/change-password", nil, headers)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
		code    string
	}{
		{&service.Error{Kind: service.KindValidation, Code: "VALIDATION_ERROR", Message: "bad score"}, http.StatusBadRequest, "bad score", "VALIDATION_ERROR"},
		{&service.Error{Kind: service.KindUnauthorized, Message: "invalid credentials"}, http.StatusUnauthorized, "invalid credentials", ""},
		{&service.Error{Kind: service.KindNotFound, Code: "VIDEO_NOT_FOUND", Message: "video not found"}, http.StatusNotFound, "video not found", "VIDEO_NOT_FOUND"},
		{&service.Error{Kind: service.KindStateConflict, Code: "CONTEST_ALREADY_CLOSED", Message: "closed"}, http.StatusConflict, "closed", "CONTEST_ALREADY_CLOSED"},
		{&service.Error{Kind: service.KindExternalService, Message: "instagram down", Err: errors.New("timeout")}, http.StatusBadGateway, "instagram down", ""},
		{&service.Error{Kind: service.KindInternal, Message: "db", Err: errors.New("boom")}, http.StatusInternalServerError, "internal server error", ""},
		{errors.New("plain"), http.StatusInternalServerError, "internal server error", ""},
	}
	for _, tc := range cases {
		router := gin.New()
		router.GET("/", func(c *gin.Context) { RespondError(c, tc.err) })

		res := testutil.PerformRequest(router, http.MethodGet, "/", nil, nil)
		env := testutil.Decode(res)
		assert.Equal(t, tc.status, res.Code, tc.message)
		assert.False(t, env.Success)
		assert.Equal(t, tc.message, env.Error)
		assert.Equal(t, tc.code, env.Code)
	}
}

func TestParseIDAndActor(t *testing.T) {
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := ParseID(c, "id")
		if !ok {
			return
		}
		actor := Actor(c)
		Respond(c, http.StatusOK, gin.H{"id": id, "actor": actor.ID})
	})

	res := testutil.PerformRequest(router, http.MethodGet, "/items/nope", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "invalid id", testutil.Decode(res).Error)

	id := uuid.New()
	res = testutil.PerformRequest(router, http.MethodGet, "/items/"+id.String(), nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"id":"`+id.String()+`","actor":"system"}`, string(testutil.Decode(res).Data))
}
