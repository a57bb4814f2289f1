package pkg

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/service"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

func Respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: message, Code: string(service.KindValidation)})
}

// RespondError maps a service error onto its HTTP status. Internal failures are logged
// and answered with a generic message.
func RespondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusFor(kind)
	message := err.Error()

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	if status >= http.StatusInternalServerError {
		logging.Log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err,
		}).Error("request failed")
		if kind == service.KindInternal {
			message = "internal server error"
		}
	}
	c.JSON(status, Envelope{Success: false, Error: message, Code: service.CodeOf(err)})
}

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindStateConflict:
		return http.StatusConflict
	case service.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ParseID reads a UUID path parameter, answering 400 when it is malformed.
func ParseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// SetAuthCookie mirrors the session token into an HTTP-only cookie.
func SetAuthCookie(c *gin.Context, token string, expiresAt time.Time, secure bool) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, maxAge, "/", "", secure, true)
}

// Actor builds the audit actor of the authenticated caller.
func Actor(c *gin.Context) service.Actor {
	identity, ok := CurrentIdentity(c)
	if !ok {
		return service.SystemActor
	}
	return service.Actor{ID: identity.Subject.String(), Role: identity.Role}
}
