package pkg

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	subject := uuid.New()

	signed, expiresAt, err := tokens.Issue(subject, models.RoleJudge, true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	identity, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, subject, identity.Subject)
	assert.Equal(t, models.RoleJudge, identity.Role)
	assert.True(t, identity.ResetRequired)
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	signed, _, err := NewTokenManager("other", time.Hour).Issue(uuid.New(), models.RoleAdmin, false)
	require.NoError(t, err)

	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(uuid.New(), models.RoleAdmin, false)
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
