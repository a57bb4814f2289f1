package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/storage"
)

type fakeUploads struct {
	err error
}

func (f fakeUploads) UploadURL(_ context.Context, key, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://bucket.test/" + key + "?sig=1", nil
}

type failingChecker struct{ calls int }

func (c *failingChecker) CheckParticipant(context.Context, uuid.UUID) (*SyncResult, error) {
	c.calls++
	return nil, errors.New("graph down")
}

func newParticipantService(f *fixture, mailer Mailer, checker ParticipantChecker) *ParticipantService {
	svc := NewParticipantService(f.repo, NewAuthService(f.repo, fakeTokens{}), mailer, fakeUploads{}, checker)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRegistration() RegistrationInput {
	return RegistrationInput{
		FirstName:       "Noel",
		LastName:        "Frost",
		Email:           " Noel@Santa3D.test ",
		BirthDate:       "2001-12-25",
		InstagramHandle: "@noel3d",
	}
}

func TestRegisterCreatesParticipantAndVideo(t *testing.T) {
	f := newFixture(t)
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	svc := newParticipantService(f, mailer, nil)

	reg, err := svc.Register(f.ctx, validRegistration())
	require.NoError(t, err)

	assert.Equal(t, "noel@santa3d.test", reg.Participant.Email)
	assert.Equal(t, 23, reg.Participant.Age)
	require.NotNil(t, reg.Participant.Video)
	assert.Equal(t, models.VideoPendingUpload, reg.Participant.Video.Status)
	assert.Equal(t, models.RoleParticipant, reg.Session.Role)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "registration", mailer.sent[0].kind)

	_, err = svc.Register(f.ctx, validRegistration())
	assert.Equal(t, "PARTICIPANT_EMAIL_TAKEN", CodeOf(err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	svc := newParticipantService(f, &fakeMailer{}, nil)

	bad := validRegistration()
	bad.Email = "not-an-email"
	_, err := svc.Register(f.ctx, bad)
	assert.Equal(t, KindValidation, KindOf(err))

	bad = validRegistration()
	bad.BirthDate = "25/12/2001"
	_, err = svc.Register(f.ctx, bad)
	assert.Equal(t, KindValidation, KindOf(err))

	bad = validRegistration()
	bad.BirthDate = "2030-01-01"
	_, err = svc.Register(f.ctx, bad)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestRegisterRefusedWhenClosed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.repo.SaveContestState(f.ctx, models.ContestState{Closed: true, ClosedAt: &fixedNow}))

	_, err := newParticipantService(f, &fakeMailer{}, nil).Register(f.ctx, validRegistration())
	assert.Equal(t, "CONTEST_CLOSED", CodeOf(err))
}

func TestConfirmUploadSwallowsCheckFailure(t *testing.T) {
	f := newFixture(t)
	checker := &failingChecker{}
	svc := newParticipantService(f, &fakeMailer{}, checker)
	reg, err := svc.Register(f.ctx, validRegistration())
	require.NoError(t, err)

	video, err := svc.ConfirmUpload(f.ctx, reg.Participant.ID, UploadConfirmation{
		StorageKey:      "videos/x/santa.mp4",
		Resolution:      "1920x1080",
		FPS:             30,
		DurationSeconds: 42.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, models.VideoPendingValidation, video.Status)
	assert.Equal(t, "videos/x/santa.mp4", video.StorageKey)
	assert.InDelta(t, 42.5, video.DurationSeconds, 1e-9)
	assert.Equal(t, "Noel Frost", video.ParticipantName)
}

func TestConfirmUploadAutoValidatesTaggedPost(t *testing.T) {
	f := newFixture(t)
	source := &fakeMedia{media: []instagram.Media{post("1", "noel3d", intPtr(11))}}
	likes := NewLikeService(f.repo, source, nil, nil)
	svc := newParticipantService(f, &fakeMailer{}, likes)
	reg, err := svc.Register(f.ctx, validRegistration())
	require.NoError(t, err)

	video, err := svc.ConfirmUpload(f.ctx, reg.Participant.ID, UploadConfirmation{StorageKey: "videos/x/a.mp4"})
	require.NoError(t, err)
	assert.Equal(t, models.VideoValidated, video.Status)
	require.NotNil(t, video.InstagramLikes)
	assert.Equal(t, 11, *video.InstagramLikes)

	_, err = svc.ConfirmUpload(f.ctx, reg.Participant.ID, UploadConfirmation{StorageKey: "videos/x/b.mp4"})
	assert.Equal(t, "VIDEO_ALREADY_VALIDATED", CodeOf(err))
}

func TestUploadTarget(t *testing.T) {
	f := newFixture(t)
	svc := newParticipantService(f, &fakeMailer{}, nil)
	reg, err := svc.Register(f.ctx, validRegistration())
	require.NoError(t, err)

	target, err := svc.UploadTarget(f.ctx, reg.Participant.ID, "my santa.mp4", "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, storage.ObjectKey(reg.Participant.ID, "my santa.mp4"), target.StorageKey)
	assert.Contains(t, target.UploadURL, target.StorageKey)

	svc.uploads = fakeUploads{err: storage.ErrNotConfigured}
	_, err = svc.UploadTarget(f.ctx, reg.Participant.ID, "a.mp4", "")
	assert.Equal(t, "STORAGE_NOT_CONFIGURED", CodeOf(err))

	_, err = svc.UploadTarget(f.ctx, uuid.New(), "a.mp4", "")
	assert.Equal(t, "PARTICIPANT_NOT_FOUND", CodeOf(err))
}
