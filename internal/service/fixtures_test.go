package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
	"santa3d-contest/internal/testutil"
)

var fixedNow = time.Date(2025, 12, 20, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t        *testing.T
	ctx      context.Context
	repo     *repository.Repository
	enrolled int
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), repo: repository.NewRepository(testutil.NewDB(t))}
}

func (f *fixture) criterion(name string, maxScore, order int) models.Criterion {
	c := models.Criterion{Name: name, Weight: 0.25, MaxScore: maxScore, DisplayOrder: order}
	require.NoError(f.t, f.repo.CreateCriterion(f.ctx, &c))
	return c
}

func (f *fixture) judge(email string) models.Judge {
	j := models.Judge{Name: email, Email: email, TempPassword: "password123", IsActive: true}
	require.NoError(f.t, f.repo.CreateJudge(f.ctx, &j))
	return j
}

// participant registers participants one minute apart, in call order.
func (f *fixture) participant(first, handle string, status models.VideoStatus, likes *int) (models.Participant, models.Video) {
	f.enrolled++
	p := models.Participant{
		CreatedAt:       fixedNow.Add(time.Duration(f.enrolled) * time.Minute),
		FirstName:       first,
		LastName:        "Claus",
		Email:           uuid.NewString() + "@santa3d.test",
		BirthDate:       time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC),
		InstagramHandle: handle,
	}
	require.NoError(f.t, f.repo.CreateParticipant(f.ctx, &p))
	v := models.Video{ParticipantID: p.ID, Status: status, InstagramLikes: likes}
	require.NoError(f.t, f.repo.CreateVideo(f.ctx, &v))
	return p, v
}

func (f *fixture) video(id uuid.UUID) *models.Video {
	v, err := f.repo.GetVideoByID(f.ctx, id)
	require.NoError(f.t, err)
	return v
}

func intPtr(v int) *int {
	return &v
}

type fakeMedia struct {
	media []instagram.Media
	err   error
	calls int
}

func (f *fakeMedia) TaggedMedia(context.Context) ([]instagram.Media, error) {
	f.calls++
	return f.media, f.err
}

type sentMail struct {
	kind, to, name, password string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) record(mail sentMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return m.err
}

func (m *fakeMailer) SendRegistrationConfirmation(_ context.Context, to, name string) error {
	return m.record(sentMail{kind: "registration", to: to, name: name})
}

func (m *fakeMailer) SendJudgeWelcome(_ context.Context, to, name, tempPassword string) error {
	return m.record(sentMail{kind: "welcome", to: to, name: name, password: tempPassword})
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, name, tempPassword string) error {
	return m.record(sentMail{kind: "reset", to: to, name: name, password: tempPassword})
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(text string) {
	n.messages = append(n.messages, text)
}

type fakeTokens struct{}

func (fakeTokens) Issue(subject uuid.UUID, role models.Role, resetRequired bool) (string, time.Time, error) {
	return string(role) + ":" + subject.String(), fixedNow.Add(time.Hour), nil
}
