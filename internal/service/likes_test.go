package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/models"
)

func post(id, username string, likes *int) instagram.Media {
	return instagram.Media{ID: id, Username: username, LikeCount: likes, Permalink: "https://instagram.com/p/" + id}
}

func newLikeService(f *fixture, source MediaSource) *LikeService {
	svc := NewLikeService(f.repo, source, nil, NewAuditTrail(f.repo))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSyncLikesMatchesNormalizedHandles(t *testing.T) {
	f := newFixture(t)
	_, foo := f.participant("Foo", "@Foo ", models.VideoPendingValidation, nil)
	_, bar := f.participant("Bar", "bar", models.VideoValidated, intPtr(3))
	f.participant("Nobody", "", models.VideoPendingUpload, nil)

	source := &fakeMedia{media: []instagram.Media{
		post("1", "foo", intPtr(42)),
		post("2", "BAR", intPtr(7)),
		post("3", "stranger", intPtr(100)),
	}}
	result, err := newLikeService(f, source).SyncLikes(f.ctx, SystemActor)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ProcessedPosts)
	assert.Equal(t, 2, result.UpdatedVideos)
	assert.Equal(t, 1, result.ValidatedVideos)

	updatedFoo := f.video(foo.ID)
	assert.Equal(t, models.VideoValidated, updatedFoo.Status)
	require.NotNil(t, updatedFoo.ValidatedAt)
	assert.Equal(t, 42, *updatedFoo.InstagramLikes)
	assert.Equal(t, "https://instagram.com/p/1", updatedFoo.InstagramURL)
	require.NotNil(t, updatedFoo.LastInstagramSync)

	updatedBar := f.video(bar.ID)
	assert.Equal(t, 7, *updatedBar.InstagramLikes)
	assert.Nil(t, updatedBar.ValidatedAt)
}

func TestSyncLikesKeepsStoredCountWhenLikesMissing(t *testing.T) {
	f := newFixture(t)
	_, video := f.participant("Foo", "foo", models.VideoValidated, intPtr(12))

	source := &fakeMedia{media: []instagram.Media{post("1", "foo", nil)}}
	result, err := newLikeService(f, source).SyncLikes(f.ctx, SystemActor)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedVideos)

	updated := f.video(video.ID)
	require.NotNil(t, updated.InstagramLikes)
	assert.Equal(t, 12, *updated.InstagramLikes)
}

func TestSyncLikesFirstPostPerHandleWins(t *testing.T) {
	f := newFixture(t)
	_, video := f.participant("Foo", "foo", models.VideoValidated, nil)

	source := &fakeMedia{media: []instagram.Media{
		post("new", "foo", intPtr(5)),
		post("old", "foo", intPtr(500)),
	}}
	result, err := newLikeService(f, source).SyncLikes(f.ctx, SystemActor)
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProcessedPosts)
	assert.Equal(t, 1, result.UpdatedVideos)
	assert.Len(t, result.Log, 2)
	updated := f.video(video.ID)
	assert.Equal(t, 5, *updated.InstagramLikes)
	assert.Equal(t, "https://instagram.com/p/new", updated.InstagramURL)
}

func TestSyncLikesFetchFailure(t *testing.T) {
	f := newFixture(t)
	_, video := f.participant("Foo", "foo", models.VideoPendingValidation, intPtr(1))

	_, err := newLikeService(f, &fakeMedia{err: errors.New("graph down")}).SyncLikes(f.ctx, SystemActor)
	require.Error(t, err)
	assert.Equal(t, KindExternalService, KindOf(err))

	untouched := f.video(video.ID)
	assert.Equal(t, models.VideoPendingValidation, untouched.Status)
	assert.Equal(t, 1, *untouched.InstagramLikes)
}

func TestIndexByHandlePrefersVideoOwnerThenNewest(t *testing.T) {
	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	withoutVideo := models.Participant{FirstName: "NoVideo", InstagramHandle: "dup", CreatedAt: base.Add(2 * time.Hour)}
	oldOwner := models.Participant{FirstName: "Old", InstagramHandle: "@DUP", CreatedAt: base, Video: &models.Video{}}
	newOwner := models.Participant{FirstName: "New", InstagramHandle: "dup ", CreatedAt: base.Add(time.Hour), Video: &models.Video{}}

	index := indexByHandle([]models.Participant{oldOwner, withoutVideo, newOwner})
	require.Contains(t, index, "dup")
	assert.Equal(t, "New", index["dup"].FirstName)

	index = indexByHandle([]models.Participant{withoutVideo, oldOwner})
	assert.Equal(t, "Old", index["dup"].FirstName)
}

func TestCheckParticipantOnlyTouchesThatParticipant(t *testing.T) {
	f := newFixture(t)
	foo, fooVideo := f.participant("Foo", "foo", models.VideoPendingValidation, nil)
	_, barVideo := f.participant("Bar", "bar", models.VideoPendingValidation, nil)

	source := &fakeMedia{media: []instagram.Media{post("1", "foo", intPtr(9)), post("2", "bar", intPtr(4))}}
	result, err := newLikeService(f, source).CheckParticipant(f.ctx, foo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedVideos)

	assert.Equal(t, models.VideoValidated, f.video(fooVideo.ID).Status)
	assert.Equal(t, models.VideoPendingValidation, f.video(barVideo.ID).Status)
}

func TestFreshLikesTakesMostRecentPost(t *testing.T) {
	likes := freshLikes([]instagram.Media{
		post("1", "@Foo", intPtr(10)),
		post("2", "foo", intPtr(99)),
		post("3", "bar", nil),
	})
	assert.Equal(t, map[string]int{"foo": 10}, likes)
}

func TestCheckParticipantDefersToHandleOwner(t *testing.T) {
	f := newFixture(t)
	older, olderVideo := f.participant("Older", "dup", models.VideoPendingValidation, nil)
	newer, newerVideo := f.participant("Newer", "@Dup", models.VideoPendingValidation, nil)

	source := &fakeMedia{media: []instagram.Media{post("1", "dup", intPtr(30))}}
	svc := newLikeService(f, source)

	result, err := svc.CheckParticipant(f.ctx, older.ID)
	require.NoError(t, err)
	assert.Zero(t, result.UpdatedVideos)
	assert.Zero(t, source.calls)
	assert.Equal(t, models.VideoPendingValidation, f.video(olderVideo.ID).Status)
	assert.Nil(t, f.video(olderVideo.ID).InstagramLikes)

	result, err = svc.CheckParticipant(f.ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedVideos)

	_, err = svc.SyncLikes(f.ctx, SystemActor)
	require.NoError(t, err)
	assert.Equal(t, models.VideoPendingValidation, f.video(olderVideo.ID).Status)
	assert.Equal(t, models.VideoValidated, f.video(newerVideo.ID).Status)
	assert.Equal(t, 30, *f.video(newerVideo.ID).InstagramLikes)
}

func TestSyncLikesIsAudited(t *testing.T) {
	f := newFixture(t)
	f.participant("Foo", "foo", models.VideoPendingValidation, nil)
	actor := Actor{ID: "telegram:42", Role: models.RoleAdmin}

	_, err := newLikeService(f, &fakeMedia{media: []instagram.Media{post("1", "foo", intPtr(5))}}).SyncLikes(f.ctx, actor)
	require.NoError(t, err)

	logs, err := NewAuditTrail(f.repo).List(f.ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "instagram.sync", logs[0].Action)
	assert.Equal(t, "telegram:42", logs[0].ActorID)
	assert.Contains(t, logs[0].Details, `"updatedVideos":1`)

	_, err = newLikeService(f, &fakeMedia{err: errors.New("graph down")}).SyncLikes(f.ctx, actor)
	require.Error(t, err)
	logs, err = NewAuditTrail(f.repo).List(f.ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestFreshLikesHiddenCountMasksOlderPosts(t *testing.T) {
	likes := freshLikes([]instagram.Media{
		post("2", "foo", nil),
		post("1", "foo", intPtr(40)),
	})
	assert.Empty(t, likes)
}
