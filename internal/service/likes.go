package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/metrics"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

// MediaSource lists the posts in which the contest account is tagged.
type MediaSource interface {
	TaggedMedia(ctx context.Context) ([]instagram.Media, error)
}

type SyncResult struct {
	ProcessedPosts  int      `json:"processedPosts"`
	UpdatedVideos   int      `json:"updatedVideos"`
	ValidatedVideos int      `json:"validatedVideos"`
	Log             []string `json:"log"`
}

type LikeService struct {
	repo    *repository.Repository
	source  MediaSource
	metrics *metrics.Metrics
	audit   *AuditTrail
	now     func() time.Time
}

func NewLikeService(repo *repository.Repository, source MediaSource, m *metrics.Metrics, audit *AuditTrail) *LikeService {
	return &LikeService{repo: repo, source: source, metrics: m, audit: audit, now: nowUTC}
}

// SyncLikes pulls the tagged posts and reconciles them with participants by handle.
// Successful runs are audited under the given actor.
func (s *LikeService) SyncLikes(ctx context.Context, actor Actor) (*SyncResult, error) {
	media, err := s.source.TaggedMedia(ctx)
	if err != nil {
		s.metrics.LikeSync("failed")
		logging.Log.WithError(err).Error("instagram tagged media fetch failed")
		return nil, externalError("failed to fetch tagged media from instagram", err)
	}

	participants, err := s.repo.ListParticipantsWithHandle(ctx)
	if err != nil {
		return nil, internalError("failed to load participants", err)
	}

	result, err := s.reconcile(ctx, media, indexByHandle(participants))
	if err != nil {
		s.metrics.LikeSync("failed")
		return nil, err
	}
	s.metrics.LikeSync("ok")
	s.metrics.VideosAutoValidated(result.ValidatedVideos)
	logging.Log.WithFields(logrus.Fields{
		"posts":     result.ProcessedPosts,
		"updated":   result.UpdatedVideos,
		"validated": result.ValidatedVideos,
	}).Info("instagram likes synced")
	s.audit.Record(ctx, actor, "instagram.sync", "video", "", result)
	return result, nil
}

// CheckParticipant runs the reconciliation for a single participant, e.g. right after
// the upload confirmation. Nothing is applied when another participant sharing the
// handle wins the tie-break.
func (s *LikeService) CheckParticipant(ctx context.Context, participantID uuid.UUID) (*SyncResult, error) {
	participant, err := s.repo.GetParticipantByID(ctx, participantID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("PARTICIPANT_NOT_FOUND", "participant not found")
	}
	if err != nil {
		return nil, internalError("failed to load participant", err)
	}
	handle := instagram.NormalizeHandle(participant.InstagramHandle)
	if handle == "" {
		return &SyncResult{Log: []string{}}, nil
	}

	participants, err := s.repo.ListParticipantsWithHandle(ctx)
	if err != nil {
		return nil, internalError("failed to load participants", err)
	}
	winner, ok := indexByHandle(participants)[handle]
	if !ok || winner.ID != participant.ID {
		return &SyncResult{Log: []string{fmt.Sprintf("@%s: handle is held by another participant", handle)}}, nil
	}

	media, err := s.source.TaggedMedia(ctx)
	if err != nil {
		return nil, externalError("failed to fetch tagged media from instagram", err)
	}
	return s.reconcile(ctx, media, map[string]models.Participant{handle: winner})
}

func (s *LikeService) reconcile(ctx context.Context, media []instagram.Media, candidates map[string]models.Participant) (*SyncResult, error) {
	result := &SyncResult{Log: []string{}}
	now := s.now()
	touched := make(map[uuid.UUID]bool)

	for _, post := range media {
		result.ProcessedPosts++
		handle := instagram.NormalizeHandle(post.Username)
		participant, ok := candidates[handle]
		if !ok || participant.Video == nil {
			continue
		}
		video := participant.Video
		if touched[video.ID] {
			result.Log = append(result.Log, fmt.Sprintf("@%s: older post %s ignored, video already updated", handle, post.ID))
			continue
		}
		touched[video.ID] = true

		previous := video.Status
		applyPost(video, post, now)
		if err := s.repo.UpdateVideo(ctx, video); err != nil {
			return nil, internalError("failed to update video likes", err)
		}

		result.UpdatedVideos++
		line := fmt.Sprintf("@%s -> %s: likes=%s", handle, participant.FullName(), formatLikes(video.InstagramLikes))
		if previous.IsPending() && video.Status == models.VideoValidated {
			result.ValidatedVideos++
			line += " (auto-validated)"
		}
		result.Log = append(result.Log, line)
	}
	return result, nil
}

// applyPost copies a matched post onto the video. A missing like count keeps the stored
// value, and a tagged post validates a video still pending.
func applyPost(video *models.Video, post instagram.Media, now time.Time) {
	if post.Permalink != "" {
		video.InstagramURL = post.Permalink
	}
	if post.LikeCount != nil {
		likes := *post.LikeCount
		video.InstagramLikes = &likes
	}
	video.LastInstagramSync = &now
	if video.Status.IsPending() {
		video.Validate(now)
	}
}

// indexByHandle maps normalized handles to the participant that should receive the
// post. Video owners beat participants without a video; between video owners the most
// recently registered participant wins.
func indexByHandle(participants []models.Participant) map[string]models.Participant {
	index := make(map[string]models.Participant, len(participants))
	for _, p := range participants {
		handle := instagram.NormalizeHandle(p.InstagramHandle)
		if handle == "" {
			continue
		}
		current, exists := index[handle]
		if !exists || preferCandidate(p, current) {
			index[handle] = p
		}
	}
	return index
}

func preferCandidate(candidate, current models.Participant) bool {
	if (candidate.Video != nil) != (current.Video != nil) {
		return candidate.Video != nil
	}
	if !candidate.CreatedAt.Equal(current.CreatedAt) {
		return candidate.CreatedAt.After(current.CreatedAt)
	}
	return candidate.ID.String() > current.ID.String()
}

// freshLikes returns the like count of the most recent post per normalized handle. A
// most recent post without a count hides the older ones, as in reconcile.
func freshLikes(media []instagram.Media) map[string]int {
	likes := make(map[string]int)
	seen := make(map[string]bool)
	for _, post := range media {
		handle := instagram.NormalizeHandle(post.Username)
		if handle == "" || seen[handle] {
			continue
		}
		seen[handle] = true
		if post.LikeCount != nil {
			likes[handle] = *post.LikeCount
		}
	}
	return likes
}

func formatLikes(likes *int) string {
	if likes == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d", *likes)
}
