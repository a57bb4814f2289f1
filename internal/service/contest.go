package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/instagram"
	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type CloseResult struct {
	State             models.ContestState `json:"state"`
	SnapshottedVideos int64               `json:"snapshottedVideos"`
}

type SnapshotResult struct {
	SnapshotAt    time.Time `json:"snapshotAt"`
	Updated       int       `json:"updated"`
	FromInstagram int       `json:"fromInstagram"`
	FromStored    int       `json:"fromStored"`
	Skipped       int       `json:"skipped"`
	SourceError   string    `json:"sourceError,omitempty"`
}

type ContestOverview struct {
	State  models.ContestState          `json:"state"`
	Videos map[models.VideoStatus]int64 `json:"videos"`
}

type ContestService struct {
	repo     *repository.Repository
	source   MediaSource
	audit    *AuditTrail
	notifier Notifier
	now      func() time.Time
}

func NewContestService(repo *repository.Repository, source MediaSource, audit *AuditTrail, notifier Notifier) *ContestService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ContestService{repo: repo, source: source, audit: audit, notifier: notifier, now: nowUTC}
}

func (s *ContestService) State(ctx context.Context) (models.ContestState, error) {
	state, err := s.repo.GetContestState(ctx)
	if err != nil {
		return models.ContestState{}, internalError("failed to load contest state", err)
	}
	return state, nil
}

func (s *ContestService) Overview(ctx context.Context) (*ContestOverview, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountVideosByStatus(ctx)
	if err != nil {
		return nil, internalError("failed to count videos", err)
	}
	return &ContestOverview{State: state, Videos: counts}, nil
}

// CloseContest closes the contest and freezes the like count of every VALIDATED video in
// the same transaction.
func (s *ContestService) CloseContest(ctx context.Context, actor Actor) (*CloseResult, error) {
	now := s.now()
	result := &CloseResult{}

	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		state, err := tx.GetContestState(ctx)
		if err != nil {
			return err
		}
		next, err := state.Close(now)
		if err != nil {
			return err
		}
		if err := tx.SaveContestState(ctx, next); err != nil {
			return err
		}
		affected, err := tx.SnapshotClosingLikes(ctx, now)
		if err != nil {
			return err
		}
		result.State = next
		result.SnapshottedVideos = affected
		return nil
	})
	if errors.Is(err, models.ErrContestAlreadyClosed) {
		return nil, conflictError("CONTEST_ALREADY_CLOSED", err.Error())
	}
	if err != nil {
		return nil, internalError("failed to close contest", err)
	}

	logging.Log.WithField("videos", result.SnapshottedVideos).Info("contest closed")
	s.audit.Record(ctx, actor, "contest.close", "contest", "", result)
	s.notifier.Notify(fmt.Sprintf("Contest closed. Likes frozen for %d validated videos.", result.SnapshottedVideos))
	return result, nil
}

// ReopenContest reopens a closed contest. Closing like values stay on the videos.
func (s *ContestService) ReopenContest(ctx context.Context, actor Actor) (models.ContestState, error) {
	var next models.ContestState
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		state, err := tx.GetContestState(ctx)
		if err != nil {
			return err
		}
		next, err = state.Reopen()
		if err != nil {
			return err
		}
		return tx.SaveContestState(ctx, next)
	})
	if errors.Is(err, models.ErrContestNotClosed) {
		return models.ContestState{}, conflictError("CONTEST_NOT_CLOSED", err.Error())
	}
	if err != nil {
		return models.ContestState{}, internalError("failed to reopen contest", err)
	}

	logging.Log.Info("contest reopened")
	s.audit.Record(ctx, actor, "contest.reopen", "contest", "", nil)
	s.notifier.Notify("Contest reopened.")
	return next, nil
}

func (s *ContestService) SetPublicScores(ctx context.Context, actor Actor, visible bool) (models.ContestState, error) {
	var next models.ContestState
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		state, err := tx.GetContestState(ctx)
		if err != nil {
			return err
		}
		state.PublicScores = visible
		next = state
		return tx.SaveContestState(ctx, state)
	})
	if err != nil {
		return models.ContestState{}, internalError("failed to update score visibility", err)
	}
	s.audit.Record(ctx, actor, "contest.public_scores", "contest", "", map[string]bool{"visible": visible})
	return next, nil
}

// SnapshotLikes re-freezes closing likes for every participant with a video. A fresh
// Instagram count is preferred, then the stored live count; videos with neither are left
// untouched. An unreachable Instagram API only disables the first source.
func (s *ContestService) SnapshotLikes(ctx context.Context, actor Actor) (*SnapshotResult, error) {
	result := &SnapshotResult{SnapshotAt: s.now()}

	fresh := map[string]int{}
	if media, err := s.source.TaggedMedia(ctx); err != nil {
		result.SourceError = err.Error()
		logging.Log.WithError(err).Warn("snapshot falls back to stored likes")
	} else {
		fresh = freshLikes(media)
	}

	participants, err := s.repo.ListParticipantsWithVideo(ctx)
	if err != nil {
		return nil, internalError("failed to load participants", err)
	}

	owners := indexByHandle(participants)
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		for _, p := range participants {
			if p.Video == nil {
				continue
			}
			likes, fromInstagram := resolveLikes(fresh, owners, p)
			if likes < 0 {
				result.Skipped++
				continue
			}
			if err := tx.SetClosingLikes(ctx, p.Video.ID, likes, result.SnapshotAt); err != nil {
				return err
			}
			result.Updated++
			if fromInstagram {
				result.FromInstagram++
			} else {
				result.FromStored++
			}
		}
		return nil
	})
	if err != nil {
		return nil, internalError("failed to snapshot likes", err)
	}

	logging.Log.WithFields(logrus.Fields{
		"updated":        result.Updated,
		"from_instagram": result.FromInstagram,
		"from_stored":    result.FromStored,
		"skipped":        result.Skipped,
	}).Info("closing likes snapshotted")
	s.audit.Record(ctx, actor, "contest.snapshot_likes", "contest", "", result)
	return result, nil
}

// resolveLikes returns -1 when no like figure is known at all. A fresh count only goes
// to the participant that owns the handle after the duplicate tie-break.
func resolveLikes(fresh map[string]int, owners map[string]models.Participant, p models.Participant) (int, bool) {
	handle := instagram.NormalizeHandle(p.InstagramHandle)
	if owner, ok := owners[handle]; ok && owner.ID == p.ID {
		if likes, ok := fresh[handle]; ok {
			return likes, true
		}
	}
	if p.Video != nil && p.Video.InstagramLikes != nil {
		return *p.Video.InstagramLikes, false
	}
	return -1, false
}
