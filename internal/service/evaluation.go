package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"santa3d-contest/internal/logging"
	"santa3d-contest/internal/metrics"
	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type ScoreInput struct {
	CriterionID uuid.UUID `json:"criterionId" binding:"required"`
	Score       float64   `json:"score"`
	Comments    string    `json:"comments"`
}

type SubmitEvaluationInput struct {
	VideoID         uuid.UUID    `json:"videoId" binding:"required"`
	Scores          []ScoreInput `json:"scores" binding:"required"`
	GeneralComments string       `json:"generalComments"`
}

type ScoreBreakdown struct {
	CriterionID   uuid.UUID `json:"criterionId"`
	CriterionName string    `json:"criterionName"`
	MaxScore      int       `json:"maxScore"`
	Weight        float64   `json:"weight"`
	Score         float64   `json:"score"`
	Comments      string    `json:"comments,omitempty"`
}

type EvaluationResult struct {
	ID              uuid.UUID        `json:"id"`
	VideoID         uuid.UUID        `json:"videoId"`
	JudgeID         uuid.UUID        `json:"judgeId"`
	ParticipantName string           `json:"participantName,omitempty"`
	TotalScore      float64          `json:"totalScore"`
	GeneralComments string           `json:"generalComments"`
	EvaluatedAt     time.Time        `json:"evaluatedAt"`
	Breakdown       []ScoreBreakdown `json:"breakdown"`
}

type EvaluationService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewEvaluationService(repo *repository.Repository, m *metrics.Metrics) *EvaluationService {
	return &EvaluationService{repo: repo, metrics: m, now: nowUTC}
}

// SubmitEvaluation records the judge's scores for a video. A second submission by the
// same judge replaces the previous one entirely.
func (s *EvaluationService) SubmitEvaluation(ctx context.Context, judgeID uuid.UUID, input SubmitEvaluationInput) (*EvaluationResult, error) {
	judge, err := s.repo.GetJudgeByID(ctx, judgeID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !judge.IsActive) {
		return nil, notFoundError("JUDGE_NOT_FOUND", "judge not found")
	}
	if err != nil {
		return nil, internalError("failed to load judge", err)
	}

	video, err := s.repo.GetVideoByID(ctx, input.VideoID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("VIDEO_NOT_FOUND", "video not found")
	}
	if err != nil {
		return nil, internalError("failed to load video", err)
	}
	if video.Status != models.VideoValidated {
		return nil, conflictError("VIDEO_NOT_VALIDATED", "only validated videos can be evaluated")
	}

	criteria, err := s.repo.ListCriteria(ctx)
	if err != nil {
		return nil, internalError("failed to load criteria", err)
	}
	scores, total, err := buildScores(input.Scores, criteria)
	if err != nil {
		return nil, err
	}

	evaluatedAt := s.now()
	var evaluationID uuid.UUID
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.FindEvaluation(ctx, video.ID, judge.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			evaluation := &models.Evaluation{
				VideoID:         video.ID,
				JudgeID:         judge.ID,
				TotalScore:      total,
				GeneralComments: strings.TrimSpace(input.GeneralComments),
				EvaluatedAt:     evaluatedAt,
			}
			if err := tx.CreateEvaluation(ctx, evaluation); err != nil {
				return err
			}
			evaluationID = evaluation.ID
		case err != nil:
			return err
		default:
			existing.TotalScore = total
			existing.GeneralComments = strings.TrimSpace(input.GeneralComments)
			existing.EvaluatedAt = evaluatedAt
			if err := tx.UpdateEvaluation(ctx, existing); err != nil {
				return err
			}
			evaluationID = existing.ID
		}
		return tx.ReplaceScores(ctx, evaluationID, scores)
	})
	if err != nil {
		logging.Log.WithFields(logrus.Fields{
			"judge_id": judge.ID,
			"video_id": video.ID,
			"error":    err,
		}).Error("evaluation submission failed")
		return nil, internalError("failed to save evaluation", err)
	}

	s.metrics.EvaluationSubmitted()
	logging.Log.WithFields(logrus.Fields{
		"judge_id":    judge.ID,
		"video_id":    video.ID,
		"total_score": total,
	}).Info("evaluation saved")

	saved, err := s.repo.GetEvaluationWithScores(ctx, evaluationID)
	if err != nil {
		return nil, internalError("failed to reload evaluation", err)
	}
	result := toEvaluationResult(*saved)
	if video.Participant != nil {
		result.ParticipantName = video.Participant.FullName()
	}
	return &result, nil
}

func (s *EvaluationService) ListJudgeEvaluations(ctx context.Context, judgeID uuid.UUID) ([]EvaluationResult, error) {
	if _, err := s.repo.GetJudgeByID(ctx, judgeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("JUDGE_NOT_FOUND", "judge not found")
		}
		return nil, internalError("failed to load judge", err)
	}
	evaluations, err := s.repo.ListEvaluationsByJudge(ctx, judgeID)
	if err != nil {
		return nil, internalError("failed to list evaluations", err)
	}
	results := make([]EvaluationResult, 0, len(evaluations))
	for _, e := range evaluations {
		result := toEvaluationResult(e)
		if e.Video != nil && e.Video.Participant != nil {
			result.ParticipantName = e.Video.Participant.FullName()
		}
		results = append(results, result)
	}
	return results, nil
}

// buildScores validates the submitted scores against the registry and returns the rows
// to persist along with their plain sum.
func buildScores(inputs []ScoreInput, criteria []models.Criterion) ([]models.CriterionScore, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, validationError("at least one criterion score is required")
	}

	byID := make(map[uuid.UUID]models.Criterion, len(criteria))
	for _, c := range criteria {
		byID[c.ID] = c
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	scores := make([]models.CriterionScore, 0, len(inputs))
	var total float64
	for _, in := range inputs {
		criterion, ok := byID[in.CriterionID]
		if !ok {
			return nil, 0, validationError("unknown criterion %s", in.CriterionID)
		}
		if seen[in.CriterionID] {
			return nil, 0, validationError("criterion %q scored twice", criterion.Name)
		}
		seen[in.CriterionID] = true
		if in.Score < 0 || in.Score > float64(criterion.MaxScore) {
			return nil, 0, validationError("score for %q must be between 0 and %d", criterion.Name, criterion.MaxScore)
		}
		scores = append(scores, models.CriterionScore{
			CriterionID: in.CriterionID,
			Score:       in.Score,
			Comments:    strings.TrimSpace(in.Comments),
		})
		total += in.Score
	}
	return scores, total, nil
}

func toEvaluationResult(e models.Evaluation) EvaluationResult {
	breakdown := make([]ScoreBreakdown, 0, len(e.Scores))
	orders := make(map[uuid.UUID]int, len(e.Scores))
	for _, score := range e.Scores {
		entry := ScoreBreakdown{
			CriterionID: score.CriterionID,
			Score:       score.Score,
			Comments:    score.Comments,
		}
		if score.Criterion != nil {
			entry.CriterionName = score.Criterion.Name
			entry.MaxScore = score.Criterion.MaxScore
			entry.Weight = score.Criterion.Weight
			orders[score.CriterionID] = score.Criterion.DisplayOrder
		}
		breakdown = append(breakdown, entry)
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		oi, oj := orders[breakdown[i].CriterionID], orders[breakdown[j].CriterionID]
		if oi != oj {
			return oi < oj
		}
		return breakdown[i].CriterionName < breakdown[j].CriterionName
	})

	return EvaluationResult{
		ID:              e.ID,
		VideoID:         e.VideoID,
		JudgeID:         e.JudgeID,
		TotalScore:      e.TotalScore,
		GeneralComments: e.GeneralComments,
		EvaluatedAt:     e.EvaluatedAt,
		Breakdown:       breakdown,
	}
}
