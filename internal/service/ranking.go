package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"santa3d-contest/internal/models"
	"santa3d-contest/internal/repository"
)

type CriterionAverage struct {
	CriterionID uuid.UUID `json:"criterionId"`
	Name        string    `json:"name"`
	Weight      float64   `json:"weight"`
	MaxScore    int       `json:"maxScore"`
	Average     float64   `json:"average"`
}

type ScoreSummary struct {
	Count     int                `json:"count"`
	Breakdown []CriterionAverage `json:"breakdown"`
}

type RankingEntry struct {
	Position        int          `json:"position"`
	VideoID         uuid.UUID    `json:"videoId"`
	ParticipantID   uuid.UUID    `json:"participantId"`
	ParticipantName string       `json:"participantName"`
	Age             int          `json:"age"`
	InstagramHandle string       `json:"instagramHandle,omitempty"`
	InstagramURL    string       `json:"instagramUrl,omitempty"`
	Likes           *int         `json:"likes"`
	AverageScore    float64      `json:"averageScore"`
	Scores          ScoreSummary `json:"scores"`
}

type RankingService struct {
	repo           *repository.Repository
	minEvaluations int
	now            func() time.Time
}

func NewRankingService(repo *repository.Repository, defaultMinEvaluations int) *RankingService {
	if defaultMinEvaluations < 1 {
		defaultMinEvaluations = 1
	}
	return &RankingService{repo: repo, minEvaluations: defaultMinEvaluations, now: nowUTC}
}

func (s *RankingService) DefaultMinEvaluations() int {
	return s.minEvaluations
}

// ComputeRankings ranks VALIDATED videos by their mean evaluation total. Videos with
// fewer than minEvaluations evaluations are left out; limit <= 0 keeps every entry.
func (s *RankingService) ComputeRankings(ctx context.Context, minEvaluations, limit int) ([]RankingEntry, error) {
	if minEvaluations < 0 {
		return nil, validationError("minEvaluations must not be negative")
	}
	videos, err := s.repo.ListRankableVideos(ctx)
	if err != nil {
		return nil, internalError("failed to load evaluated videos", err)
	}
	criteria, err := s.repo.ListCriteria(ctx)
	if err != nil {
		return nil, internalError("failed to load criteria", err)
	}
	state, err := s.repo.GetContestState(ctx)
	if err != nil {
		return nil, internalError("failed to load contest state", err)
	}
	return RankVideos(videos, criteria, minEvaluations, limit, state.Closed, s.now()), nil
}

// PublicRankings serves the ranking to anonymous visitors once scores are made public.
func (s *RankingService) PublicRankings(ctx context.Context, limit int) ([]RankingEntry, error) {
	state, err := s.repo.GetContestState(ctx)
	if err != nil {
		return nil, internalError("failed to load contest state", err)
	}
	if !state.PublicScores {
		return nil, notFoundError("SCORES_NOT_PUBLIC", "scores are not public yet")
	}
	return s.ComputeRankings(ctx, s.minEvaluations, limit)
}

// RankVideos is the pure aggregation step behind ComputeRankings.
func RankVideos(videos []models.Video, criteria []models.Criterion, minEvaluations, limit int, contestClosed bool, now time.Time) []RankingEntry {
	byID := make(map[uuid.UUID]models.Criterion, len(criteria))
	for _, c := range criteria {
		byID[c.ID] = c
	}

	type ranked struct {
		entry     RankingEntry
		createdAt time.Time
	}
	rows := make([]ranked, 0, len(videos))

	for _, video := range videos {
		if video.Status != models.VideoValidated {
			continue
		}
		count := len(video.Evaluations)
		if count == 0 || count < minEvaluations {
			continue
		}

		var sum float64
		perCriterion := make(map[uuid.UUID][]float64)
		for _, evaluation := range video.Evaluations {
			sum += evaluation.TotalScore
			for _, score := range evaluation.Scores {
				perCriterion[score.CriterionID] = append(perCriterion[score.CriterionID], score.Score)
			}
		}

		entry := RankingEntry{
			VideoID:      video.ID,
			InstagramURL: video.InstagramURL,
			Likes:        video.Likes(contestClosed),
			AverageScore: roundOne(sum / float64(count)),
			Scores: ScoreSummary{
				Count:     count,
				Breakdown: breakdownFor(perCriterion, criteria, byID),
			},
		}
		if p := video.Participant; p != nil {
			entry.ParticipantID = p.ID
			entry.ParticipantName = p.FullName()
			entry.Age = models.AgeAt(p.BirthDate, now)
			entry.InstagramHandle = p.InstagramHandle
		}
		rows = append(rows, ranked{entry: entry, createdAt: video.CreatedAt})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.entry.AverageScore != b.entry.AverageScore {
			return a.entry.AverageScore > b.entry.AverageScore
		}
		if a.entry.Scores.Count != b.entry.Scores.Count {
			return a.entry.Scores.Count > b.entry.Scores.Count
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.entry.VideoID.String() < b.entry.VideoID.String()
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	entries := make([]RankingEntry, len(rows))
	for i, row := range rows {
		row.entry.Position = i + 1
		entries[i] = row.entry
	}
	return entries
}

func breakdownFor(perCriterion map[uuid.UUID][]float64, criteria []models.Criterion, byID map[uuid.UUID]models.Criterion) []CriterionAverage {
	breakdown := make([]CriterionAverage, 0, len(perCriterion))
	// registry order first
	for _, c := range criteria {
		values, ok := perCriterion[c.ID]
		if !ok {
			continue
		}
		breakdown = append(breakdown, CriterionAverage{
			CriterionID: c.ID,
			Name:        c.Name,
			Weight:      c.Weight,
			MaxScore:    c.MaxScore,
			Average:     roundOne(mean(values)),
		})
	}
	for id, values := range perCriterion {
		if _, known := byID[id]; known {
			continue
		}
		breakdown = append(breakdown, CriterionAverage{CriterionID: id, Average: roundOne(mean(values))})
	}
	return breakdown
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// roundOne rounds half away from zero to one decimal place.
func roundOne(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}
