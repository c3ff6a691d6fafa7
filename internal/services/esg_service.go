package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gzfs/greenlit/internal/models"
)

// ESGReport is the scoring backend's verdict for one document: the three
// axis scores, the aggregate, and per-axis explanation text.
type ESGReport struct {
	EnvironmentalScore float64             `json:"environmental_score"`
	SocialScore        float64             `json:"social_score"`
	GovernanceScore    float64             `json:"governance_score"`
	FinalScore         float64             `json:"final_score"`
	Explanation        map[string][]string `json:"explanation"`
}

// Scorer is the boundary to the external document scoring service.
type Scorer interface {
	Analyze(ctx context.Context, pdfURL string) (*ESGReport, error)
}

// ESGStore abstracts score persistence. Scores are append-only.
type ESGStore interface {
	AddESGScore(s *models.ESGScore) error
	ListESGScoresByUser(userID string) ([]*models.ESGScore, error)
}

// ESGService runs the upload-and-score flow and serves score history.
type ESGService struct {
	store  ESGStore
	scorer Scorer
	now    func() time.Time
	idGen  func() string
}

func NewESGService(store ESGStore, scorer Scorer) *ESGService {
	return &ESGService{
		store:  store,
		scorer: scorer,
		now:    func() time.Time { return time.Now().UTC() },
		idGen:  func() string { return shortID(12) },
	}
}

// Upload sends an uploaded document to the scorer and persists the returned
// scores verbatim. Nothing is written when scoring fails, so a user's history
// never contains partial records.
func (s *ESGService) Upload(ctx context.Context, userID, pdfURL string) (*models.ESGScore, error) {
	if strings.TrimSpace(pdfURL) == "" {
		return nil, NewInvalidError("pdf_url required")
	}

	report, err := s.scorer.Analyze(ctx, pdfURL)
	if err != nil {
		slog.Error("esg scoring failed", "user", userID, "pdf_url", pdfURL, "error", err)
		return nil, NewBadGatewayError("scoring service unavailable")
	}

	score := &models.ESGScore{
		ID:                 s.idGen(),
		UserID:             userID,
		PDFURL:             pdfURL,
		EnvironmentalScore: report.EnvironmentalScore,
		SocialScore:        report.SocialScore,
		GovernanceScore:    report.GovernanceScore,
		FinalScore:         report.FinalScore,
		Explanation:        report.Explanation,
		CreatedAt:          s.now(),
	}
	if err := s.store.AddESGScore(score); err != nil {
		return nil, err
	}
	return score, nil
}

// List returns the user's score records, newest first.
func (s *ESGService) List(userID string) ([]*models.ESGScore, error) {
	return s.store.ListESGScoresByUser(userID)
}

// AxisTrend reports the latest value for one axis and its delta against the
// previous record.
type AxisTrend struct {
	Current float64 `json:"current"`
	Trend   float64 `json:"trend"`
}

// MonthPoint is one point in the by-month score series.
type MonthPoint struct {
	Month         string  `json:"month"`
	Environmental float64 `json:"environmental"`
	Social        float64 `json:"social"`
	Governance    float64 `json:"governance"`
}

// ESGTrends is the dashboard summary derived from a user's score history.
type ESGTrends struct {
	Environmental AxisTrend    `json:"environmental"`
	Social        AxisTrend    `json:"social"`
	Governance    AxisTrend    `json:"governance"`
	Series        []MonthPoint `json:"series"`
}

// Trends derives per-axis current values, deltas against the previous score,
// and an oldest-first monthly series for charting.
func (s *ESGService) Trends(userID string) (*ESGTrends, error) {
	scores, err := s.store.ListESGScoresByUser(userID)
	if err != nil {
		return nil, err
	}
	trends := &ESGTrends{Series: []MonthPoint{}}
	if len(scores) == 0 {
		return trends, nil
	}

	latest := scores[0]
	trends.Environmental = AxisTrend{Current: latest.EnvironmentalScore}
	trends.Social = AxisTrend{Current: latest.SocialScore}
	trends.Governance = AxisTrend{Current: latest.GovernanceScore}
	if len(scores) > 1 {
		prev := scores[1]
		trends.Environmental.Trend = latest.EnvironmentalScore - prev.EnvironmentalScore
		trends.Social.Trend = latest.SocialScore - prev.SocialScore
		trends.Governance.Trend = latest.GovernanceScore - prev.GovernanceScore
	}

	for i := len(scores) - 1; i >= 0; i-- {
		sc := scores[i]
		trends.Series = append(trends.Series, MonthPoint{
			Month:         sc.CreatedAt.Format("Jan 2006"),
			Environmental: sc.EnvironmentalScore,
			Social:        sc.SocialScore,
			Governance:    sc.GovernanceScore,
		})
	}
	return trends, nil
}
