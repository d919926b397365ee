package repository

import (
	"context"
	"fmt"
	"time"

	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/database"
	"phishguard/pkg/logger"
)

// Repositories bundles all data access objects
type Repositories struct {
	Analyses *AnalysisRepository
}

// New creates the repository set over a database connection
func New(db *database.PostgresDB, log *logger.Logger) *Repositories {
	return &Repositories{
		Analyses: NewAnalysisRepository(db, log),
	}
}

// AnalysisRepository persists combined analysis results
type AnalysisRepository struct {
	db     *database.PostgresDB
	logger *logger.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *database.PostgresDB, log *logger.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:     db,
		logger: log.WithComponent("analysis-repository"),
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
	id UUID PRIMARY KEY,
	combined_score DOUBLE PRECISION NOT NULL,
	risk_level TEXT NOT NULL,
	is_threat BOOLEAN NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	input_types TEXT[] NOT NULL,
	analyzed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses (analyzed_at);
CREATE INDEX IF NOT EXISTS idx_analyses_risk_level ON analyses (risk_level);
`

// EnsureSchema creates the analyses table if it does not exist
func (r *AnalysisRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure analyses schema: %w", err)
	}
	return nil
}

// SaveAnalysis stores a summary row for a combined analysis
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, analysis *models.CombinedAnalysis) error {
	query := `
		INSERT INTO analyses (id, combined_score, risk_level, is_threat, confidence, input_types, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	if err := r.db.Exec(ctx, query,
		analysis.ID,
		analysis.CombinedScore,
		string(analysis.RiskLevel),
		analysis.IsThreat,
		analysis.Confidence,
		analysis.InputTypes,
		analysis.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetStats aggregates persisted analyses. since may be zero to aggregate
// over all history.
func (r *AnalysisRepository) GetStats(ctx context.Context, since time.Time) (*models.AnalysisStats, error) {
	stats := &models.AnalysisStats{
		ByRiskLevel: make(map[string]int64),
	}

	summary := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_threat),
		       COALESCE(AVG(combined_score), 0)
		FROM analyses
		WHERE $1::timestamptz IS NULL OR analyzed_at >= $1`

	var sinceArg *time.Time
	if !since.IsZero() {
		sinceArg = &since
		stats.Since = &since
	}

	if err := r.db.QueryRow(ctx, summary, sinceArg).Scan(
		&stats.TotalAnalyses,
		&stats.ThreatsDetected,
		&stats.AverageScore,
	); err != nil {
		return nil, fmt.Errorf("failed to query analysis stats: %w", err)
	}

	byLevel := `
		SELECT risk_level, COUNT(*)
		FROM analyses
		WHERE $1::timestamptz IS NULL OR analyzed_at >= $1
		GROUP BY risk_level`

	rows, err := r.db.Query(ctx, byLevel, sinceArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk level breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int64
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan risk level row: %w", err)
		}
		stats.ByRiskLevel[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate risk level rows: %w", err)
	}

	return stats, nil
}
