package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"comment_analyzer/internal/domain"
)

type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Insert(ctx context.Context, run *domain.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			video_id, method, model_name, outcome,
			positive, neutral, negative, total,
			pages_fetched, duration_ms, started_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING id`

	return executor(ctx, s.db).QueryRowxContext(ctx, query,
		run.VideoID,
		run.Method,
		run.ModelName,
		run.Outcome,
		run.Positive,
		run.Neutral,
		run.Negative,
		run.Total,
		run.PagesFetched,
		run.DurationMs,
		run.StartedAt,
	).Scan(&run.ID)
}
