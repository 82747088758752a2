//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"comment_analyzer/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_comments.up.sql"),
			filepath.Join(migrationsPath, "002_create_analysis_runs.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM comments")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM analysis_runs")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func testComment(externalID, text string, sentiment *domain.Verdict) domain.Comment {
	return domain.Comment{
		ExternalID:  externalID,
		Text:        text,
		Author:      "someone",
		LikeCount:   3,
		PublishedAt: time.Now().Truncate(time.Microsecond),
		Sentiment:   sentiment,
	}
}

func (s *PostgresIntegrationSuite) TestCommentStore_UpsertBatch_Insert() {
	store := NewCommentStore(s.db)

	comments := []domain.Comment{
		testComment("c1", "I love this", &domain.Verdict{Label: domain.LabelPositive, Confidence: 0.8, Method: "lexicon"}),
		testComment("c2", "just a comment", nil),
	}

	err := store.UpsertBatch(s.ctx, "vid-1", comments)
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM comments WHERE video_id = $1", "vid-1")
	s.NoError(err)
	s.Equal(2, count)

	var label *string
	err = s.db.GetContext(s.ctx, &label, "SELECT sentiment_label FROM comments WHERE video_id = $1 AND external_id = $2", "vid-1", "c2")
	s.NoError(err)
	s.Nil(label)
}

func (s *PostgresIntegrationSuite) TestCommentStore_UpsertBatch_OverwritesSentiment() {
	store := NewCommentStore(s.db)

	comments := []domain.Comment{
		testComment("c1", "I love this", nil),
	}
	err := store.UpsertBatch(s.ctx, "vid-1", comments)
	s.NoError(err)

	comments[0].Sentiment = &domain.Verdict{Label: domain.LabelPositive, Confidence: 0.8, Method: "lexicon"}
	err = store.UpsertBatch(s.ctx, "vid-1", comments)
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM comments WHERE video_id = $1", "vid-1")
	s.NoError(err)
	s.Equal(1, count)

	var label string
	err = s.db.GetContext(s.ctx, &label, "SELECT sentiment_label FROM comments WHERE video_id = $1 AND external_id = $2", "vid-1", "c1")
	s.NoError(err)
	s.Equal("Positive", label)
}

func (s *PostgresIntegrationSuite) TestCommentStore_UpsertBatch_SameIDDifferentVideos() {
	store := NewCommentStore(s.db)

	err := store.UpsertBatch(s.ctx, "vid-1", []domain.Comment{testComment("c1", "first", nil)})
	s.NoError(err)
	err = store.UpsertBatch(s.ctx, "vid-2", []domain.Comment{testComment("c1", "second", nil)})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM comments WHERE external_id = $1", "c1")
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestCommentStore_UpsertBatch_Empty() {
	store := NewCommentStore(s.db)
	s.NoError(store.UpsertBatch(s.ctx, "vid-1", nil))
}

func (s *PostgresIntegrationSuite) TestRunStore_Insert() {
	store := NewRunStore(s.db)

	run := &domain.AnalysisRun{
		VideoID:      "vid-1",
		Method:       "lexicon",
		Outcome:      domain.OutcomeLive,
		Positive:     5,
		Neutral:      3,
		Negative:     2,
		Total:        10,
		PagesFetched: 1,
		DurationMs:   42,
		StartedAt:    time.Now().Truncate(time.Microsecond),
	}

	err := store.Insert(s.ctx, run)
	s.NoError(err)
	s.Greater(run.ID, int64(0))

	var outcome string
	err = s.db.GetContext(s.ctx, &outcome, "SELECT outcome FROM analysis_runs WHERE id = $1", run.ID)
	s.NoError(err)
	s.Equal("live", outcome)
}

func (s *PostgresIntegrationSuite) TestTransaction_Commit() {
	tm := NewTransactionManager(s.db)
	store := NewCommentStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		return store.UpsertBatch(ctx, "vid-1", []domain.Comment{testComment("c1", "inside tx", nil)})
	})
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM comments WHERE video_id = $1", "vid-1")
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewCommentStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.UpsertBatch(ctx, "vid-1", []domain.Comment{testComment("c1", "should roll back", nil)}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Error(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM comments WHERE video_id = $1", "vid-1")
	s.NoError(err)
	s.Equal(0, count)
}
