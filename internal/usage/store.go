// Package usage persists a history of generation outcomes so the dashboard
// can show spend and vendor behavior over time. The store implements
// llm.GenerationRecorder and is an optional accounting sink; the manager's
// in-memory totals are authoritative for the current process.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Napiersnotes/Dandelions/internal/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS generations (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       TIMESTAMP NOT NULL,
	vendor           TEXT      NOT NULL,
	model            TEXT      NOT NULL,
	prompt_tokens    INTEGER   NOT NULL,
	completion_tokens INTEGER  NOT NULL,
	cost             REAL      NOT NULL,
	failovers        INTEGER   NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
CREATE INDEX IF NOT EXISTS idx_generations_vendor     ON generations(vendor);

CREATE TABLE IF NOT EXISTS failures (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TIMESTAMP NOT NULL,
	vendor     TEXT      NOT NULL,
	kind       TEXT      NOT NULL,
	message    TEXT      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_failures_created_at ON failures(created_at);
`

// Record is one persisted generation outcome.
type Record struct {
	CreatedAt        time.Time `json:"created_at"`
	Vendor           string    `json:"vendor"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Cost             float64   `json:"cost"`
	Failovers        int       `json:"failovers"`
}

// VendorSummary aggregates persisted usage per vendor.
type VendorSummary struct {
	Vendor           string  `json:"vendor"`
	Calls            int64   `json:"calls"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	Cost             float64 `json:"cost"`
}

// Store is a SQLite-backed usage history with time-based retention.
type Store struct {
	db        *sql.DB
	logger    *zap.Logger
	retention time.Duration

	pruneOnce sync.Once
	pruneStop chan struct{}
	pruneDone chan struct{}
}

// Open opens (creating if needed) the usage database at path. Records older
// than the retention window are pruned in the background; zero retention
// keeps everything.
func Open(path string, retention time.Duration, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply usage schema: %w", err)
	}

	return &Store{
		db:        db,
		logger:    logger,
		retention: retention,
	}, nil
}

// RecordSuccess persists one successful generation. Implements
// llm.GenerationRecorder; persistence failures are logged, never surfaced
// into the request path.
func (s *Store) RecordSuccess(ctx context.Context, result *llm.GenerationResult, failovers int) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations
		 (created_at, vendor, model, prompt_tokens, completion_tokens, cost, failovers)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC(), result.Provider, result.Model,
		result.Usage.PromptTokens, result.Usage.CompletionTokens,
		result.Cost, failovers,
	)
	if err != nil {
		s.logger.Warn("failed to record generation", zap.Error(err))
	}
}

// RecordFailure persists the per-vendor failures of an exhausted request.
func (s *Store) RecordFailure(ctx context.Context, failures []llm.Failure) {
	now := time.Now().UTC()
	for _, f := range failures {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO failures (created_at, vendor, kind, message) VALUES (?, ?, ?, ?)`,
			now, f.Vendor, string(f.Kind), f.Message,
		)
		if err != nil {
			s.logger.Warn("failed to record failure", zap.Error(err))
		}
	}
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, vendor, model, prompt_tokens, completion_tokens, cost, failovers
		 FROM generations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.CreatedAt, &r.Vendor, &r.Model,
			&r.PromptTokens, &r.CompletionTokens, &r.Cost, &r.Failovers); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Summary aggregates persisted usage per vendor.
func (s *Store) Summary(ctx context.Context) ([]VendorSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vendor, COUNT(*), SUM(prompt_tokens), SUM(completion_tokens), SUM(cost)
		 FROM generations GROUP BY vendor ORDER BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []VendorSummary
	for rows.Next() {
		var vs VendorSummary
		if err := rows.Scan(&vs.Vendor, &vs.Calls, &vs.PromptTokens, &vs.CompletionTokens, &vs.Cost); err != nil {
			return nil, fmt.Errorf("failed to scan usage summary: %w", err)
		}
		summaries = append(summaries, vs)
	}
	return summaries, rows.Err()
}

// Prune deletes records older than the retention window.
func (s *Store) Prune(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-s.retention)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM generations WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune generations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failures WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune failures: %w", err)
	}
	return nil
}

// StartRetention begins background pruning at the given interval.
func (s *Store) StartRetention(interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		return
	}

	s.pruneOnce.Do(func() {
		s.pruneStop = make(chan struct{})
		s.pruneDone = make(chan struct{})

		go func() {
			defer close(s.pruneDone)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-s.pruneStop:
					return
				case <-ticker.C:
					if err := s.Prune(context.Background()); err != nil {
						s.logger.Warn("usage retention prune failed", zap.Error(err))
					}
				}
			}
		}()
	})
}

// Close stops retention and closes the database.
func (s *Store) Close() error {
	if s.pruneStop != nil {
		close(s.pruneStop)
		<-s.pruneDone
	}
	return s.db.Close()
}
