package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/medroute/internal/core/domain"
	"github.com/custodia-labs/medroute/internal/core/ports/driven"
)

// Topic statuses in build_topics.
const (
	statusSucceeded = "succeeded"
	statusFailed    = "failed"
	statusSkipped   = "skipped"
)

// buildHistory implements driven.BuildHistory.
type buildHistory struct {
	store *Store
}

var _ driven.BuildHistory = (*buildHistory)(nil)

// Record stores a report and its per-topic outcomes.
func (h *buildHistory) Record(ctx context.Context, report *domain.BuildReport) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: build report needs an id", domain.ErrInvalidParameter)
	}

	tx, err := h.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO build_runs (id, started_at, finished_at, model_name, error)
		VALUES (?, ?, ?, ?, ?)
	`, report.ID, report.StartedAt.UnixNano(), report.FinishedAt.UnixNano(), report.ModelName, report.Error)
	if err != nil {
		return fmt.Errorf("inserting build run: %w", err)
	}

	const insertTopic = `
		INSERT INTO build_topics
			(run_id, position, status, topic, file, documents, sampled, representative_title, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, t := range report.Succeeded {
		if _, err := tx.ExecContext(ctx, insertTopic, report.ID, i, statusSucceeded,
			t.Topic, t.File, t.Documents, t.Sampled, t.RepresentativeTitle, ""); err != nil {
			return fmt.Errorf("inserting topic %s: %w", t.Topic, err)
		}
	}
	for i, f := range report.Failed {
		if _, err := tx.ExecContext(ctx, insertTopic, report.ID, i, statusFailed,
			f.Topic, f.File, 0, 0, "", f.Reason); err != nil {
			return fmt.Errorf("inserting topic %s: %w", f.Topic, err)
		}
	}
	for i, name := range report.Skipped {
		if _, err := tx.ExecContext(ctx, insertTopic, report.ID, i, statusSkipped,
			name, "", 0, 0, "", ""); err != nil {
			return fmt.Errorf("inserting topic %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing build run: %w", err)
	}
	return nil
}

// List returns up to limit reports, newest first. A non-positive limit returns all.
func (h *buildHistory) List(ctx context.Context, limit int) ([]domain.BuildReport, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := h.store.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, model_name, error
		FROM build_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying build runs: %w", err)
	}

	reports := []domain.BuildReport{}
	for rows.Next() {
		var r domain.BuildReport
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.ModelName, &r.Error); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning build run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		reports = append(reports, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating build runs: %w", err)
	}

	for i := range reports {
		if err := h.loadTopics(ctx, &reports[i]); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func (h *buildHistory) loadTopics(ctx context.Context, r *domain.BuildReport) error {
	rows, err := h.store.db.QueryContext(ctx, `
		SELECT status, topic, file, documents, sampled, representative_title, reason
		FROM build_topics
		WHERE run_id = ?
		ORDER BY status, position
	`, r.ID)
	if err != nil {
		return fmt.Errorf("querying build topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, topic, file, title, reason string
		var docs, sampled int
		if err := rows.Scan(&status, &topic, &file, &docs, &sampled, &title, &reason); err != nil {
			return fmt.Errorf("scanning build topic: %w", err)
		}
		switch status {
		case statusSucceeded:
			r.Succeeded = append(r.Succeeded, domain.TopicBuild{
				Topic: topic, File: file, Documents: docs, Sampled: sampled, RepresentativeTitle: title,
			})
		case statusFailed:
			r.Failed = append(r.Failed, domain.TopicFailure{Topic: topic, File: file, Reason: reason})
		case statusSkipped:
			r.Skipped = append(r.Skipped, topic)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating build topics: %w", err)
	}
	return nil
}
