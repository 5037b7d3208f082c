package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"privaflow/pkg/logger"
	"privaflow/pkg/store"
)

// ErrRunNotFound is returned when no run exists under the requested id.
var ErrRunNotFound = errors.New("store: analysis run not found")

const insertChunk = 500

func (s *RunDBStorage) CreateRun(ctx context.Context, run *store.AnalysisRun) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO analysis_runs
			(public_id, status, main_party, top_n, sample_size, sample_rate, seed, records_csv, segments_csv)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, string(run.Status), run.MainParty,
		run.TopN, run.SampleSize, run.SampleRate, run.Seed,
		run.RecordsCSV, run.SegmentsCSV,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	logger.Debug("[Store] Run created", "run", run.ID)
	return nil
}

func (s *RunDBStorage) GetRun(ctx context.Context, id string) (*store.AnalysisRun, error) {
	run := &store.AnalysisRun{ID: id}
	var status string
	err := s.conn.QueryRow(ctx, `
		SELECT status, main_party, top_n, sample_size, sample_rate, seed,
		       records_csv, segments_csv, COALESCE(basics, 'null'::jsonb), COALESCE(error, ''),
		       created_at, updated_at
		FROM analysis_runs WHERE public_id = $1`,
		id,
	).Scan(
		&status, &run.MainParty, &run.TopN, &run.SampleSize, &run.SampleRate, &run.Seed,
		&run.RecordsCSV, &run.SegmentsCSV, &run.Basics, &run.Error,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("selecting run: %w", err)
	}
	run.Status = store.RunStatus(status)
	return run, nil
}

func (s *RunDBStorage) SetRunStatus(ctx context.Context, id string, status store.RunStatus, runErr string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2, error = NULLIF($3, ''), updated_at = now()
		WHERE public_id = $1`,
		id, string(status), runErr,
	)
	if err != nil {
		return fmt.Errorf("updating run status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	logger.Debug("[Store] Run status updated", "run", id, "status", status)
	return nil
}

// SaveResult persists all result rows of a finished run and flips its status
// to completed in a single transaction.
func (s *RunDBStorage) SaveResult(
	ctx context.Context,
	id string,
	basics []byte,
	entities []store.RunEntity,
	edges []store.RunEdge,
	metrics []store.MetricRow,
	samples []store.SampleRow,
) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning result transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `SELECT id FROM analysis_runs WHERE public_id = $1`, id).Scan(&runID)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("resolving run id: %w", err)
	}

	// reruns replace earlier results
	for _, table := range []string{"run_entities", "run_edges", "run_metrics", "run_samples"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	err = store.ChunkRange(len(entities), insertChunk, func(start, end int) error {
		for _, e := range entities[start:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO run_entities (run_id, name, class, role, aliases)
				VALUES ($1, $2, $3, $4, $5)`,
				runID, e.Name, e.Class, e.Role, e.Aliases,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting entities: %w", err)
	}

	err = store.ChunkRange(len(edges), insertChunk, func(start, end int) error {
		for _, e := range edges[start:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO run_edges (run_id, from_name, to_name, weight, categories, purposes, methods)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				runID, e.From, e.To, e.Weight, e.Categories, e.Purposes, e.Methods,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting edges: %w", err)
	}

	err = store.ChunkRange(len(metrics), insertChunk, func(start, end int) error {
		for _, m := range metrics[start:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO run_metrics (run_id, metric, rank, entity, value)
				VALUES ($1, $2, $3, $4, $5)`,
				runID, m.Metric, m.Rank, m.Entity, m.Value,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting metrics: %w", err)
	}

	err = store.ChunkRange(len(samples), insertChunk, func(start, end int) error {
		for _, r := range samples[start:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO run_samples
					(run_id, segment_index, segment_text, data_type, data_category,
					 source_party, target_party, resolved_source, resolved_target, purpose, method)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				runID, r.SegmentIndex, r.SegmentText, r.DataType, r.DataCategory,
				r.SourceParty, r.TargetParty, r.ResolvedSource, r.ResolvedTarget, r.Purpose, r.Method,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting samples: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE analysis_runs
		SET status = $2, basics = $3, error = NULL, updated_at = now()
		WHERE id = $1`,
		runID, string(store.StatusCompleted), basics,
	)
	if err != nil {
		return fmt.Errorf("completing run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing result: %w", err)
	}
	logger.Info("[Store] Run result persisted",
		"run", id,
		"entities", len(entities),
		"edges", len(edges),
		"metrics", len(metrics),
		"samples", len(samples),
	)
	return nil
}

func (s *RunDBStorage) GetGraph(ctx context.Context, id string) ([]store.RunEntity, []store.RunEdge, error) {
	runID, err := s.runID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT name, class, role, aliases
		FROM run_entities WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting entities: %w", err)
	}
	defer rows.Close()

	var entities []store.RunEntity
	for rows.Next() {
		var e store.RunEntity
		if err := rows.Scan(&e.Name, &e.Class, &e.Role, &e.Aliases); err != nil {
			return nil, nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	edgeRows, err := s.conn.Query(ctx, `
		SELECT from_name, to_name, weight, categories, purposes, methods
		FROM run_edges WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []store.RunEdge
	for edgeRows.Next() {
		var e store.RunEdge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Weight, &e.Categories, &e.Purposes, &e.Methods); err != nil {
			return nil, nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return entities, edges, edgeRows.Err()
}

func (s *RunDBStorage) GetMetric(ctx context.Context, id, name string) ([]store.MetricRow, error) {
	runID, err := s.runID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT metric, rank, entity, value
		FROM run_metrics WHERE run_id = $1 AND metric = $2 ORDER BY rank`, runID, name)
	if err != nil {
		return nil, fmt.Errorf("selecting metric rows: %w", err)
	}
	defer rows.Close()

	var metrics []store.MetricRow
	for rows.Next() {
		var m store.MetricRow
		if err := rows.Scan(&m.Metric, &m.Rank, &m.Entity, &m.Value); err != nil {
			return nil, fmt.Errorf("scanning metric row: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

func (s *RunDBStorage) GetSample(ctx context.Context, id string) ([]store.SampleRow, error) {
	runID, err := s.runID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx, `
		SELECT segment_index, segment_text, data_type, data_category,
		       source_party, target_party, resolved_source, resolved_target, purpose, method
		FROM run_samples WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("selecting sample rows: %w", err)
	}
	defer rows.Close()

	var samples []store.SampleRow
	for rows.Next() {
		var r store.SampleRow
		err := rows.Scan(&r.SegmentIndex, &r.SegmentText, &r.DataType, &r.DataCategory,
			&r.SourceParty, &r.TargetParty, &r.ResolvedSource, &r.ResolvedTarget, &r.Purpose, &r.Method)
		if err != nil {
			return nil, fmt.Errorf("scanning sample row: %w", err)
		}
		samples = append(samples, r)
	}
	return samples, rows.Err()
}

func (s *RunDBStorage) runID(ctx context.Context, id string) (int64, error) {
	var runID int64
	err := s.conn.QueryRow(ctx, `SELECT id FROM analysis_runs WHERE public_id = $1`, id).Scan(&runID)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return 0, ErrRunNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("resolving run id: %w", err)
	}
	return runID, nil
}
