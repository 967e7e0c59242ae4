package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/linkrank/internal/model"
)

// ErrIncompleteRun is returned when saving a run that failed or has no scores.
var ErrIncompleteRun = errors.New("rank run is incomplete")

// ErrNotFound is returned by Open when the database file does not exist
// and CreateIfNotExists is false.
var ErrNotFound = errors.New("database not found")

// SaveRankRun stores the run metadata and every score in one transaction
// and sets run.ID. Failed runs are rejected so partial scores are never stored.
func (rdb *RankDB) SaveRankRun(ctx context.Context, run *model.RankRun) error {
	if run.Failed() || len(run.Scores) == 0 {
		return fmt.Errorf("%w: corpus %s", ErrIncompleteRun, run.Corpus)
	}

	steps, err := encodeStrings(run.PerformedSteps)
	if err != nil {
		return fmt.Errorf("failed to serialize steps: %w", err)
	}
	warnings, err := encodeStrings(run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to serialize warnings: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := `
	INSERT INTO rank_runs (
		corpus, started_at, duration_ns, alpha, tolerance, max_iterations,
		representation, fingerprint, document_count, vertex_count, edge_count,
		dangling_count, iterations, cache_hit, steps, warnings
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		run.Corpus,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(run.Duration),
		run.Alpha,
		run.Tolerance,
		run.MaxIterations,
		run.Representation,
		run.Fingerprint,
		run.DocumentCount,
		run.VertexCount,
		run.EdgeCount,
		run.DanglingCount,
		run.Iterations,
		run.CacheHit,
		steps,
		warnings,
	)
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to insert rank run: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to read rank run id: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO rank_scores (run_id, url, score) VALUES (?, ?, ?)")
	if err != nil {
		return rollback(tx, fmt.Errorf("failed to prepare score insert: %w", err))
	}
	defer stmt.Close()

	for url, score := range run.Scores {
		if _, err := stmt.ExecContext(ctx, id, url, score); err != nil {
			return rollback(tx, fmt.Errorf("failed to insert score of %s: %w", url, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rank run: %w", err)
	}

	run.ID = id
	return nil
}

const runColumns = `
	id, corpus, started_at, duration_ns, alpha, tolerance, max_iterations,
	representation, fingerprint, document_count, vertex_count, edge_count,
	dangling_count, iterations, cache_hit, steps, warnings
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun reads the metadata columns of a rank run.
func scanRun(row rowScanner) (*model.RankRun, error) {
	var (
		run            model.RankRun
		startedAt      string
		duration       int64
		representation sql.NullString
		fingerprint    sql.NullString
		steps          sql.NullString
		warnings       sql.NullString
	)

	err := row.Scan(
		&run.ID,
		&run.Corpus,
		&startedAt,
		&duration,
		&run.Alpha,
		&run.Tolerance,
		&run.MaxIterations,
		&representation,
		&fingerprint,
		&run.DocumentCount,
		&run.VertexCount,
		&run.EdgeCount,
		&run.DanglingCount,
		&run.Iterations,
		&run.CacheHit,
		&steps,
		&warnings,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt = parseTimestamp(startedAt)
	run.Duration = time.Duration(duration)
	run.Representation = representation.String
	run.Fingerprint = fingerprint.String
	run.PerformedSteps = decodeStrings(steps)
	run.Warnings = decodeStrings(warnings)

	return &run, nil
}

// GetRankRun retrieves a run and its scores by ID. It returns nil when
// no such run exists.
func (rdb *RankDB) GetRankRun(ctx context.Context, id int64) (*model.RankRun, error) {
	run, err := scanRun(rdb.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM rank_runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank run: %w", err)
	}

	scores, err := rdb.runScores(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Scores = scores

	return run, nil
}

// GetLatestRankRun retrieves the most recent run of corpus with its scores.
// An empty corpus matches runs of any corpus. It returns nil when no run exists.
func (rdb *RankDB) GetLatestRankRun(ctx context.Context, corpus string) (*model.RankRun, error) {
	query := "SELECT " + runColumns + " FROM rank_runs"
	args := make([]any, 0, 1)
	if corpus != "" {
		query += " WHERE corpus = ?"
		args = append(args, corpus)
	}
	query += " ORDER BY id DESC LIMIT 1"

	run, err := scanRun(rdb.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest rank run: %w", err)
	}

	scores, err := rdb.runScores(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Scores = scores

	return run, nil
}

// ListRankRuns returns run metadata without scores, newest first.
// An empty corpus lists the runs of every corpus.
func (rdb *RankDB) ListRankRuns(ctx context.Context, corpus string) ([]*model.RankRun, error) {
	query := "SELECT " + runColumns + " FROM rank_runs"
	args := make([]any, 0, 1)
	if corpus != "" {
		query += " WHERE corpus = ?"
		args = append(args, corpus)
	}
	query += " ORDER BY id DESC"

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rank runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.RankRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rank run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetScore returns the score of url in the latest run of corpus.
// The boolean is false when there is no run or the URL was not ranked.
func (rdb *RankDB) GetScore(ctx context.Context, corpus, url string) (float64, bool, error) {
	query := `
	SELECT s.score FROM rank_scores s
	WHERE s.url = ? AND s.run_id = (
		SELECT id FROM rank_runs
		WHERE (? = '' OR corpus = ?)
		ORDER BY id DESC LIMIT 1
	)
	`

	var score float64
	err := rdb.db.QueryRowContext(ctx, query, url, corpus, corpus).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get score: %w", err)
	}
	return score, true, nil
}

// runScores loads every score of a run.
func (rdb *RankDB) runScores(ctx context.Context, runID int64) (map[string]float64, error) {
	rows, err := rdb.db.QueryContext(ctx,
		"SELECT url, score FROM rank_scores WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var url string
		var score float64
		if err := rows.Scan(&url, &score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores[url] = score
	}

	return scores, rows.Err()
}
