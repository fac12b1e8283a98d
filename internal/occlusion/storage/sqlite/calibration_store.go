package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CalibrationRun is a persisted corpus evaluation outcome: the pipeline
// parameters used and the corpus-level metrics they produced.
type CalibrationRun struct {
	RunID           string          `json:"run_id"`
	Corpus          string          `json:"corpus"`
	SampleCount     int             `json:"sample_count"`
	Precision       float64         `json:"precision"`
	Recall          float64         `json:"recall"`
	F1              float64         `json:"f1"`
	IoU             float64         `json:"iou"`
	Agreement       float64         `json:"agreement"`
	MeanAbsDiff     float64         `json:"mean_abs_diff"`
	ForegroundRatio float64         `json:"foreground_ratio"`
	Score           float64         `json:"score"`
	ParamsJSON      json.RawMessage `json:"params_json,omitempty"`
	CreatedAt       int64           `json:"created_at"`
}

// CalibrationStore provides persistence for calibration runs.
type CalibrationStore struct {
	db *sql.DB
}

// NewCalibrationStore creates a new CalibrationStore.
func NewCalibrationStore(db *sql.DB) *CalibrationStore {
	return &CalibrationStore{db: db}
}

// Insert persists a new calibration run. If RunID is empty, a UUID is
// generated; if CreatedAt is zero, the current time is used.
func (s *CalibrationStore) Insert(run *CalibrationRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO calibration_runs (
				run_id, corpus, sample_count,
				precision, recall, f1, iou, agreement,
				mean_abs_diff, foreground_ratio, score,
				params_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Corpus, run.SampleCount,
			run.Precision, run.Recall, run.F1, run.IoU, run.Agreement,
			run.MeanAbsDiff, run.ForegroundRatio, run.Score,
			paramsStr, run.CreatedAt,
		)
		return err
	})
}

// Get returns a single calibration run by ID.
func (s *CalibrationStore) Get(runID string) (*CalibrationRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, corpus, sample_count,
		       precision, recall, f1, iou, agreement,
		       mean_abs_diff, foreground_ratio, score,
		       params_json, created_at
		FROM calibration_runs
		WHERE run_id = ?`, runID)

	var r CalibrationRun
	var paramsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.Corpus, &r.SampleCount,
		&r.Precision, &r.Recall, &r.F1, &r.IoU, &r.Agreement,
		&r.MeanAbsDiff, &r.ForegroundRatio, &r.Score,
		&paramsStr, &r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("calibration run %s not found", runID)
		}
		return nil, fmt.Errorf("scan calibration run: %w", err)
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

// List returns the most recent calibration runs across all corpora, newest
// first. A non-positive limit returns everything.
func (s *CalibrationStore) List(limit int) ([]*CalibrationRun, error) {
	query := `
		SELECT run_id, corpus, sample_count,
		       precision, recall, f1, iou, agreement,
		       mean_abs_diff, foreground_ratio, score,
		       params_json, created_at
		FROM calibration_runs
		ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("query calibration runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// ListByCorpus returns all calibration runs for a corpus, newest first.
func (s *CalibrationStore) ListByCorpus(corpus string) ([]*CalibrationRun, error) {
	rows, err := s.db.Query(`
		SELECT run_id, corpus, sample_count,
		       precision, recall, f1, iou, agreement,
		       mean_abs_diff, foreground_ratio, score,
		       params_json, created_at
		FROM calibration_runs
		WHERE corpus = ?
		ORDER BY created_at DESC`, corpus)
	if err != nil {
		return nil, fmt.Errorf("query calibration runs: %w", err)
	}
	defer rows.Close()

	return collectRuns(rows)
}

// Best returns the highest-scoring calibration run for a corpus, breaking
// ties by recency.
func (s *CalibrationStore) Best(corpus string) (*CalibrationRun, error) {
	row := s.db.QueryRow(`
		SELECT run_id, corpus, sample_count,
		       precision, recall, f1, iou, agreement,
		       mean_abs_diff, foreground_ratio, score,
		       params_json, created_at
		FROM calibration_runs
		WHERE corpus = ?
		ORDER BY score DESC, created_at DESC
		LIMIT 1`, corpus)

	var r CalibrationRun
	var paramsStr sql.NullString
	err := row.Scan(
		&r.RunID, &r.Corpus, &r.SampleCount,
		&r.Precision, &r.Recall, &r.F1, &r.IoU, &r.Agreement,
		&r.MeanAbsDiff, &r.ForegroundRatio, &r.Score,
		&paramsStr, &r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no calibration runs for corpus %s", corpus)
		}
		return nil, fmt.Errorf("scan calibration run: %w", err)
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}

// Delete removes a calibration run by ID.
func (s *CalibrationStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM calibration_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete calibration run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("calibration run %s not found", runID)
		}
		return nil
	})
}

func collectRuns(rows *sql.Rows) ([]*CalibrationRun, error) {
	var runs []*CalibrationRun
	for rows.Next() {
		r, err := scanCalibrationRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// scanCalibrationRun scans a calibration run from a sql.Rows cursor.
func scanCalibrationRun(rows *sql.Rows) (*CalibrationRun, error) {
	var r CalibrationRun
	var paramsStr sql.NullString
	err := rows.Scan(
		&r.RunID, &r.Corpus, &r.SampleCount,
		&r.Precision, &r.Recall, &r.F1, &r.IoU, &r.Agreement,
		&r.MeanAbsDiff, &r.ForegroundRatio, &r.Score,
		&paramsStr, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan calibration run row: %w", err)
	}
	if paramsStr.Valid {
		r.ParamsJSON = json.RawMessage(paramsStr.String)
	}
	return &r, nil
}
