package sqlite_db

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite" // Pure Go SQLite driver
	"github.com/google/uuid"
)

// timeLayout has a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded training run.
type Run struct {
	ID                 string
	CreatedAt          time.Time
	Dataset            string
	TrainSize          int
	ValidationSize     int
	VocabularySize     int
	Iterations         int
	Converged          bool
	AUC                float64 // NaN when undefined
	Accuracy           float64
	TN, FP, FN, TP     int
	VectorizerArtifact string
	ModelArtifact      string
}

// InitDB initializes an SQLite database at the given path.
// It creates the database file if it doesn't exist and sets up a 'training_runs' table.
func InitDB(dataSourceName string) (*sql.DB, error) {
	dir := filepath.Dir(dataSourceName)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// The driver name for github.com/glebarez/sqlite is "sqlite" or "sqlite3"
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `CREATE TABLE IF NOT EXISTS training_runs (
		"id" TEXT PRIMARY KEY,
		"created_at" TEXT NOT NULL,
		"dataset" TEXT NOT NULL,
		"train_size" INTEGER NOT NULL,
		"validation_size" INTEGER NOT NULL,
		"vocabulary_size" INTEGER NOT NULL,
		"iterations" INTEGER NOT NULL,
		"converged" INTEGER NOT NULL,
		"auc" REAL,
		"accuracy" REAL NOT NULL,
		"tn" INTEGER NOT NULL,
		"fp" INTEGER NOT NULL,
		"fn" INTEGER NOT NULL,
		"tp" INTEGER NOT NULL,
		"vectorizer_artifact" TEXT NOT NULL,
		"model_artifact" TEXT NOT NULL
	);`
	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create training_runs table: %w", err)
	}
	return db, nil
}

// RecordRun stores run, filling in ID and CreatedAt when they are empty,
// and returns the stored ID.
func RecordRun(db *sql.DB, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	auc := sql.NullFloat64{Float64: run.AUC, Valid: !math.IsNaN(run.AUC)}

	insertSQL := `INSERT INTO training_runs(
		id, created_at, dataset, train_size, validation_size, vocabulary_size,
		iterations, converged, auc, accuracy, tn, fp, fn, tp,
		vectorizer_artifact, model_artifact
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.Exec(insertSQL,
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Dataset,
		run.TrainSize, run.ValidationSize, run.VocabularySize,
		run.Iterations, run.Converged, auc, run.Accuracy,
		run.TN, run.FP, run.FN, run.TP,
		run.VectorizerArtifact, run.ModelArtifact,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert training run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns every run.
func ListRuns(db *sql.DB, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, created_at, dataset, train_size, validation_size, vocabulary_size,
		iterations, converged, auc, accuracy, tn, fp, fn, tp,
		vectorizer_artifact, model_artifact
		FROM training_runs ORDER BY created_at DESC LIMIT ?`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			createdAt string
			auc       sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Dataset, &r.TrainSize, &r.ValidationSize,
			&r.VocabularySize, &r.Iterations, &r.Converged, &auc, &r.Accuracy,
			&r.TN, &r.FP, &r.FN, &r.TP, &r.VectorizerArtifact, &r.ModelArtifact); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		r.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("training run %s has bad timestamp %q: %w", r.ID, createdAt, err)
		}
		r.AUC = math.NaN()
		if auc.Valid {
			r.AUC = auc.Float64
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read training runs: %w", err)
	}
	return runs, nil
}
