package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PredictionRun is one submitted prediction with whatever came back.
type PredictionRun struct {
	Kind    string
	Country string
	Request interface{}
	Result  interface{}
	Error   string
}

type PredictionRecorder interface {
	RecordPrediction(ctx context.Context, run PredictionRun) error
}

type PostgresPredictionRecorder struct {
	db *sqlx.DB
}

func NewPostgresPredictionRecorder(db *sqlx.DB) *PostgresPredictionRecorder {
	return &PostgresPredictionRecorder{db: db}
}

func (r *PostgresPredictionRecorder) RecordPrediction(ctx context.Context, run PredictionRun) error {
	const query = `
		INSERT INTO prediction_runs (
			kind, country, request, result, error, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, NOW()
		)`

	requestJSON, err := json.Marshal(run.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var resultJSON []byte
	if run.Result != nil {
		resultJSON, err = json.Marshal(run.Result)
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
	}

	var errText *string
	if run.Error != "" {
		errText = &run.Error
	}

	_, err = r.db.ExecContext(ctx, query, run.Kind, run.Country, requestJSON, resultJSON, errText)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}
