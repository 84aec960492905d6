package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertResultInput holds the scores for one finished interview.
type InsertResultInput struct {
	InterviewID        uuid.UUID
	CommunicationScore float64
	TechnicalScore     float64
	ClarityScore       float64
	OverallScore       float64
	Suggestions        []string
}

// InsertResult stores the evaluation for an interview. The interview_id
// column carries a unique constraint, so a concurrent duplicate insert is
// silently dropped; the return value reports whether this call won.
func (db *DB) InsertResult(ctx context.Context, input InsertResultInput) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`INSERT INTO interview_results (interview_id, communication_score, technical_score, clarity_score, overall_score, suggestions)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (interview_id) DO NOTHING`,
		input.InterviewID, input.CommunicationScore, input.TechnicalScore, input.ClarityScore, input.OverallScore, input.Suggestions,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert result: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetResult retrieves the stored evaluation for an interview, or nil when no
// result has been produced yet.
func (db *DB) GetResult(ctx context.Context, interviewID uuid.UUID) (*InterviewResult, error) {
	var r InterviewResult
	err := db.pool.QueryRow(ctx,
		`SELECT id, interview_id, communication_score, technical_score, clarity_score, overall_score, suggestions, created_at
		 FROM interview_results WHERE interview_id = $1`,
		interviewID,
	).Scan(&r.ID, &r.InterviewID, &r.CommunicationScore, &r.TechnicalScore, &r.ClarityScore, &r.OverallScore, &r.Suggestions, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &r, nil
}
