package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DefaultListLimit caps how many interviews one page returns.
const DefaultListLimit = 10

// CreateInterviewInput holds the fields required to schedule an interview.
type CreateInterviewInput struct {
	CandidateEmail    string
	CandidateName     string
	JobTitle          string
	JobDescription    string
	InterviewerName   string
	InterviewerGender string
	InterviewerVoice  string
}

const interviewColumns = `id, candidate_email, candidate_name, job_title, job_description,
	 interviewer_name, interviewer_gender, interviewer_voice, status, start_time, end_time, created_at`

func scanInterview(row pgx.Row) (*InterviewSession, error) {
	var iv InterviewSession
	err := row.Scan(&iv.ID, &iv.CandidateEmail, &iv.CandidateName, &iv.JobTitle, &iv.JobDescription,
		&iv.InterviewerName, &iv.InterviewerGender, &iv.InterviewerVoice,
		&iv.Status, &iv.StartTime, &iv.EndTime, &iv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// CreateInterview inserts a new interview in the created state and returns it.
func (db *DB) CreateInterview(ctx context.Context, input CreateInterviewInput) (*InterviewSession, error) {
	iv, err := scanInterview(db.pool.QueryRow(ctx,
		`INSERT INTO interviews (candidate_email, candidate_name, job_title, job_description,
		  interviewer_name, interviewer_gender, interviewer_voice, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'created')
		 RETURNING `+interviewColumns,
		input.CandidateEmail, input.CandidateName, input.JobTitle, input.JobDescription,
		input.InterviewerName, input.InterviewerGender, input.InterviewerVoice,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	return iv, nil
}

// GetInterview retrieves an interview by ID, or nil when none exists.
func (db *DB) GetInterview(ctx context.Context, interviewID uuid.UUID) (*InterviewSession, error) {
	iv, err := scanInterview(db.pool.QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`,
		interviewID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	return iv, nil
}

// ListInterviews retrieves one page of a candidate's interviews, newest first.
// Page numbering starts at 1.
func (db *DB) ListInterviews(ctx context.Context, candidateEmail string, page int) ([]InterviewSession, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * DefaultListLimit

	rows, err := db.pool.Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE candidate_email = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		candidateEmail, DefaultListLimit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []InterviewSession
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, *iv)
	}
	return interviews, nil
}

// CountInterviews returns how many interviews a candidate owns in total.
func (db *DB) CountInterviews(ctx context.Context, candidateEmail string) (int64, error) {
	var total int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interviews WHERE candidate_email = $1`,
		candidateEmail,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count interviews: %w", err)
	}
	return total, nil
}

// StartInterview moves an interview from created to started and records its
// start and end times. It returns false when the interview was not in the
// created state, so a second start attempt cannot reset the clock.
func (db *DB) StartInterview(ctx context.Context, interviewID uuid.UUID, startTime, endTime time.Time) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE interviews SET status = 'started', start_time = $1, end_time = $2
		 WHERE id = $3 AND status = 'created'`,
		startTime, endTime, interviewID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to start interview: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// SetEndTime overwrites the scheduled end time of a running interview.
func (db *DB) SetEndTime(ctx context.Context, interviewID uuid.UUID, endTime time.Time) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE interviews SET end_time = $1 WHERE id = $2 AND status = 'started'`,
		endTime, interviewID,
	)
	if err != nil {
		return fmt.Errorf("failed to set end time: %w", err)
	}
	return nil
}

// CompleteInterview marks an interview completed. It returns false when the
// interview was already completed, which lets concurrent finalizers agree on
// a single winner.
func (db *DB) CompleteInterview(ctx context.Context, interviewID uuid.UUID) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`UPDATE interviews SET status = 'completed' WHERE id = $1 AND status <> 'completed'`,
		interviewID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete interview: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
