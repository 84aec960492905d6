package db

import (
	"time"

	"github.com/google/uuid"
)

// Interview lifecycle statuses. Transitions only move forward:
// created -> started -> completed.
const (
	InterviewStatusCreated   = "created"
	InterviewStatusStarted   = "started"
	InterviewStatusCompleted = "completed"
)

// InterviewSession is one scheduled interview owned by a candidate.
type InterviewSession struct {
	ID                uuid.UUID  `json:"id"`
	CandidateEmail    string     `json:"candidate_email"`
	CandidateName     string     `json:"candidate_name"`
	JobTitle          string     `json:"job_title"`
	JobDescription    string     `json:"job_description"`
	InterviewerName   string     `json:"interviewer_name"`
	InterviewerGender string     `json:"interviewer_gender"`
	InterviewerVoice  string     `json:"interviewer_voice"`
	Status            string     `json:"status"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// InterviewResult is the final scored evaluation of a completed interview.
// At most one row exists per interview.
type InterviewResult struct {
	ID                 uuid.UUID `json:"id"`
	InterviewID        uuid.UUID `json:"interview_id"`
	CommunicationScore float64   `json:"communication_score"`
	TechnicalScore     float64   `json:"technical_score"`
	ClarityScore       float64   `json:"clarity_score"`
	OverallScore       float64   `json:"overall_score"`
	Suggestions        []string  `json:"suggestions"`
	CreatedAt          time.Time `json:"created_at"`
}

// User represents a registered candidate account.
type User struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreatedAt        time.Time `json:"created_at"`
}
