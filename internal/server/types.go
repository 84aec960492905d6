package server

import "github.com/mayank0274/mock-interview-with-ai/internal/db"

// CreateUserRequest is the registration request body.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the account and its bearer token.
type LoginResponse struct {
	User  *db.User `json:"user"`
	Token string   `json:"token"`
}

// CreateInterviewRequest is the interview booking request body.
type CreateInterviewRequest struct {
	JobTitle       string `json:"job_title" validate:"required,min=1,max=200"`
	JobDescription string `json:"job_description" validate:"required,min=1"`
}

// ChatRequest is one synchronous candidate message.
type ChatRequest struct {
	InterviewID string `json:"interview_id" validate:"required"`
	Msg         string `json:"msg" validate:"required"`
}

// StartInterviewResponse reports the started session's time window.
type StartInterviewResponse struct {
	InterviewID      string `json:"interviewId"`
	Status           string `json:"status"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	DurationMinutes  int    `json:"durationMinutes"`
	RemainingSeconds int    `json:"remainingSeconds"`
}

// ListInterviewsResponse is one page of a candidate's interview history.
type ListInterviewsResponse struct {
	Results []db.InterviewSession `json:"results"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	Limit   int                   `json:"limit"`
}

// UploadResponse acknowledges a stored audio chunk.
type UploadResponse struct {
	AudioPath   string `json:"audio_path"`
	ChunkNumber int64  `json:"chunk_number"`
}
