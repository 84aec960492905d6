package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/interview"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/server/middleware"
)

// ownedInterview loads an interview and verifies the caller owns it.
func (s *Server) ownedInterview(r *http.Request, interviewID string) (*db.InterviewSession, string, error) {
	email, err := middleware.GetUserEmail(r)
	if err != nil {
		return nil, "", err
	}

	id, err := uuid.Parse(interviewID)
	if err != nil {
		return nil, "", interview.ErrInterviewNotFound
	}

	iv, err := s.interviews.GetInterview(r.Context(), id)
	if err != nil {
		return nil, "", err
	}
	if iv == nil {
		return nil, "", interview.ErrInterviewNotFound
	}
	if iv.CandidateEmail != email {
		return nil, "", interview.ErrAccessDenied
	}
	return iv, email, nil
}

// handleCreateInterview books a new interview session, spending one credit.
func (s *Server) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.GetUserEmail(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	if err := s.userService.SpendCredit(r.Context(), email); err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	persona := interview.RandomInterviewer()
	iv, err := s.interviews.CreateInterview(r.Context(), db.CreateInterviewInput{
		CandidateEmail:    email,
		CandidateName:     email,
		JobTitle:          req.JobTitle,
		JobDescription:    req.JobDescription,
		InterviewerName:   persona.Name,
		InterviewerGender: persona.Gender,
		InterviewerVoice:  persona.Voice,
	})
	if err != nil {
		s.logger.Error("failed to create interview", zap.Error(err))
		http.Error(w, "Something went wrong while creating interview session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, iv)
}

// handleGetInterview returns one interview owned by the caller.
func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	iv, _, err := s.ownedInterview(r, r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// handleStartInterview transitions a created interview to started, fixes its
// time window and seeds the ephemeral session record every turn reads.
func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	iv, email, err := s.ownedInterview(r, r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	now := s.now().UTC()
	end := now.Add(interview.DefaultDuration)

	started, err := s.interviews.StartInterview(r.Context(), iv.ID, now, end)
	if err != nil {
		s.logger.Error("failed to start interview", zap.Error(err))
		http.Error(w, "Error starting interview session", http.StatusInternalServerError)
		return
	}
	if !started {
		http.Error(w, "This interview is already started or completed", http.StatusBadRequest)
		return
	}

	err = s.meta.Put(r.Context(), iv.ID.String(), &redisstore.SessionMeta{
		JobTitle:        iv.JobTitle,
		JobDescription:  iv.JobDescription,
		CandidateName:   email,
		StartTime:       now,
		EndTime:         end,
		DurationSeconds: int(interview.DefaultDuration.Seconds()),
		Status:          db.InterviewStatusStarted,
	})
	if err != nil {
		s.logger.Error("failed to write session metadata", zap.Error(err))
		http.Error(w, "Error starting interview session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, StartInterviewResponse{
		InterviewID:      iv.ID.String(),
		Status:           db.InterviewStatusStarted,
		StartTime:        now.Format(timeFormat),
		EndTime:          end.Format(timeFormat),
		DurationMinutes:  int(interview.DefaultDuration.Minutes()),
		RemainingSeconds: int(interview.DefaultDuration.Seconds()),
	})
}

// handleEndInterview ends a running interview early. The end time collapses
// to now and the same completion event as natural expiry is emitted, so
// finalization converges on one path.
func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request) {
	iv, _, err := s.ownedInterview(r, r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	if err := s.interviews.SetEndTime(r.Context(), iv.ID, s.now().UTC()); err != nil {
		s.logger.Error("failed to end interview", zap.Error(err))
		http.Error(w, "Error ending interview session", http.StatusInternalServerError)
		return
	}

	if err := s.interviewSvc.SignalCompletion(r.Context(), iv.ID.String()); err != nil {
		s.logger.Error("failed to signal interview completion", zap.Error(err))
		http.Error(w, "Error ending interview session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Result preparation started"})
}

// handleChat runs one synchronous conversational turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.GetUserEmail(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.validator.Struct(req); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	reply, err := s.interviewSvc.Chat(r.Context(), interview.ChatInput{
		InterviewID:    req.InterviewID,
		CandidateEmail: email,
		Message:        req.Msg,
	})
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("chat turn failed", zap.String("interview_id", req.InterviewID), zap.Error(err))
			http.Error(w, "Something went wrong while talking to interviewer", status)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// handleEvaluationStatus reports the latest known state of one answer's
// background evaluation. An absent log means the job is still in flight.
func (s *Server) handleEvaluationStatus(w http.ResponseWriter, r *http.Request) {
	interviewID := r.URL.Query().Get("interview_id")
	audioPath := r.URL.Query().Get("audio_path")
	if interviewID == "" || audioPath == "" {
		http.Error(w, "interview_id and audio_path are required", http.StatusBadRequest)
		return
	}
	if unescaped, err := url.QueryUnescape(audioPath); err == nil {
		audioPath = unescaped
	}

	entry, err := s.jobLog.ReadLast(r.Context(), redisstore.AnswerKey(interviewID, audioPath))
	if err != nil {
		s.logger.Error("failed to read evaluation status", zap.Error(err))
		http.Error(w, "Something went wrong while fetching the result", http.StatusInternalServerError)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":             "processing...",
			"evaluation_payload": nil,
			"error":              nil,
		})
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// handleGetResult returns the final scored evaluation of a completed
// interview.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	iv, _, err := s.ownedInterview(r, r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	if iv.Status != db.InterviewStatusCompleted {
		http.Error(w, "This interview is not completed or we are preparing results", http.StatusBadRequest)
		return
	}

	result, err := s.interviews.GetResult(r.Context(), iv.ID)
	if err != nil {
		s.logger.Error("failed to read interview result", zap.Error(err))
		http.Error(w, "Something went wrong while fetching result", http.StatusInternalServerError)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Preparing Result"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":    result,
		"job_title": iv.JobTitle,
		"status":    iv.Status,
		"end_time":  iv.EndTime,
	})
}

// handleListInterviews returns one page of the caller's interview history.
func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.GetUserEmail(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	page := 1
	if v := r.URL.Query().Get("page_no"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			page = n
		}
	}

	total, err := s.interviews.CountInterviews(r.Context(), email)
	if err != nil {
		s.logger.Error("failed to count interviews", zap.Error(err))
		http.Error(w, "Something went wrong while fetching history", http.StatusInternalServerError)
		return
	}

	results, err := s.interviews.ListInterviews(r.Context(), email, page)
	if err != nil {
		s.logger.Error("failed to list interviews", zap.Error(err))
		http.Error(w, "Something went wrong while fetching history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListInterviewsResponse{
		Results: results,
		Total:   total,
		Page:    page,
		Limit:   db.DefaultListLimit,
	})
}
