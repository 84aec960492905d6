package interview

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/llm"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
)

// EndedMessage is returned on the chat path once the time budget is spent.
const EndedMessage = "Interview session has ended."

// ChatInput is one synchronous candidate message.
type ChatInput struct {
	InterviewID    string
	CandidateEmail string
	Message        string
}

// ChatReply is the synchronous chat response. Either InterviewerRes is set
// (active interview) or Message with Redirect (interview just ended).
type ChatReply struct {
	InterviewerRes   *InterviewerResponse `json:"interviewer_res"`
	Message          string               `json:"message,omitempty"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	Redirect         bool                 `json:"redirect,omitempty"`
}

// Chat handles one low-latency conversational turn inline in the request
// path. It follows the same branch logic as the background turn pipeline:
// expired sessions converge on the completion event, active ones produce
// the next question and update the running aggregates.
func (s *Service) Chat(ctx context.Context, input ChatInput) (*ChatReply, error) {
	meta, err := s.meta.Get(ctx, input.InterviewID)
	if err != nil {
		return nil, err
	}
	if meta.CandidateName != input.CandidateEmail {
		return nil, ErrAccessDenied
	}

	remaining := RemainingSeconds(meta, s.now())
	if remaining <= 0 {
		return s.endExpiredChat(ctx, input)
	}

	history, err := s.history.Raw(ctx, input.InterviewID)
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildQuestionPrompt(jobContext(meta), llm.ParseHistory(history), remaining, input.Message)

	response, err := s.model.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("interviewer model call failed: %w", err)
	}
	question := llm.ParseQuestion(response)

	if err := s.history.AppendExchange(ctx, input.InterviewID,
		input.Message, question.Question, question.Type, question.QuestionNo); err != nil {
		return nil, err
	}

	// Aggregate updates are best-effort: a lost per-turn score must not
	// fail the chat turn.
	if question.Evaluation != nil {
		scores := redisstore.TurnScores{
			Communication: question.Evaluation.Communication,
			Technical:     question.Evaluation.TechnicalKnowledge,
			Clarity:       question.Evaluation.Clarity,
			Suggestion:    question.Evaluation.Suggestion,
		}
		if err := s.aggregates.Add(ctx, input.InterviewID, scores); err != nil {
			s.logger.Warn("failed to update aggregate scores",
				zap.String("interview_id", input.InterviewID), zap.Error(err))
		}
	}

	return &ChatReply{
		InterviewerRes: &InterviewerResponse{
			Question:   question.Question,
			Type:       question.Type,
			QuestionNo: question.QuestionNo,
		},
		RemainingSeconds: remaining,
	}, nil
}

// endExpiredChat closes out a session whose budget ran out mid-conversation:
// the final candidate message is still recorded, the session and the durable
// row are marked completed, and the same completion event as the background
// path is emitted so finalization runs exactly once in intent.
func (s *Service) endExpiredChat(ctx context.Context, input ChatInput) (*ChatReply, error) {
	if err := s.meta.SetStatus(ctx, input.InterviewID, db.InterviewStatusCompleted); err != nil {
		s.logger.Warn("failed to mark session meta completed",
			zap.String("interview_id", input.InterviewID), zap.Error(err))
	}

	if id, err := uuid.Parse(input.InterviewID); err == nil {
		if _, err := s.repo.CompleteInterview(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := s.history.AppendCandidate(ctx, input.InterviewID, input.Message); err != nil {
		s.logger.Warn("failed to store final answer in history",
			zap.String("interview_id", input.InterviewID), zap.Error(err))
	}

	if err := s.SignalCompletion(ctx, input.InterviewID); err != nil {
		return nil, fmt.Errorf("failed to signal interview completion: %w", err)
	}

	return &ChatReply{
		Message:          EndedMessage,
		RemainingSeconds: 0,
		Redirect:         true,
	}, nil
}
