package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/mayank0274/mock-interview-with-ai/internal/llm"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// InterviewerResponse is the question part of a turn outcome as exposed to
// clients, both in chat replies and in the job status log payload.
type InterviewerResponse struct {
	Question   string `json:"question"`
	Type       string `json:"type"`
	QuestionNo int    `json:"question_no"`
}

// TurnOutcome is the evaluation_completed payload written to the job log.
type TurnOutcome struct {
	InterviewerRes   InterviewerResponse `json:"interviewer_res"`
	RemainingSeconds int                 `json:"remainingSeconds"`
}

// TurnFunction returns the workflow function that consumes finished
// transcriptions and produces the next interviewer question, or triggers
// completion when the time budget ran out.
func (s *Service) TurnFunction() workflow.Function {
	return workflow.Function{
		Name:    "evaluate-user-answer",
		Event:   workflow.EventTranscriptionCompleted,
		Retries: 1,
		Handler: s.handleTranscription,
	}
}

func (s *Service) handleTranscription(ctx context.Context, step *workflow.StepContext, evt workflow.Event) error {
	payload, err := workflow.Decode[workflow.TranscriptionCompleted](evt)
	if err != nil {
		return err
	}
	logKey := redisstore.AnswerKey(payload.InterviewID, payload.AudioPath)

	meta, err := s.meta.Get(ctx, payload.InterviewID)
	if err != nil {
		if errors.Is(err, redisstore.ErrSessionNotStarted) {
			// Business outcome, not a transient fault: the session expired
			// or was never started, so there is nothing to ask.
			s.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, "Interview expired or not started")
			return workflow.Terminal(err)
		}
		s.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}

	s.jobLog.Append(ctx, logKey, redisstore.StatusEvaluationStarted, nil, "")

	remaining := RemainingSeconds(meta, s.now())
	if remaining <= 0 {
		s.jobLog.Append(ctx, logKey, redisstore.StatusPreparingResult, nil, "")
		if err := s.SignalCompletion(ctx, payload.InterviewID); err != nil {
			s.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
			return fmt.Errorf("failed to signal interview completion: %w", err)
		}
		return nil
	}

	question, err := workflow.Run(ctx, step, "generate-next-question", func(ctx context.Context) (llm.Question, error) {
		return s.nextQuestion(ctx, meta, payload.InterviewID, payload.Transcription, remaining)
	})
	if err != nil {
		s.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}

	_, err = workflow.Run(ctx, step, "store-evaluation-result", func(ctx context.Context) (bool, error) {
		err := s.history.AppendExchange(ctx, payload.InterviewID,
			payload.Transcription, question.Question, question.Type, question.QuestionNo)
		return err == nil, err
	})
	if err != nil {
		s.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}

	s.jobLog.Append(ctx, logKey, redisstore.StatusEvaluationCompleted, TurnOutcome{
		InterviewerRes: InterviewerResponse{
			Question:   question.Question,
			Type:       question.Type,
			QuestionNo: question.QuestionNo,
		},
		RemainingSeconds: remaining,
	}, "")
	return nil
}

// nextQuestion runs the interviewer model over the conversation so far and
// the candidate's latest input. Malformed model output degrades to the
// fallback question instead of failing the turn.
func (s *Service) nextQuestion(ctx context.Context, meta *redisstore.SessionMeta, interviewID, candidateInput string, remaining int) (llm.Question, error) {
	raw, err := s.history.Raw(ctx, interviewID)
	if err != nil {
		return llm.Question{}, err
	}
	history := llm.ParseHistory(raw)

	prompt := llm.BuildQuestionPrompt(jobContext(meta), history, remaining, candidateInput)
	response, err := s.model.GenerateJSON(ctx, prompt)
	if err != nil {
		return llm.Question{}, fmt.Errorf("interviewer model call failed: %w", err)
	}
	return llm.ParseQuestion(response), nil
}
