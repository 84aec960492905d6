package interview

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/llm"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// FinalizeFunction returns the workflow function that turns a completed
// interview's conversation into a stored, scored result. Completion events
// are delivered at least once, so the whole body is idempotent: the durable
// status transition is a compare-and-set and the result insert is
// insert-if-absent.
func (s *Service) FinalizeFunction() workflow.Function {
	return workflow.Function{
		Name:    "prepare-interview-result",
		Event:   workflow.EventInterviewCompleted,
		Retries: 1,
		Handler: s.handleCompletion,
	}
}

func (s *Service) handleCompletion(ctx context.Context, step *workflow.StepContext, evt workflow.Event) error {
	payload, err := workflow.Decode[workflow.InterviewCompleted](evt)
	if err != nil {
		return err
	}

	interviewID, err := uuid.Parse(payload.InterviewID)
	if err != nil {
		return workflow.Terminal(fmt.Errorf("malformed interview id %q: %w", payload.InterviewID, err))
	}

	if existing, err := s.repo.GetResult(ctx, interviewID); err != nil {
		return err
	} else if existing != nil {
		// A previous delivery already finalized this interview.
		s.logger.Info("result already exists, skipping finalization",
			zap.String("interview_id", payload.InterviewID))
		return nil
	}

	evaluation, err := workflow.Run(ctx, step, "evaluate-transcript", func(ctx context.Context) (llm.Evaluation, error) {
		return s.evaluateTranscript(ctx, payload.InterviewID)
	})
	if err != nil {
		return err
	}

	if _, err := s.repo.CompleteInterview(ctx, interviewID); err != nil {
		return err
	}

	inserted, err := s.repo.InsertResult(ctx, db.InsertResultInput{
		InterviewID:        interviewID,
		CommunicationScore: evaluation.CommunicationScore,
		TechnicalScore:     evaluation.TechnicalScore,
		ClarityScore:       evaluation.ClarityScore,
		OverallScore:       evaluation.Overall(),
		Suggestions:        evaluation.Suggestions,
	})
	if err != nil {
		return err
	}
	if !inserted {
		s.logger.Info("concurrent finalization already inserted the result",
			zap.String("interview_id", payload.InterviewID))
	}
	return nil
}

// evaluateTranscript reconstructs the chronological, deduplicated transcript
// and runs the aggregate evaluation model over it. Malformed model output
// degrades to the fallback evaluation so finalization never stalls.
func (s *Service) evaluateTranscript(ctx context.Context, interviewID string) (llm.Evaluation, error) {
	raw, err := s.history.Raw(ctx, interviewID)
	if err != nil {
		return llm.Evaluation{}, err
	}
	transcript := llm.FormatHistory(llm.ParseHistory(raw))

	response, err := s.model.GenerateJSON(ctx, llm.BuildEvaluationPrompt(transcript))
	if err != nil {
		return llm.Evaluation{}, fmt.Errorf("evaluation model call failed: %w", err)
	}
	return llm.ParseEvaluation(response), nil
}
