package interview

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

func transcriptionEvent(t *testing.T, interviewID, audioPath, text string) workflow.Event {
	t.Helper()
	evt, err := workflow.NewEvent(workflow.EventTranscriptionCompleted, workflow.TranscriptionCompleted{
		Transcription: text,
		InterviewID:   interviewID,
		AudioPath:     audioPath,
	})
	require.NoError(t, err)
	return evt
}

func TestTurnWithoutMetadataFailsAsBusinessFault(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()

	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/1.webm", "my answer"))

	// No crash, no model call, no completion event.
	assert.Equal(t, 0, f.model.callCount())
	assert.Empty(t, f.events.named(workflow.EventInterviewCompleted))

	entry, err := f.svc.jobLog.ReadLast(context.Background(),
		redisstore.AnswerKey(interviewID.String(), "audio/1.webm"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, redisstore.StatusError, entry.Status)
	require.NotNil(t, entry.Error)
	assert.Contains(t, *entry.Error, "expired or not started")
}

func TestTurnGeneratesQuestionWhileTimeRemains(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)
	f.now = f.now.Add(10 * time.Second) // 590s left

	f.model.responses = []string{questionJSON(t, "What is a goroutine?", 1)}

	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/1.webm", "I studied Go concurrency."))

	assert.Equal(t, 1, f.model.callCount())
	assert.Empty(t, f.events.named(workflow.EventInterviewCompleted))

	entry, err := f.svc.jobLog.ReadLast(context.Background(),
		redisstore.AnswerKey(interviewID.String(), "audio/1.webm"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, redisstore.StatusEvaluationCompleted, entry.Status)

	var outcome TurnOutcome
	require.NoError(t, json.Unmarshal(entry.EvaluationPayload, &outcome))
	assert.Equal(t, "What is a goroutine?", outcome.InterviewerRes.Question)
	assert.Equal(t, 1, outcome.InterviewerRes.QuestionNo)
	assert.Equal(t, 590, outcome.RemainingSeconds)

	// Both the answer and the question landed in the history.
	raw, err := f.svc.history.Raw(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestTurnAfterExpiryEmitsSingleCompletion(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)
	f.now = f.now.Add(605 * time.Second)

	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/2.webm", "final words"))

	assert.Equal(t, 0, f.model.callCount())
	assert.Len(t, f.events.named(workflow.EventInterviewCompleted), 1)

	entry, err := f.svc.jobLog.ReadLast(context.Background(),
		redisstore.AnswerKey(interviewID.String(), "audio/2.webm"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, redisstore.StatusPreparingResult, entry.Status)
}

func TestTurnMalformedModelOutputFallsBack(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)

	f.model.responses = []string{"I refuse to answer in JSON"}

	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/1.webm", "hello"))

	entry, err := f.svc.jobLog.ReadLast(context.Background(),
		redisstore.AnswerKey(interviewID.String(), "audio/1.webm"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, redisstore.StatusEvaluationCompleted, entry.Status)

	var outcome TurnOutcome
	require.NoError(t, json.Unmarshal(entry.EvaluationPayload, &outcome))
	assert.Equal(t, "theory", outcome.InterviewerRes.Type)
	assert.Equal(t, 1, outcome.InterviewerRes.QuestionNo)
	assert.NotEmpty(t, outcome.InterviewerRes.Question)
}

// Full session arc: a turn at 590 seconds remaining yields question number
// one; a turn after the budget is spent yields no question and exactly one
// completion event.
func TestInterviewLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)

	f.now = f.now.Add(10 * time.Second)
	f.model.responses = []string{questionJSON(t, "Tell me about your background.", 1)}
	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/1.webm", "Hi, I am Jordan."))

	entry, err := f.svc.jobLog.ReadLast(context.Background(),
		redisstore.AnswerKey(interviewID.String(), "audio/1.webm"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, redisstore.StatusEvaluationCompleted, entry.Status)

	var outcome TurnOutcome
	require.NoError(t, json.Unmarshal(entry.EvaluationPayload, &outcome))
	assert.Equal(t, 1, outcome.InterviewerRes.QuestionNo)
	assert.Equal(t, 590, outcome.RemainingSeconds)

	f.now = f.now.Add(595 * time.Second)
	deliver(t, f.rdb, f.svc.TurnFunction(),
		transcriptionEvent(t, interviewID.String(), "audio/2.webm", "Anything else?"))

	assert.Equal(t, 1, f.model.callCount())
	assert.Len(t, f.events.named(workflow.EventInterviewCompleted), 1)
}
