package interview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

func TestChatRequiresStartedSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Chat(context.Background(), ChatInput{
		InterviewID:    uuid.NewString(),
		CandidateEmail: "jordan@example.com",
		Message:        "hello?",
	})
	assert.True(t, errors.Is(err, redisstore.ErrSessionNotStarted))
}

func TestChatRejectsOtherCandidate(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)

	_, err := f.svc.Chat(context.Background(), ChatInput{
		InterviewID:    interviewID.String(),
		CandidateEmail: "intruder@example.com",
		Message:        "let me in",
	})
	assert.True(t, errors.Is(err, ErrAccessDenied))
}

func TestChatActiveTurn(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)
	f.now = f.now.Add(30 * time.Second)

	f.model.responses = []string{`{
		"type": "follow_up",
		"question": "How would you detect the leak?",
		"question_no": 2,
		"evaluation": {
			"communication": 7,
			"technical_knowledge": 8,
			"clarity": 6.5,
			"suggestion": "Quantify the impact you observed."
		}
	}`}

	reply, err := f.svc.Chat(context.Background(), ChatInput{
		InterviewID:    interviewID.String(),
		CandidateEmail: "jordan@example.com",
		Message:        "We had a goroutine leak in production.",
	})
	require.NoError(t, err)
	require.NotNil(t, reply.InterviewerRes)
	assert.Equal(t, "How would you detect the leak?", reply.InterviewerRes.Question)
	assert.Equal(t, 2, reply.InterviewerRes.QuestionNo)
	assert.Equal(t, 570, reply.RemainingSeconds)
	assert.False(t, reply.Redirect)

	snap, err := f.svc.aggregates.Snapshot(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Count)
	assert.InDelta(t, 7, snap.TotalCommunication, 0.001)
	assert.InDelta(t, 8, snap.TotalTechnical, 0.001)
	assert.InDelta(t, 6.5, snap.TotalClarity, 0.001)
	assert.Equal(t, []string{"Quantify the impact you observed."}, snap.Suggestions)

	raw, err := f.svc.history.Raw(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestChatWithoutEvaluationSkipsAggregates(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)

	f.model.responses = []string{questionJSON(t, "Why Go?", 1)}

	_, err := f.svc.Chat(context.Background(), ChatInput{
		InterviewID:    interviewID.String(),
		CandidateEmail: "jordan@example.com",
		Message:        "Ready when you are.",
	})
	require.NoError(t, err)

	snap, err := f.svc.aggregates.Snapshot(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(0), snap.Count)
}

func TestChatAfterExpiryEndsInterview(t *testing.T) {
	f := newFixture(t)
	interviewID := uuid.New()
	f.startSession(t, interviewID, 600*time.Second)
	f.now = f.now.Add(601 * time.Second)

	reply, err := f.svc.Chat(context.Background(), ChatInput{
		InterviewID:    interviewID.String(),
		CandidateEmail: "jordan@example.com",
		Message:        "So as I was saying...",
	})
	require.NoError(t, err)
	assert.Nil(t, reply.InterviewerRes)
	assert.Equal(t, EndedMessage, reply.Message)
	assert.Equal(t, 0, reply.RemainingSeconds)
	assert.True(t, reply.Redirect)

	// Never reached the model; session and durable row are completed.
	assert.Equal(t, 0, f.model.callCount())
	meta, err := f.svc.meta.Get(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Equal(t, db.InterviewStatusCompleted, meta.Status)
	assert.Equal(t, db.InterviewStatusCompleted, f.repo.interview.Status)

	// The final message is preserved and finalization was signalled once.
	raw, err := f.svc.history.Raw(context.Background(), interviewID.String())
	require.NoError(t, err)
	assert.Len(t, raw, 1)
	assert.Len(t, f.events.named(workflow.EventInterviewCompleted), 1)
}
