package interview

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// fakeModel returns queued responses in order and repeats the last one.
type fakeModel struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (m *fakeModel) GenerateJSON(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.responses) == 0 {
		return "{}", nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *fakeModel) Close() error { return nil }

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeRepo is an in-memory Repository with the same compare-and-set
// semantics as the SQL implementation.
type fakeRepo struct {
	mu        sync.Mutex
	interview *db.InterviewSession
	result    *db.InterviewResult
	inserts   int
}

func (r *fakeRepo) GetInterview(_ context.Context, id uuid.UUID) (*db.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.interview == nil || r.interview.ID != id {
		return nil, nil
	}
	iv := *r.interview
	return &iv, nil
}

func (r *fakeRepo) CompleteInterview(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.interview == nil || r.interview.ID != id || r.interview.Status == db.InterviewStatusCompleted {
		return false, nil
	}
	r.interview.Status = db.InterviewStatusCompleted
	return true, nil
}

func (r *fakeRepo) InsertResult(_ context.Context, input db.InsertResultInput) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result != nil {
		return false, nil
	}
	r.inserts++
	r.result = &db.InterviewResult{
		ID:                 uuid.New(),
		InterviewID:        input.InterviewID,
		CommunicationScore: input.CommunicationScore,
		TechnicalScore:     input.TechnicalScore,
		ClarityScore:       input.ClarityScore,
		OverallScore:       input.OverallScore,
		Suggestions:        input.Suggestions,
	}
	return true, nil
}

func (r *fakeRepo) GetResult(_ context.Context, id uuid.UUID) (*db.InterviewResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil || r.result.InterviewID != id {
		return nil, nil
	}
	res := *r.result
	return &res, nil
}

type sentEvents struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (s *sentEvents) Send(_ context.Context, evt workflow.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *sentEvents) named(name string) []workflow.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []workflow.Event
	for _, evt := range s.events {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	svc    *Service
	rdb    *redis.Client
	mr     *miniredis.Miniredis
	model  *fakeModel
	repo   *fakeRepo
	events *sentEvents
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		rdb:    rdb,
		mr:     mr,
		model:  &fakeModel{},
		repo:   &fakeRepo{},
		events: &sentEvents{},
		now:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	f.svc = NewService(Deps{
		Meta:       redisstore.NewSessionMetaStore(rdb),
		History:    redisstore.NewHistoryStore(rdb),
		JobLog:     redisstore.NewJobLog(rdb, zap.NewNop()),
		Aggregates: redisstore.NewAggregateStore(rdb),
		Model:      f.model,
		Repo:       f.repo,
		Events:     f.events,
		Logger:     zap.NewNop(),
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

// startSession seeds session metadata and a started durable row with the
// given time budget left from the fixture clock.
func (f *fixture) startSession(t *testing.T, interviewID uuid.UUID, budget time.Duration) {
	t.Helper()

	start := f.now
	end := start.Add(budget)
	err := f.svc.meta.Put(context.Background(), interviewID.String(), &redisstore.SessionMeta{
		JobTitle:        "Backend Engineer",
		JobDescription:  "Design and run distributed services.",
		CandidateName:   "jordan@example.com",
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: int(budget / time.Second),
		Status:          db.InterviewStatusStarted,
	})
	require.NoError(t, err)

	f.repo.interview = &db.InterviewSession{
		ID:             interviewID,
		CandidateEmail: "jordan@example.com",
		JobTitle:       "Backend Engineer",
		Status:         db.InterviewStatusStarted,
		StartTime:      &start,
		EndTime:        &end,
	}
}

// deliver runs fn once for evt through a real runner so step memoization is
// exercised exactly as in production.
func deliver(t *testing.T, rdb *redis.Client, fn workflow.Function, evt workflow.Event) {
	t.Helper()

	runner := workflow.NewRunner(rdb, zap.NewNop(), 8)
	runner.Register(fn)
	runner.Start(context.Background())
	require.NoError(t, runner.Send(context.Background(), evt))
	require.NoError(t, runner.Close())
}

func questionJSON(t *testing.T, question string, questionNo int) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"type":        "theory",
		"question":    question,
		"question_no": questionNo,
	})
	require.NoError(t, err)
	return string(data)
}
