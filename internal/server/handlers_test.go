package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/config"
	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/interview"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// fakeInterviewStore is an in-memory InterviewStore with the same lifecycle
// transition rules as the SQL implementation.
type fakeInterviewStore struct {
	mu         sync.Mutex
	interviews map[uuid.UUID]*db.InterviewSession
	results    map[uuid.UUID]*db.InterviewResult
}

func newFakeInterviewStore() *fakeInterviewStore {
	return &fakeInterviewStore{
		interviews: make(map[uuid.UUID]*db.InterviewSession),
		results:    make(map[uuid.UUID]*db.InterviewResult),
	}
}

func (f *fakeInterviewStore) CreateInterview(_ context.Context, input db.CreateInterviewInput) (*db.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv := &db.InterviewSession{
		ID:                uuid.New(),
		CandidateEmail:    input.CandidateEmail,
		CandidateName:     input.CandidateName,
		JobTitle:          input.JobTitle,
		JobDescription:    input.JobDescription,
		InterviewerName:   input.InterviewerName,
		InterviewerGender: input.InterviewerGender,
		InterviewerVoice:  input.InterviewerVoice,
		Status:            db.InterviewStatusCreated,
		CreatedAt:         time.Now(),
	}
	f.interviews[iv.ID] = iv
	return iv, nil
}

func (f *fakeInterviewStore) GetInterview(_ context.Context, id uuid.UUID) (*db.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.interviews[id]
	if !ok {
		return nil, nil
	}
	copied := *iv
	return &copied, nil
}

func (f *fakeInterviewStore) ListInterviews(_ context.Context, email string, page int) ([]db.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.InterviewSession
	for _, iv := range f.interviews {
		if iv.CandidateEmail == email {
			out = append(out, *iv)
		}
	}
	return out, nil
}

func (f *fakeInterviewStore) CountInterviews(_ context.Context, email string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, iv := range f.interviews {
		if iv.CandidateEmail == email {
			n++
		}
	}
	return n, nil
}

func (f *fakeInterviewStore) StartInterview(_ context.Context, id uuid.UUID, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.interviews[id]
	if !ok || iv.Status != db.InterviewStatusCreated {
		return false, nil
	}
	iv.Status = db.InterviewStatusStarted
	iv.StartTime = &start
	iv.EndTime = &end
	return true, nil
}

func (f *fakeInterviewStore) SetEndTime(_ context.Context, id uuid.UUID, end time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if iv, ok := f.interviews[id]; ok && iv.Status == db.InterviewStatusStarted {
		iv.EndTime = &end
	}
	return nil
}

func (f *fakeInterviewStore) GetResult(_ context.Context, interviewID uuid.UUID) (*db.InterviewResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.results[interviewID]
	if !ok {
		return nil, nil
	}
	copied := *result
	return &copied, nil
}

// fakeOrchestrator records chat turns and completion signals.
type fakeOrchestrator struct {
	mu          sync.Mutex
	chatReply   *interview.ChatReply
	chatErr     error
	chats       []interview.ChatInput
	completions []string
}

func (f *fakeOrchestrator) Chat(_ context.Context, input interview.ChatInput) (*interview.ChatReply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, input)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return f.chatReply, nil
}

func (f *fakeOrchestrator) SignalCompletion(_ context.Context, interviewID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, interviewID)
	return nil
}

// fakeObjectStore is an in-memory storage.Store.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Download(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[path], nil
}

func (f *fakeObjectStore) Upload(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[path] = data
	return path, nil
}

func (f *fakeObjectStore) CreateSignedUploadURL(_ context.Context, path string) (string, error) {
	return "https://storage.example.com/sign/" + path, nil
}

// recordingSender captures every event sent through it.
type recordingSender struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (s *recordingSender) Send(_ context.Context, evt workflow.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func (s *recordingSender) named(name string) []workflow.Event {
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

type serverFixture struct {
	srv        *Server
	interviews *fakeInterviewStore
	orch       *fakeOrchestrator
	users      *fakeUserStore
	objects    *fakeObjectStore
	events     *recordingSender
	rdb        *redis.Client
	now        time.Time
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := &serverFixture{
		interviews: newFakeInterviewStore(),
		orch:       &fakeOrchestrator{},
		users:      newFakeUserStore(),
		objects:    newFakeObjectStore(),
		events:     &recordingSender{},
		rdb:        rdb,
		now:        time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}

	logger := zap.NewNop()
	f.srv = New(Deps{
		Port:         8080,
		Interviews:   f.interviews,
		InterviewSvc: f.orch,
		Users:        f.users,
		JWTConfig: &config.JWTConfig{
			Secret:          "test-secret-key-for-jwt-signing-minimum-32-bytes",
			ExpirationHours: 24,
		},
		Meta:    redisstore.NewSessionMetaStore(rdb),
		JobLog:  redisstore.NewJobLog(rdb, logger),
		Chunks:  redisstore.NewChunkSequence(rdb),
		Storage: f.objects,
		Events:  f.events,
		Logger:  logger,
	})
	f.srv.now = func() time.Time { return f.now }
	return f
}

// seedInterview creates an interview row owned by the given email.
func (f *serverFixture) seedInterview(t *testing.T, email string) *db.InterviewSession {
	t.Helper()
	iv, err := f.interviews.CreateInterview(context.Background(), db.CreateInterviewInput{
		CandidateEmail:    email,
		CandidateName:     email,
		JobTitle:          "Backend Engineer",
		JobDescription:    "Go services on Kubernetes",
		InterviewerName:   "Sarah",
		InterviewerGender: "female",
		InterviewerVoice:  "en-US-AriaNeural",
	})
	require.NoError(t, err)
	return iv
}
