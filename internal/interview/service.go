// Package interview implements the session orchestration core: the
// background turn pipeline triggered by finished transcriptions, the
// synchronous chat path, and result finalization. All three share the same
// remaining-time computation and converge on a single completion event.
package interview

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/db"
	"github.com/mayank0274/mock-interview-with-ai/internal/llm"
	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// Business-state faults surfaced by the synchronous paths. They map to
// specific HTTP statuses at the server boundary.
var (
	ErrInterviewNotFound = errors.New("interview with given id does not exist")
	ErrAccessDenied      = errors.New("access denied")
)

// Repository is the durable-store surface the orchestration needs. *db.DB
// satisfies it.
type Repository interface {
	GetInterview(ctx context.Context, interviewID uuid.UUID) (*db.InterviewSession, error)
	CompleteInterview(ctx context.Context, interviewID uuid.UUID) (bool, error)
	InsertResult(ctx context.Context, input db.InsertResultInput) (bool, error)
	GetResult(ctx context.Context, interviewID uuid.UUID) (*db.InterviewResult, error)
}

// Deps are the injected collaborators of a Service.
type Deps struct {
	Meta       *redisstore.SessionMetaStore
	History    *redisstore.HistoryStore
	JobLog     *redisstore.JobLog
	Aggregates *redisstore.AggregateStore
	Model      llm.Client
	Repo       Repository
	Events     workflow.Sender
	Logger     *zap.Logger
}

// Service coordinates interview turns against the session state stores,
// the language model and the durable repository.
type Service struct {
	meta       *redisstore.SessionMetaStore
	history    *redisstore.HistoryStore
	jobLog     *redisstore.JobLog
	aggregates *redisstore.AggregateStore
	model      llm.Client
	repo       Repository
	events     workflow.Sender
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a Service from its collaborators.
func NewService(d Deps) *Service {
	return &Service{
		meta:       d.Meta,
		history:    d.History,
		jobLog:     d.JobLog,
		aggregates: d.Aggregates,
		model:      d.Model,
		repo:       d.Repo,
		events:     d.Events,
		logger:     d.Logger,
		now:        time.Now,
	}
}

// jobContext builds the prompt context from session metadata. The candidate
// name is stored as an email; the prompt uses the local part.
func jobContext(meta *redisstore.SessionMeta) llm.JobContext {
	name := meta.CandidateName
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return llm.JobContext{
		JobTitle:       meta.JobTitle,
		JobDescription: meta.JobDescription,
		CandidateName:  name,
	}
}

// SignalCompletion emits the interview-completed event that triggers result
// finalization. Every expiry path funnels through here.
func (s *Service) SignalCompletion(ctx context.Context, interviewID string) error {
	evt, err := workflow.NewEvent(workflow.EventInterviewCompleted, workflow.InterviewCompleted{
		InterviewID: interviewID,
	})
	if err != nil {
		return err
	}
	return s.events.Send(ctx, evt)
}
