package transcription

import (
	"context"

	"go.uber.org/zap"

	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
	"github.com/mayank0274/mock-interview-with-ai/internal/storage"
	"github.com/mayank0274/mock-interview-with-ai/internal/workflow"
)

// Pipeline is the audio.uploaded workflow: download the chunk from object
// storage, submit it for transcription, poll until the transcript is ready,
// then hand off to the turn pipeline via transcription.completed.
type Pipeline struct {
	storage storage.Store
	client  *Client
	jobLog  *redisstore.JobLog
	events  workflow.Sender
	logger  *zap.Logger
}

// NewPipeline wires the transcription workflow's collaborators.
func NewPipeline(store storage.Store, client *Client, jobLog *redisstore.JobLog, events workflow.Sender, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		storage: store,
		client:  client,
		jobLog:  jobLog,
		events:  events,
		logger:  logger,
	}
}

// Function declares the workflow registration for this pipeline.
func (p *Pipeline) Function() workflow.Function {
	return workflow.Function{
		Name:    "transcribe-audio",
		Event:   workflow.EventAudioUploaded,
		Retries: 1,
		Handler: p.handle,
	}
}

func (p *Pipeline) handle(ctx context.Context, step *workflow.StepContext, evt workflow.Event) error {
	data, err := workflow.Decode[workflow.AudioUploaded](evt)
	if err != nil {
		return err
	}

	logKey := redisstore.AnswerKey(data.InterviewID, data.AudioPath)
	log := p.logger.With(
		zap.String("interview_id", data.InterviewID),
		zap.String("audio_path", data.AudioPath),
	)

	jobID, err := workflow.Run(ctx, step, "submit-to-speechmatics", func(ctx context.Context) (string, error) {
		audio, err := p.storage.Download(ctx, data.AudioPath)
		if err != nil {
			return "", err
		}
		return p.client.Submit(ctx, data.AudioPath, audio)
	})
	if err != nil {
		p.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}
	p.jobLog.Append(ctx, logKey, redisstore.StatusTranscriptionStarted, nil, "")
	log.Info("audio submitted for transcription", zap.String("job_id", jobID))

	transcript, err := workflow.Run(ctx, step, "poll-transcript", func(ctx context.Context) (string, error) {
		return p.client.PollTranscript(ctx, jobID)
	})
	if err != nil {
		p.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}
	p.jobLog.Append(ctx, logKey, redisstore.StatusTranscriptionCompleted, nil, "")
	log.Info("transcription completed")

	completed, err := workflow.NewEvent(workflow.EventTranscriptionCompleted, workflow.TranscriptionCompleted{
		Transcription: transcript,
		InterviewID:   data.InterviewID,
		AudioPath:     data.AudioPath,
	})
	if err != nil {
		p.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}
	if err := p.events.Send(ctx, completed); err != nil {
		p.jobLog.Append(ctx, logKey, redisstore.StatusError, nil, err.Error())
		return err
	}
	return nil
}
