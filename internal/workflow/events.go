package workflow

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Event names recognized by the interview pipelines.
const (
	EventAudioUploaded          = "interview/audio.uploaded"
	EventTranscriptionCompleted = "interview/transcription.completed"
	EventInterviewCompleted     = "interview/interview.completed"
)

// Event is a named message with a JSON payload, delivered at-least-once to
// every function subscribed to its name.
type Event struct {
	Name string
	Data json.RawMessage
}

// AudioUploaded is the payload emitted after an audio chunk lands in object
// storage.
type AudioUploaded struct {
	AudioPath   string `json:"audio_path" validate:"required"`
	InterviewID string `json:"interview_id" validate:"required"`
	ChunkNumber int64  `json:"chunk_number,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// TranscriptionCompleted is the payload emitted once a transcript is ready.
type TranscriptionCompleted struct {
	Transcription string `json:"transcription" validate:"required"`
	InterviewID   string `json:"interview_id" validate:"required"`
	AudioPath     string `json:"audio_path" validate:"required"`
}

// InterviewCompleted is the payload emitted when an interview's time budget
// is exhausted or the candidate ends it manually.
type InterviewCompleted struct {
	InterviewID string `json:"interview_id" validate:"required"`
}

var validate = validator.New()

// NewEvent builds an Event from a typed payload.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}

// Decode unmarshals and validates an event payload. Payloads are explicit
// tagged records validated at the consume boundary so field-name drift
// between producers and consumers fails loudly.
func Decode[T any](evt Event) (T, error) {
	var payload T
	if err := json.Unmarshal(evt.Data, &payload); err != nil {
		return payload, Terminal(fmt.Errorf("malformed %s payload: %w", evt.Name, err))
	}
	if err := validate.Struct(payload); err != nil {
		return payload, Terminal(fmt.Errorf("invalid %s payload: %w", evt.Name, err))
	}
	return payload, nil
}
