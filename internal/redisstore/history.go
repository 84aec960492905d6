package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Conversation turn speakers. The stored values match the message_store
// layout consumed by the evaluation stage.
const (
	SpeakerCandidate   = "human"
	SpeakerInterviewer = "ai"
)

// Turn is one conversation history record. Interviewer turns carry the
// question type and number; candidate turns are free text.
type Turn struct {
	Speaker string   `json:"type"`
	Data    TurnData `json:"data"`
}

// TurnData holds the message body and optional interviewer metadata.
type TurnData struct {
	Content          string         `json:"content"`
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
}

// HistoryStore is the ordered, append-only conversation log per interview.
// Turns are stored newest-first: readers that need chronological order
// reverse after fetching.
type HistoryStore struct {
	rdb *redis.Client
}

// NewHistoryStore creates a HistoryStore backed by the given client.
func NewHistoryStore(rdb *redis.Client) *HistoryStore {
	return &HistoryStore{rdb: rdb}
}

func historyKey(interviewID string) string {
	return fmt.Sprintf("message_store:%s", interviewID)
}

func (h *HistoryStore) push(ctx context.Context, interviewID string, turns ...Turn) error {
	key := historyKey(interviewID)
	pipe := h.rdb.TxPipeline()
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("failed to encode history turn: %w", err)
		}
		pipe.LPush(ctx, key, data)
	}
	pipe.Expire(ctx, key, MetadataTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history for %s: %w", interviewID, err)
	}
	return nil
}

// AppendCandidate appends a candidate message to the history.
func (h *HistoryStore) AppendCandidate(ctx context.Context, interviewID, content string) error {
	return h.push(ctx, interviewID, Turn{
		Speaker: SpeakerCandidate,
		Data:    TurnData{Content: content},
	})
}

// AppendExchange atomically appends a candidate answer followed by the
// interviewer's next question. Follow-ups and clarifications reuse the
// previous question number.
func (h *HistoryStore) AppendExchange(ctx context.Context, interviewID, answer, question, questionType string, questionNo int) error {
	return h.push(ctx, interviewID,
		Turn{
			Speaker: SpeakerCandidate,
			Data:    TurnData{Content: answer},
		},
		Turn{
			Speaker: SpeakerInterviewer,
			Data: TurnData{
				Content: question,
				AdditionalKwargs: map[string]any{
					"type":        questionType,
					"question_no": questionNo,
				},
			},
		},
	)
}

// Raw returns every stored history record, newest first.
func (h *HistoryStore) Raw(ctx context.Context, interviewID string) ([]string, error) {
	items, err := h.rdb.LRange(ctx, historyKey(interviewID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", interviewID, err)
	}
	return items, nil
}
