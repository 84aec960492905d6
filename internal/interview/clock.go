package interview

import (
	"time"

	"github.com/mayank0274/mock-interview-with-ai/internal/redisstore"
)

// DefaultDuration is the time budget of one interview session.
const DefaultDuration = 10 * time.Minute

// RemainingSeconds computes the whole seconds left before the interview's
// end time. Every path that needs the remaining budget goes through this
// one function so the synchronous chat handler and the background turn
// pipeline can never disagree on boundary rounding.
func RemainingSeconds(meta *redisstore.SessionMeta, now time.Time) int {
	remaining := meta.EndTime.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}
