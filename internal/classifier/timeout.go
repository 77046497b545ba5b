package classifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/types"
)

// TimeoutClassifier bounds the wrapped classifier's latency. When the
// budget elapses or the engine errors, the caller gets the safe fallback
// decision instead of an error so message delivery is never blocked.
type TimeoutClassifier struct {
	inner   Classifier
	timeout time.Duration
	logger  zerolog.Logger
}

// WithTimeout wraps a classifier with a latency budget
func WithTimeout(inner Classifier, timeout time.Duration, logger zerolog.Logger) *TimeoutClassifier {
	return &TimeoutClassifier{
		inner:   inner,
		timeout: timeout,
		logger:  logger.With().Str("component", "classifier").Logger(),
	}
}

type classifyResult struct {
	decision types.RoutingDecision
	err      error
}

// Classify runs the wrapped engine with a deadline
func (t *TimeoutClassifier) Classify(ctx context.Context, conversationID, message, conversationContext string) (types.RoutingDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	results := make(chan classifyResult, 1)
	go func() {
		decision, err := t.inner.Classify(ctx, conversationID, message, conversationContext)
		results <- classifyResult{decision: decision, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.Get().RecordClassificationTimeout()
		t.logger.Warn().
			Str("conversation_id", conversationID).
			Dur("timeout", t.timeout).
			Msg("classification timed out, using fallback")
		return types.FallbackDecision(conversationID), nil
	case res := <-results:
		if res.err != nil {
			metrics.Get().RecordClassificationTimeout()
			t.logger.Error().
				Err(res.err).
				Str("conversation_id", conversationID).
				Msg("classification failed, using fallback")
			return types.FallbackDecision(conversationID), nil
		}
		metrics.Get().RecordClassification()
		return res.decision, nil
	}
}
