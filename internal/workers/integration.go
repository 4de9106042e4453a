package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Expirer expires every submission past its expiry time.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// ExpireRequest is the payload of an expire_submissions task.
type ExpireRequest struct {
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewExpireHandler runs one expiry sweep per task.
func NewExpireHandler(expirer Expirer, logger zerolog.Logger) Handler {
	logger = logger.With().Str("component", "expire_handler").Logger()
	return func(ctx context.Context, payload []byte) error {
		var req ExpireRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return fmt.Errorf("failed to unmarshal expire payload: %w", err)
			}
		}

		start := time.Now()
		n, err := expirer.ExpireDue(ctx)
		if err != nil {
			return fmt.Errorf("failed to expire submissions: %w", err)
		}

		logger.Info().
			Str("requested_by", req.RequestedBy).
			Int("expired", n).
			Dur("duration", time.Since(start)).
			Msg("Expiry sweep finished")
		return nil
	}
}
