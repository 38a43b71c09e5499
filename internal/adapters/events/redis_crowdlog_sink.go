package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
	redisclient "github.com/carelocate/waitline/internal/infrastructure/clients/redis"
)

// CrowdLogChannel is the pub/sub channel the remote store consumes.
const CrowdLogChannel = "waitline:crowd-logs"

// RedisCrowdLogSink publishes accepted crowd logs to a Redis pub/sub channel
// for eventual delivery to the remote store. Publication is fire-and-forget;
// a failed publish is logged and dropped, never surfaced to the submitter.
type RedisCrowdLogSink struct {
	client  *redisclient.Client
	channel string
}

// NewRedisCrowdLogSink creates a new Redis-backed crowd log sink.
func NewRedisCrowdLogSink(client *redisclient.Client) providers.CrowdLogSink {
	return &RedisCrowdLogSink{
		client:  client,
		channel: CrowdLogChannel,
	}
}

// Deliver publishes one crowd log to the channel.
func (s *RedisCrowdLogSink) Deliver(ctx context.Context, crowdLog *entities.CrowdLog) error {
	data, err := json.Marshal(crowdLog)
	if err != nil {
		return fmt.Errorf("failed to marshal crowd log: %w", err)
	}

	if err := s.client.Client().Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish crowd log: %w", err)
	}

	log.Debug().
		Str("channel", s.channel).
		Str("crowd_log_id", crowdLog.ID).
		Msg("published crowd log")
	return nil
}
