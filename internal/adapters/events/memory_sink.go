package events

import (
	"context"
	"sync"

	"github.com/carelocate/waitline/internal/domain/entities"
	"github.com/carelocate/waitline/internal/domain/providers"
)

// MemorySink collects delivered crowd logs in memory. Used when Redis is
// disabled and as a capture point in tests.
type MemorySink struct {
	mu   sync.Mutex
	logs []*entities.CrowdLog
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

var _ providers.CrowdLogSink = (*MemorySink)(nil)

// Deliver appends the log to the in-memory buffer.
func (s *MemorySink) Deliver(ctx context.Context, crowdLog *entities.CrowdLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, crowdLog)
	return nil
}

// Delivered returns a snapshot of everything delivered so far.
func (s *MemorySink) Delivered() []*entities.CrowdLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entities.CrowdLog, len(s.logs))
	copy(out, s.logs)
	return out
}
