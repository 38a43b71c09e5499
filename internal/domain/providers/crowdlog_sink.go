package providers

import (
	"context"

	"github.com/carelocate/waitline/internal/domain/entities"
)

// CrowdLogSink receives accepted crowd logs for eventual delivery to the
// remote store. Delivery is best-effort; the engine never blocks a user
// submission on the sink and never reads back from it.
type CrowdLogSink interface {
	// Deliver hands one log (new or just confirmed) to the sink.
	Deliver(ctx context.Context, log *entities.CrowdLog) error
}
