package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span represents a logical unit of work within a request, such as an upload
// sequence or a thumbnail backfill batch.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child context whose logger is enriched with a span id
// and name. It returns the derived context and the span handle.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx).With(
		slog.String("span_id", uuid.NewString()),
		slog.String("span_name", name),
	)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
