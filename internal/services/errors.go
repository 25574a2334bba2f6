package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

// collector accumulates the ordered error list that rides in a failed
// Result envelope. Services keep collecting through a validation stage
// and abort at stage boundaries, so one response can report every
// problem found up to that point.
type collector struct {
	errs []string
}

func (c *collector) add(msg string) {
	c.errs = append(c.errs, msg)
}

func (c *collector) addf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *collector) extend(msgs []string) {
	c.errs = append(c.errs, msgs...)
}

func (c *collector) failed() bool { return len(c.errs) > 0 }

// fail logs every collected error and seals them into a failed Result.
// Call it exactly once per aborted request.
func (c *collector) fail(ctx context.Context, logger *slog.Logger, document string) domain.Result {
	logger.ErrorContext(ctx, "report generation failed",
		slog.String("document_type", document),
		slog.Int("error_count", len(c.errs)))
	for i, msg := range c.errs {
		logger.ErrorContext(ctx, "collected error",
			slog.String("document_type", document),
			slog.Int("index", i+1),
			slog.String("error", msg))
	}
	return domain.Fail(c.errs)
}

// prefixAll stamps a source file name onto row-scoped messages so
// multi-file batches stay attributable.
func prefixAll(name string, msgs []string) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = fmt.Sprintf("%s: %s", name, m)
	}
	return out
}
