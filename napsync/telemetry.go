package napsync

import (
	"context"

	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/utils"
	"github.com/sirupsen/logrus"
)

// ErrorReporter is the fire-and-forget telemetry sink. Implementations must
// never block or fail the pipeline.
type ErrorReporter interface {
	CaptureException(ctx context.Context, err error, tags map[string]string)
	CaptureMessage(ctx context.Context, msg string, tags map[string]string)
}

type logReporter struct {
	logger *logrus.Logger
}

// NewLogReporter reports through the shared structured logger.
func NewLogReporter() ErrorReporter {
	return &logReporter{logger: config.GetLogger()}
}

func (r *logReporter) fields(ctx context.Context, tags map[string]string) logrus.Fields {
	fields := logrus.Fields{"module": "napsync"}
	for k, v := range tags {
		fields[k] = v
	}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlation_id"] = cid
	}
	return fields
}

func (r *logReporter) CaptureException(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.logger.WithFields(r.fields(ctx, tags)).Error(err.Error())
}

func (r *logReporter) CaptureMessage(ctx context.Context, msg string, tags map[string]string) {
	r.logger.WithFields(r.fields(ctx, tags)).Warn(msg)
}
