// Package logging wires logrus into request and message contexts.  Every
// log line written through FromContext carries the correlation id of the
// request or event that produced it.
package logging

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// CorrelationIDHeader carries the correlation id between services.
const CorrelationIDHeader = "Correlation-ID"

type ctxKey int

const (
	loggerKey ctxKey = iota
	correlationIDKey
)

// Init configures the standard logger.  Production uses JSON output.
func Init(level string, production bool) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// ToContext stores a request scoped logger.
func ToContext(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerKey, entry)
}

// FromContext returns the logger stored in ctx or the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(loggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation id or an empty string.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithCorrelationID stores id and a logger tagged with it.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = ContextWithCorrelationID(ctx, id)
	return ToContext(ctx, logrus.WithField("correlation_id", id))
}
