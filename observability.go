package datastore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-datastore/core"
)

func (c *Client) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	elapsed := time.Since(startedAt)

	logFields := cloneFields(fields)
	logFields["operation"] = operation
	logFields["status"] = status
	logFields["project_id"] = c.projectID
	logFields["duration_ms"] = elapsed.Milliseconds()
	if err != nil {
		logFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if kind, ok := fields["kind"].(string); ok && strings.TrimSpace(kind) != "" {
		tags["kind"] = kind
	}

	c.metrics.IncCounter(ctx, "datastore."+operation+".total", 1, core.CloneTags(tags))
	c.metrics.ObserveHistogram(ctx, "datastore."+operation+".duration_ms", float64(elapsed.Milliseconds()), core.CloneTags(tags))

	if err != nil {
		c.log(ctx, "error", operation+" failed", logFields)
		return
	}
	c.log(ctx, "info", operation+" succeeded", logFields)
}

func (c *Client) log(ctx context.Context, level string, message string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logger := c.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch level {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func cloneFields(fields map[string]any) map[string]any {
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
