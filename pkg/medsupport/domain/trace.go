package domain

import (
	"context"
	"time"
)

// Trace a record of a single call to MedService: what came in, what the model saw and what the user got back.
type Trace struct {
	ID        string    `json:"id"`
	Task      TaskType  `json:"task"`
	Input     string    `json:"input"`
	HasImage  bool      `json:"hasImage"`
	Prompt    string    `json:"prompt"`
	Result    string    `json:"result"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	ElapsedMs int64     `json:"elapsedMs"`
}

type TraceRepository interface {
	NextID() string
	Store(trace *Trace) error
	// FindLatest returns up to `count` latest traces, newest first.
	FindLatest(count int) ([]*Trace, error)
}

type requestIDKey struct{}

// WithRequestID attaches the ID the transport assigned to the request, so that traces and log lines match.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey{}).(string)
	return requestID
}
