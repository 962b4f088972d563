// Package workerproc turns queue payloads into advisory job runs. It is shared
// by the long-polling worker and the Lambda SQS handler.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"mission-backend/internal/analyses"
	"mission-backend/internal/queue"
	"mission-backend/internal/shared/metrics"
	"mission-backend/internal/shared/telemetry"
)

// DefaultConcurrency bounds parallel jobs inside one batch.
const DefaultConcurrency = 4

// Processor runs a queued analysis to completion.
type Processor interface {
	ProcessAnalysis(ctx context.Context, analysisID string) error
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

// ErrMissingAnalysisID indicates a message missing the analysis id.
type ErrMissingAnalysisID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingAnalysisID) Error() string { return "missing analysis id" }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	AnalysisID string
	RequestID  string
	Err        error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process analysis"
	}
	return "process analysis: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// IsPermanent reports whether redelivering the message can never succeed.
// Such messages should be deleted rather than retried.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var empty ErrEmptyBody
	var decode ErrDecode
	var missing ErrMissingAnalysisID
	switch {
	case errors.As(err, &empty), errors.As(err, &decode), errors.As(err, &missing):
		return true
	case errors.Is(err, analyses.ErrNotFound):
		return true
	}
	return false
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	switch err := msg.Validate(); {
	case errors.Is(err, queue.ErrMissingAnalysisID):
		return msg, meta, ErrMissingAnalysisID{Meta: meta, RequestID: msg.RequestID}
	case err != nil:
		return msg, meta, ErrDecode{Meta: meta, Err: err}
	}
	return msg, meta, nil
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, p Processor, body string) error {
	if p == nil {
		return errors.New("analysis processor not configured")
	}
	msg, meta, err := ParseMessage(body)
	if err != nil {
		fields := map[string]any{"body_len": meta.BodyLen, "error": err.Error()}
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		telemetry.Error("worker.message.invalid", fields)
		return err
	}

	ctx = analyses.WithRequestID(ctx, msg.RequestID)
	telemetry.Info("worker.message", map[string]any{
		"analysis_id": msg.AnalysisID,
		"request_id":  msg.RequestID,
		"version":     msg.Version,
	})
	if err := p.ProcessAnalysis(ctx, msg.AnalysisID); err != nil {
		return ErrProcess{AnalysisID: msg.AnalysisID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Record is one delivered queue message.
type Record struct {
	ID   string
	Body string
}

// HandleBatch processes records with at most concurrency jobs in flight and
// returns the IDs that should be redelivered. Permanently broken messages are
// dropped and never reported as failures.
func HandleBatch(ctx context.Context, p Processor, records []Record, concurrency int) []string {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	retry := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			metrics.IncQueueMessage(metrics.MessageReceived)
			err := HandleMessage(gctx, p, rec.Body)
			switch {
			case err == nil:
				metrics.IncQueueMessage(metrics.MessageCompleted)
			case IsPermanent(err):
				metrics.IncQueueMessage(metrics.MessageDropped)
				telemetry.Warn("worker.message.dropped", map[string]any{"message_id": rec.ID, "error": err.Error()})
			default:
				metrics.IncQueueMessage(metrics.MessageFailed)
				telemetry.Error("worker.message.failed", map[string]any{"message_id": rec.ID, "error": err.Error()})
				retry[i] = true
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for i, r := range retry {
		if r {
			failed = append(failed, records[i].ID)
		}
	}
	return failed
}
