package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"mission-backend/internal/bootstrap"
	"mission-backend/internal/shared/config"
	"mission-backend/internal/shared/telemetry"
	"mission-backend/internal/workerproc"
)

var (
	initOnce  sync.Once
	initErr   error
	processor workerproc.Processor
)

func initApp() {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		initErr = err
		return
	}
	processor = app.AnalysesService
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr.Error()})
		return batchResponse(allIDs(event)), initErr
	}
	return process(ctx, processor, event), nil
}

func process(ctx context.Context, p workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	records := make([]workerproc.Record, 0, len(event.Records))
	for _, r := range event.Records {
		records = append(records, workerproc.Record{ID: r.MessageId, Body: r.Body})
	}
	return batchResponse(workerproc.HandleBatch(ctx, p, records, workerproc.DefaultConcurrency))
}

func allIDs(event events.SQSEvent) []string {
	ids := make([]string, 0, len(event.Records))
	for _, r := range event.Records {
		ids = append(ids, r.MessageId)
	}
	return ids
}

func batchResponse(failed []string) events.SQSEventResponse {
	resp := events.SQSEventResponse{BatchItemFailures: make([]events.SQSBatchItemFailure, 0, len(failed))}
	for _, id := range failed {
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: id})
	}
	return resp
}

func main() {
	lambda.Start(handler)
}
