package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"mission-backend/internal/bootstrap"
	"mission-backend/internal/shared/config"
	"mission-backend/internal/shared/metrics"
	"mission-backend/internal/shared/telemetry"
	"mission-backend/internal/workerproc"
)

const (
	defaultRegion   = "us-east-1"
	receiveWaitSecs = 20
	receiveBatch    = 10
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func main() {
	cfg := config.Load()
	if cfg.QueueURL == "" {
		telemetry.Error("worker.config", map[string]any{"error": "MS_SQS_QUEUE_URL is required"})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close()

	region := cfg.AWSRegion
	if region == "" {
		region = defaultRegion
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		telemetry.Error("worker.aws_config", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	w := &worker{
		client:     sqs.NewFromConfig(awsCfg),
		queueURL:   cfg.QueueURL,
		processor:  app.AnalysesService,
		visibility: cfg.SQSVisibilityTimeout,
	}
	w.run(ctx, cfg.WorkerConcurrency, cfg.WorkerShutdownTimeout)
}

type worker struct {
	client     sqsAPI
	queueURL   string
	processor  workerproc.Processor
	visibility time.Duration
}

func (w *worker) run(ctx context.Context, concurrency int, shutdownTimeout time.Duration) {
	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue":       w.queueURL,
		"concurrency": concurrency,
		"visibility":  w.visibility.String(),
	})

poll:
	for ctx.Err() == nil {
		resp, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(w.queueURL),
			MaxNumberOfMessages: receiveBatch,
			WaitTimeSeconds:     receiveWaitSecs,
			VisibilityTimeout:   int32(w.visibility / time.Second),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
				sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break poll
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				// Jobs in flight finish even after a shutdown signal.
				w.handle(context.WithoutCancel(ctx), m)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": shutdownTimeout.String()})
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.drain_timeout", nil)
	}
}

// handle processes one message. It is deleted on success and when it can never
// succeed; anything else is left to reappear after the visibility timeout.
func (w *worker) handle(ctx context.Context, msg sqstypes.Message) {
	metrics.IncQueueMessage(metrics.MessageReceived)
	fields := map[string]any{
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}

	err := workerproc.HandleMessage(ctx, w.processor, aws.ToString(msg.Body))
	switch {
	case err == nil:
		if w.delete(ctx, msg, fields) {
			metrics.IncQueueMessage(metrics.MessageCompleted)
		}
	case workerproc.IsPermanent(err):
		fields["error"] = err.Error()
		telemetry.Warn("worker.message.dropped", fields)
		if w.delete(ctx, msg, fields) {
			metrics.IncQueueMessage(metrics.MessageDropped)
		}
	default:
		fields["error"] = err.Error()
		telemetry.Error("worker.message.failed", fields)
		metrics.IncQueueMessage(metrics.MessageFailed)
	}
}

func (w *worker) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields["error"] = "missing receipt handle"
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(w.queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("worker.delete_failed", fields)
		return false
	}
	return true
}

func receiveCount(msg sqstypes.Message) int {
	raw := msg.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
