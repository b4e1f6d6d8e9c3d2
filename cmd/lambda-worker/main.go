package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"notes-backend/internal/bootstrap"
	"notes-backend/internal/shared/config"
	"notes-backend/internal/shared/metrics"
	"notes-backend/internal/shared/telemetry"
	"notes-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncRecordingJobsReceived()
		if err := app.WorkerRunner.HandleMessage(ctx, record.Body); err != nil {
			fields := map[string]any{"sqs_message_id": record.MessageId, "error": err.Error()}
			if !retryable(err) {
				telemetry.Error("worker.recording.dropped", fields)
				metrics.IncRecordingJobsDeletedUnrecoverable()
				continue
			}
			telemetry.Warn("worker.recording.retry", fields)
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

// retryable reports whether the record should go back to the queue. Bad
// payloads and finished pipeline failures are dropped.
func retryable(err error) bool {
	var procErr workerproc.ErrProcess
	if errors.As(err, &procErr) {
		return procErr.Retryable
	}
	var missing workerproc.ErrMissingField
	var decode workerproc.ErrDecode
	var empty workerproc.ErrEmptyBody
	if errors.As(err, &missing) || errors.As(err, &decode) || errors.As(err, &empty) {
		return false
	}
	return true
}

func main() {
	lambda.Start(handler)
}
