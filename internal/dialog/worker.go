package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/clinics"
	"github.com/zapagenda/zapagenda-backend/internal/queue"
	"github.com/zapagenda/zapagenda-backend/pkg/logging"
)

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
)

// Worker consumes queued turns and feeds them through the engine.
type Worker struct {
	engine    *Engine
	queue     queue.Client
	directory clinics.Directory
	logger    *logging.Logger

	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	wg               sync.WaitGroup
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*Worker)

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// NewWorker constructs a queue consumer around the dialog engine.
func NewWorker(engine *Engine, q queue.Client, directory clinics.Directory, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if engine == nil {
		panic("dialog: engine cannot be nil")
	}
	if q == nil {
		panic("dialog: queue cannot be nil")
	}
	if directory == nil {
		panic("dialog: clinic directory cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		engine:           engine,
		queue:            q,
		directory:        directory,
		logger:           logger,
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("dialog worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("dialog worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.receiveBatchSize, w.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive turn jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queue.Message) {
	var payload turnPayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode turn job", "error", err)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}

	clinic, err := w.directory.Get(ctx, payload.ClinicID)
	if errors.Is(err, clinics.ErrNotFound) {
		w.logger.Warn("dropping turn for unknown clinic",
			"job_id", payload.ID, "clinic_id", payload.ClinicID)
		w.deleteMessage(msg.ReceiptHandle)
		return
	}
	if err != nil {
		// Transient lookup failure; leave the message for redelivery.
		w.logger.Error("clinic lookup failed", "error", err, "job_id", payload.ID)
		return
	}

	if err := w.engine.HandleTurn(ctx, clinic, payload.Message); err != nil {
		w.logger.Error("turn processing failed",
			"error", err, "job_id", payload.ID, "clinic_id", clinic.ID, "recipient", payload.Message.From)
		return
	}
	w.deleteMessage(msg.ReceiptHandle)
}

func (w *Worker) deleteMessage(receiptHandle string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.queue.Delete(ctx, receiptHandle); err != nil {
		w.logger.Error("failed to delete turn job", "error", err)
	}
}
