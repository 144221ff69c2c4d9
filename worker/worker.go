package worker

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"finora/api/logger"
	"finora/api/models"

	"go.uber.org/zap"
)

var ErrStopped = errors.New("worker pool is stopped")

// Handler processes one job. Jobs in the same partition run in order.
type Handler func(ctx context.Context, job []byte) error

type WorkerPool struct {
	workers    int
	partitions []chan []byte
	handle     Handler
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Metrics
	mu                 sync.RWMutex
	messagesProcessed  uint64
	processingDuration uint64
	bufferFillLevels   []uint64
	messagesDropped    uint64
	messagesFailed     uint64
}

func NewWorkerPool(workers int, handle Handler) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	partitions := make([]chan []byte, workers)
	bufferLevels := make([]uint64, workers)
	for i := range partitions {
		partitions[i] = make(chan []byte, 100) // Buffer size of 100 per partition
	}
	return &WorkerPool{
		workers:          workers,
		partitions:       partitions,
		handle:           handle,
		ctx:              ctx,
		cancelFunc:       cancel,
		bufferFillLevels: bufferLevels,
	}
}

func (wp *WorkerPool) Start() {
	logger.Get().Info("Starting worker pool", zap.Int("workers", wp.workers))
	for i := range wp.partitions {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels the workers and waits for them. Jobs still buffered are
// dropped.
func (wp *WorkerPool) Stop() {
	logger.Get().Info("Stopping worker pool")
	wp.cancelFunc()
	wp.wg.Wait()
}

// Partition maps a key onto one of the pool's partitions so that all jobs
// for the same key are handled by the same worker.
func (wp *WorkerPool) Partition(key string) int32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int32(h.Sum32() % uint32(wp.workers))
}

func (wp *WorkerPool) Submit(job []byte, partition int32) error {
	if partition < 0 || int(partition) >= len(wp.partitions) {
		wp.mu.Lock()
		wp.messagesDropped++
		wp.mu.Unlock()
		logger.Get().Error("Invalid partition number",
			zap.Int32("partition", partition),
			zap.Int("max_partitions", len(wp.partitions)))
		return errors.New("invalid partition")
	}
	if wp.ctx.Err() != nil {
		wp.drop()
		return ErrStopped
	}

	wp.mu.Lock()
	wp.bufferFillLevels[partition]++
	wp.mu.Unlock()

	select {
	case wp.partitions[partition] <- job:
		logger.Get().Debug("Job submitted to worker pool",
			zap.Int32("partition", partition))
		return nil
	case <-wp.ctx.Done():
		wp.mu.Lock()
		wp.bufferFillLevels[partition]--
		wp.mu.Unlock()
		wp.drop()
		logger.Get().Warn("Worker pool is stopped, job not submitted")
		return ErrStopped
	}
}

// SubmitKey submits job to the partition owned by key.
func (wp *WorkerPool) SubmitKey(key string, job []byte) error {
	return wp.Submit(job, wp.Partition(key))
}

// PublishProfileEvent hands the event straight to the pool. It is the
// publisher used when no Kafka cluster is configured.
func (wp *WorkerPool) PublishProfileEvent(ctx context.Context, event models.ProfileEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return wp.SubmitKey(event.UserID, payload)
}

func (wp *WorkerPool) drop() {
	wp.mu.Lock()
	wp.messagesDropped++
	wp.mu.Unlock()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	logger.Get().Info("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case job := <-wp.partitions[id]:
			wp.mu.Lock()
			wp.bufferFillLevels[id]--
			wp.mu.Unlock()

			startTime := time.Now()
			err := wp.handle(wp.ctx, job)

			wp.mu.Lock()
			if err != nil {
				wp.messagesFailed++
			} else {
				wp.messagesProcessed++
			}
			wp.processingDuration += uint64(time.Since(startTime).Milliseconds())
			wp.mu.Unlock()

			if err != nil {
				logger.Get().Error("Failed to process job",
					zap.Int("worker_id", id),
					zap.Error(err))
			}

		case <-wp.ctx.Done():
			logger.Get().Info("Worker stopping due to context cancellation",
				zap.Int("worker_id", id))
			return
		}
	}
}

// Metrics is a point-in-time copy of the pool counters.
type Metrics struct {
	MessagesProcessed uint64   `json:"messages_processed"`
	MessagesDropped   uint64   `json:"messages_dropped"`
	MessagesFailed    uint64   `json:"messages_failed"`
	AvgProcessingMS   float64  `json:"avg_processing_ms"`
	BufferLevels      []uint64 `json:"buffer_levels"`
	ActiveWorkers     int      `json:"active_workers"`
}

func (wp *WorkerPool) Metrics() Metrics {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	var avgProcessingTime float64
	handled := wp.messagesProcessed + wp.messagesFailed
	if handled > 0 {
		avgProcessingTime = float64(wp.processingDuration) / float64(handled)
	}

	return Metrics{
		MessagesProcessed: wp.messagesProcessed,
		MessagesDropped:   wp.messagesDropped,
		MessagesFailed:    wp.messagesFailed,
		AvgProcessingMS:   avgProcessingTime,
		BufferLevels:      append([]uint64(nil), wp.bufferFillLevels...),
		ActiveWorkers:     wp.workers,
	}
}

// MetricsHandler returns the current metrics as JSON
func (wp *WorkerPool) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(wp.Metrics())
}
