package worker

import (
	"context"
	"encoding/json"
	"time"

	"blendresto/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueAlerts = "jobs:alerts"

const (
	JobTypeLowMargin     = "low_margin"
	JobTypeHighLaborCost = "high_labor_cost"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueAlert pushes a threshold alert onto the mail queue. The job type is
// derived from the alert's concrete type so the worker knows how to render it.
func (d *Dispatcher) EnqueueAlert(ctx context.Context, payload interface{}) error {
	var jobType string
	switch payload.(type) {
	case events.LowMarginAlert:
		jobType = JobTypeLowMargin
	case events.HighLaborCostAlert:
		jobType = JobTypeHighLaborCost
	default:
		jobType = "alert"
	}
	return d.enqueue(ctx, QueueAlerts, jobType, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes a single dequeued job payload.
type Handler interface {
	Process(ctx context.Context, jobType string, payload json.RawMessage)
}

// StartWorkerPool launches numWorkers goroutines consuming the alert queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handler Handler) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, handler)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueAlerts).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, result[0], result[1], handler)
		}
	}
}

func processJob(ctx context.Context, queue, raw string, handler Handler) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handler.Process(ctx, job.Type, job.Payload)
}
