package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"jetcharter/internal/domain"
	"jetcharter/internal/logging"
	"jetcharter/internal/metrics"
	"jetcharter/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrQueueFull = errors.New("inquiry queue is full")

// Task is the delivery of one inquiry to one sink.
type Task struct {
	Inquiry   models.Inquiry `json:"inquiry"`
	Sink      string         `json:"sink"`
	Attempt   int            `json:"attempt"`
	LastError string         `json:"last_error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// InquiryWorker delivers contact inquiries to the configured sinks. Tasks go
// through redis when a client is set and through an in-memory queue otherwise.
// Failed deliveries are retried with exponential backoff and end up in the
// dead-letter list after the last attempt.
type InquiryWorker struct {
	sinks          map[string]domain.InquirySink
	sinkOrder      []string
	redis          *redis.Client
	retryPolicy    RetryPolicy
	queue          chan Task
	redisQueueKey  string
	deadLetterKey  string
	pollInterval   time.Duration
	deliverTimeout time.Duration
	logger         *zerolog.Logger

	mu      sync.Mutex
	pending map[*time.Timer]Task
	stopped bool
}

func NewInquiryWorker(sinks []domain.InquirySink, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *InquiryWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	w := &InquiryWorker{
		sinks:          make(map[string]domain.InquirySink, len(sinks)),
		redis:          redisClient,
		retryPolicy:    retry,
		queue:          make(chan Task, models.InquiryQueueSize),
		redisQueueKey:  "inquiries:queue",
		deadLetterKey:  "inquiries:deadletter",
		pollInterval:   time.Second,
		deliverTimeout: 30 * time.Second,
		logger:         logging.Component(logger, "inquiry_worker"),
		pending:        make(map[*time.Timer]Task),
	}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if _, dup := w.sinks[s.Name()]; dup {
			continue
		}
		w.sinks[s.Name()] = s
		w.sinkOrder = append(w.sinkOrder, s.Name())
	}
	return w
}

// Sinks lists the configured sink names in registration order.
func (w *InquiryWorker) Sinks() []string {
	return append([]string(nil), w.sinkOrder...)
}

// Enqueue schedules delivery of inquiry to every sink. With no sink configured
// the inquiry is only logged.
func (w *InquiryWorker) Enqueue(ctx context.Context, inquiry *models.Inquiry) error {
	if inquiry == nil {
		return errors.New("inquiry is required")
	}
	if len(w.sinkOrder) == 0 {
		w.logger.Info().
			Str("inquiry_id", inquiry.ID).
			Str("inquiry_type", inquiry.InquiryType).
			Str("subject", inquiry.Subject).
			Msg("No inquiry sinks configured, inquiry logged only")
		return nil
	}

	for _, name := range w.sinkOrder {
		task := Task{Inquiry: *inquiry, Sink: name, CreatedAt: time.Now()}
		if err := w.push(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (w *InquiryWorker) push(ctx context.Context, task Task) error {
	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		metrics.SetInquiryQueueDepth(len(w.queue))
		return nil
	default:
		return fmt.Errorf("%w: task for %s dropped", ErrQueueFull, task.Sink)
	}
}

// Start runs the delivery loop until ctx is done.
func (w *InquiryWorker) Start(ctx context.Context) {
	w.logger.Info().Strs("sinks", w.sinkOrder).Msg("inquiry worker started")
	defer w.logger.Info().Msg("inquiry worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		if w.redis == nil {
			select {
			case <-ctx.Done():
				return
			case t := <-w.queue:
				w.processTask(ctx, &t)
			case <-time.After(w.pollInterval):
			}
		}
	}
}

// Stop cancels scheduled retries. Their tasks are moved to redis when
// possible so another instance picks them up.
func (w *InquiryWorker) Stop(ctx context.Context) {
	w.mu.Lock()
	w.stopped = true
	pending := w.pending
	w.pending = make(map[*time.Timer]Task)
	w.mu.Unlock()

	for timer, task := range pending {
		if !timer.Stop() {
			continue
		}
		if w.redis != nil {
			if err := w.pushRedis(ctx, task); err == nil {
				continue
			}
		}
		w.logger.Warn().Str("inquiry_id", task.Inquiry.ID).Str("sink", task.Sink).Msg("scheduled retry dropped on shutdown")
	}
}

func (w *InquiryWorker) tryLocalQueue() (Task, bool) {
	select {
	case t := <-w.queue:
		metrics.SetInquiryQueueDepth(len(w.queue))
		return t, true
	default:
		return Task{}, false
	}
}

func (w *InquiryWorker) tryRedis(ctx context.Context) (Task, bool) {
	if w.redis == nil {
		return Task{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, redis.Nil) {
			return Task{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		time.Sleep(w.pollInterval)
		return Task{}, false
	}
	if len(res) != 2 {
		return Task{}, false
	}
	var task Task
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return Task{}, false
	}
	return task, true
}

func (w *InquiryWorker) processTask(ctx context.Context, task *Task) {
	sink, ok := w.sinks[task.Sink]
	if !ok {
		task.LastError = "unknown sink"
		w.failTask(ctx, task)
		return
	}

	deliverCtx, cancel := context.WithTimeout(ctx, w.deliverTimeout)
	err := sink.Deliver(deliverCtx, &task.Inquiry)
	cancel()
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.IncInquiry(task.Sink, "delivered")
	w.logger.Debug().Str("inquiry_id", task.Inquiry.ID).Str("sink", task.Sink).Int("attempt", task.Attempt+1).Msg("inquiry delivered")
}

func (w *InquiryWorker) retryOrFail(ctx context.Context, task *Task, cause error) {
	attempt := task.Attempt + 1
	task.LastError = cause.Error()
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task)
		return
	}

	task.Attempt = attempt
	delay := w.retryPolicy.NextDelay(attempt)
	metrics.IncInquiry(task.Sink, "retry")
	w.logger.Warn().
		Err(cause).
		Str("inquiry_id", task.Inquiry.ID).
		Str("sink", task.Sink).
		Int("attempt", attempt).
		Dur("next_delay", delay).
		Msg("inquiry delivery failed, will retry")
	w.scheduleRetry(*task, delay)
}

func (w *InquiryWorker) scheduleRetry(task Task, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		w.logger.Warn().Str("inquiry_id", task.Inquiry.ID).Msg("worker stopped, retry not scheduled")
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		w.mu.Lock()
		delete(w.pending, timer)
		w.mu.Unlock()

		if err := w.push(context.Background(), task); err != nil {
			w.logger.Error().Err(err).Str("inquiry_id", task.Inquiry.ID).Msg("requeue failed")
		}
	})
	w.pending[timer] = task
}

// PendingRetries reports how many retries are waiting for their delay.
func (w *InquiryWorker) PendingRetries() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *InquiryWorker) failTask(ctx context.Context, task *Task) {
	metrics.IncInquiry(task.Sink, "dead_letter")
	w.logger.Error().
		Str("inquiry_id", task.Inquiry.ID).
		Str("sink", task.Sink).
		Str("last_error", task.LastError).
		Msg("inquiry delivery failed permanently")
	w.pushDeadLetter(ctx, task)
}

func (w *InquiryWorker) pushRedis(ctx context.Context, task Task) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *InquiryWorker) pushDeadLetter(ctx context.Context, task *Task) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Str("inquiry_id", task.Inquiry.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("inquiry_id", task.Inquiry.ID).Msg("deadletter push")
	}
}
