package event

import (
	"context"
	"errors"
	"formflow/common"
	"formflow/domain/notify"
	"sync"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var ErrEmitterClosed = errors.New("notification emitter is closed")

// DispatchRequest carries the rendered deliveries of one notification rule of an applied transition
type DispatchRequest struct {
	SubmissionID types.ID          `json:"submissionId"`
	Action       string            `json:"action"`
	FromState    string            `json:"fromState"`
	ToState      string            `json:"toState"`
	Priority     notify.Priority   `json:"priority"`
	Channels     []notify.Channel  `json:"channels"`
	Deliveries   []notify.Delivery `json:"deliveries"`
	CreateTime   time.Time         `json:"createTime"`
}

// Dispatcher performs the delivery, it is called from the emitter worker only
type Dispatcher interface {
	Dispatch(ctx context.Context, request *DispatchRequest) error
}

type DispatcherFunc func(ctx context.Context, request *DispatchRequest) error

func (f DispatcherFunc) Dispatch(ctx context.Context, request *DispatchRequest) error {
	return f(ctx, request)
}

// LogDispatcher writes every delivery to the log
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, request *DispatchRequest) error {
	for _, d := range request.Deliveries {
		logrus.WithFields(logrus.Fields{
			"submissionId": request.SubmissionID,
			"action":       request.Action,
			"recipient":    d.Recipient,
			"priority":     d.Priority,
			"channels":     d.Channels,
		}).Infof("notification: %s | %s", d.Title, d.Body)
	}
	return nil
}

type EmitterOptions struct {
	QueueSize     int
	MaxAttempts   int
	RetryInterval time.Duration
}

func EmitterOptionsFromEnv() EmitterOptions {
	return EmitterOptions{
		QueueSize:     common.EnvInt("NOTIFY_QUEUE_SIZE", 256),
		MaxAttempts:   common.EnvInt("NOTIFY_RETRY_MAX_ATTEMPTS", 3),
		RetryInterval: common.EnvDuration("NOTIFY_RETRY_INTERVAL", time.Second),
	}
}

// Emitter hands dispatch requests to a Dispatcher on a background worker.
// Failed dispatches are retried up to MaxAttempts, paced by a limiter, then dropped with an error log.
type Emitter struct {
	dispatcher  Dispatcher
	queue       chan *DispatchRequest
	limiter     *rate.Limiter
	maxAttempts int

	mu       sync.RWMutex
	closed   bool
	started  bool
	senders  sync.WaitGroup
	stopping chan struct{}
	done     chan struct{}
}

func NewEmitter(dispatcher Dispatcher, opts EmitterOptions) *Emitter {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	return &Emitter{
		dispatcher:  dispatcher,
		queue:       make(chan *DispatchRequest, opts.QueueSize),
		limiter:     rate.NewLimiter(rate.Every(opts.RetryInterval), 1),
		maxAttempts: opts.MaxAttempts,
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (e *Emitter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	go e.run()
}

// Emit enqueues a request, it blocks only while the queue is full and gives up once Stop is called
func (e *Emitter) Emit(ctx context.Context, request *DispatchRequest) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrEmitterClosed
	}
	e.senders.Add(1)
	e.mu.RUnlock()
	defer e.senders.Done()

	select {
	case e.queue <- request:
		return nil
	case <-e.stopping:
		return ErrEmitterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop releases blocked senders, drains queued requests and waits for the worker to exit.
// Requests queued on an emitter which was never started are dropped.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	started := e.started
	e.mu.Unlock()

	close(e.stopping)
	e.senders.Wait()
	close(e.queue)

	if started {
		<-e.done
		return
	}
	if n := len(e.queue); n > 0 {
		logrus.Warnf("emitter stopped before start, %d notification dispatch requests dropped", n)
	}
}

func (e *Emitter) run() {
	defer close(e.done)
	for request := range e.queue {
		e.dispatch(request)
	}
}

func (e *Emitter) dispatch(request *DispatchRequest) {
	ctx := context.Background()
	for attempt := 1; ; attempt++ {
		err := e.dispatcher.Dispatch(ctx, request)
		if err == nil {
			return
		}
		entry := logrus.WithError(err).WithFields(logrus.Fields{
			"submissionId": request.SubmissionID, "action": request.Action, "attempt": attempt,
		})
		if attempt >= e.maxAttempts {
			entry.Error("notification dispatch failed, giving up")
			return
		}
		entry.Warn("notification dispatch failed, will retry")
		if err := e.limiter.Wait(ctx); err != nil {
			entry.WithError(err).Error("notification retry aborted")
			return
		}
	}
}
