package workspace

import (
	"context"
	"log/slog"
	"sync"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

// TaskOp is the remote write a task performs.
type TaskOp string

const (
	TaskUpsert TaskOp = "upsert"
	TaskDelete TaskOp = "delete"
)

// Task is one outbound write for one record. Upserts carry no payload: the
// executor reads the record from State when the task runs, so a coalesced
// task always writes the latest value.
type Task struct {
	Ref        models.EntityRef
	Op         TaskOp
	UserID     string
	Generation uint64
}

// TaskFunc executes a task against the remote store.
type TaskFunc func(ctx context.Context, task Task) error

// Outbox is a keyed queue of outbound writes. A task queued for a record
// replaces any task already waiting for that record, and at most one task
// per record runs at a time, so writes to one record land in issue order.
type Outbox struct {
	exec    TaskFunc
	onError func(Task, error)
	logger  *slog.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	order    []models.EntityRef
	queued   map[models.EntityRef]Task
	inflight map[models.EntityRef]struct{}
	idle     chan struct{}
	closed   bool
	started  bool
}

// NewOutbox creates an outbox; onError may be nil.
func NewOutbox(exec TaskFunc, onError func(Task, error), logger *slog.Logger) *Outbox {
	o := &Outbox{
		exec:     exec,
		onError:  onError,
		logger:   logger,
		queued:   make(map[models.EntityRef]Task),
		inflight: make(map[models.EntityRef]struct{}),
		idle:     make(chan struct{}),
	}
	close(o.idle)
	o.cond = sync.NewCond(&o.mu)
	return o
}

// Start launches workers that run until ctx is done. Calling it again is a
// no-op.
func (o *Outbox) Start(ctx context.Context, workers int) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go o.worker(ctx)
	}

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		o.closed = true
		if n := len(o.queued); n > 0 {
			o.logger.Info("outbox stopped with queued writes", "dropped", n)
		}
		o.order = nil
		o.queued = make(map[models.EntityRef]Task)
		o.signalIdleLocked()
		o.mu.Unlock()
		o.cond.Broadcast()
	}()
}

// Enqueue schedules task, coalescing with a task already waiting for the
// same record.
func (o *Outbox) Enqueue(task Task) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		o.logger.Debug("outbox closed, dropping task", "kind", task.Ref.Kind, "id", task.Ref.ID, "op", task.Op)
		return
	}

	wasPending := o.pendingLocked()
	if _, ok := o.queued[task.Ref]; ok {
		o.logger.Debug("coalesced outbound write", "kind", task.Ref.Kind, "id", task.Ref.ID, "op", task.Op)
	} else {
		o.order = append(o.order, task.Ref)
	}
	o.queued[task.Ref] = task

	if wasPending == 0 {
		o.idle = make(chan struct{})
	}
	o.cond.Broadcast()
}

// DropQueued discards every task that has not started and returns how many
// were dropped. Running tasks finish.
func (o *Outbox) DropQueued() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(o.queued)
	o.order = nil
	o.queued = make(map[models.EntityRef]Task)
	o.signalIdleLocked()
	return n
}

// Pending returns the number of queued plus running tasks
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingLocked()
}

// Wait blocks until no task is queued or running.
func (o *Outbox) Wait(ctx context.Context) error {
	for {
		o.mu.Lock()
		if o.pendingLocked() == 0 {
			o.mu.Unlock()
			return nil
		}
		idle := o.idle
		o.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Outbox) pendingLocked() int {
	return len(o.queued) + len(o.inflight)
}

func (o *Outbox) signalIdleLocked() {
	if o.pendingLocked() != 0 {
		return
	}
	select {
	case <-o.idle:
	default:
		close(o.idle)
	}
}

// next pops the oldest task whose record has nothing running.
func (o *Outbox) next() (Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for {
		if o.closed {
			return Task{}, false
		}
		for i, ref := range o.order {
			if _, busy := o.inflight[ref]; busy {
				continue
			}
			task := o.queued[ref]
			delete(o.queued, ref)
			o.order = append(o.order[:i:i], o.order[i+1:]...)
			o.inflight[ref] = struct{}{}
			return task, true
		}
		o.cond.Wait()
	}
}

func (o *Outbox) done(ref models.EntityRef) {
	o.mu.Lock()
	delete(o.inflight, ref)
	o.signalIdleLocked()
	o.mu.Unlock()
	o.cond.Broadcast()
}

func (o *Outbox) worker(ctx context.Context) {
	for {
		task, ok := o.next()
		if !ok {
			return
		}

		err := o.exec(ctx, task)
		if err != nil {
			o.logger.Warn("outbound write failed",
				"kind", task.Ref.Kind,
				"id", task.Ref.ID,
				"op", task.Op,
				"error", err,
			)
			if o.onError != nil {
				o.onError(task, err)
			}
		}
		o.done(task.Ref)
	}
}
