// Package scheduler runs one-shot delayed table actions.
//
// A job carries a snapshot of the table taken when it was armed. The handler compares the
// snapshot against the current table and ignores the job when the table has moved on.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Action uint8

const (
	ActionStartRound Action = iota + 1
	ActionDealCards
	ActionTurnTimeout
	ActionFinishDeclare
	ActionNextRound
	ActionGameEnd
)

var actionNames = map[Action]string{
	ActionStartRound:    "startRound",
	ActionDealCards:     "dealCards",
	ActionTurnTimeout:   "turnTimeout",
	ActionFinishDeclare: "finishDeclare",
	ActionNextRound:     "nextRound",
	ActionGameEnd:       "gameEnd",
}

func (that Action) String() string {
	if name, ok := actionNames[that]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", uint8(that))
}

// Fence is the table state a job is valid for.
type Fence struct {
	TurnNo      int    `json:"turnNo"`
	RoundID     string `json:"roundId"`
	CurrentTurn string `json:"currentTurn"`
}

type Job struct {
	TableID string `json:"tableId"`
	Action  Action `json:"action"`
	Fence   Fence  `json:"fence"`
}

type Handler func(ctx context.Context, job Job) error

// Scheduler arms jobs. Implementations must call the handler at most once per job.
type Scheduler interface {
	Schedule(job Job, delay time.Duration)
}

// Timer is an in-process Scheduler backed by time.AfterFunc.
type Timer struct {
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	wg      sync.WaitGroup
	nextID  uint64
	pending map[uint64]*time.Timer
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewTimer(logger *slog.Logger) *Timer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Timer{
		logger:  logger.With("component", "scheduler"),
		pending: make(map[uint64]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetHandler installs the job handler. It must be called before the first Schedule.
func (that *Timer) SetHandler(handler Handler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.handler = handler
}

func (that *Timer) Schedule(job Job, delay time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		that.logger.Debug("scheduler closed, job dropped", "tableID", job.TableID, "action", job.Action.String())
		return
	}

	id := that.nextID
	that.nextID++

	that.wg.Add(1)
	that.pending[id] = time.AfterFunc(delay, func() {
		defer that.wg.Done()
		that.fire(id, job)
	})
}

func (that *Timer) fire(id uint64, job Job) {
	that.mu.Lock()
	delete(that.pending, id)
	handler := that.handler
	that.mu.Unlock()

	if handler == nil {
		that.logger.Error("no handler for job", "tableID", job.TableID, "action", job.Action.String())
		return
	}

	if err := handler(that.ctx, job); err != nil {
		that.logger.Error("job failed", "tableID", job.TableID, "action", job.Action.String(), "error", err)
	}
}

// Pending is the number of armed jobs that have not fired yet.
func (that *Timer) Pending() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.pending)
}

// Close stops pending timers and waits for running handlers to return.
func (that *Timer) Close() {
	that.mu.Lock()
	that.closed = true
	for id, timer := range that.pending {
		if timer.Stop() {
			that.wg.Done()
		}
		delete(that.pending, id)
	}
	that.mu.Unlock()

	that.cancel()
	that.wg.Wait()
}
