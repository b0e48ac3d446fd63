package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Loop is a single cooperative control loop. Controllers are executed
// in order of priority levels on the loop goroutine only, so state
// owned by controllers doesn't need locking.
type Loop struct {
	// Interval is the delay between iterations when no one triggers
	// the next iteration explicitly.
	Interval time.Duration
	// Clock provides the ticks visible to controllers.
	Clock TickSource

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	ticks         uint32
	priorityLevel int
}

// DefaultInterval is the default loop interval.
const DefaultInterval = TickPeriod

// NewLoop creates a Loop driven by clock.
func NewLoop(clock TickSource) *Loop {
	return &Loop{Interval: DefaultInterval, Clock: clock, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions which are started with the loop.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Name implements Named.
func (l *Loop) Name() string {
	return "loop"
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-runner.Done():
			return runner.Wait()
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		}
	}
}

// TriggerNext implements LoopControl. A trigger before Run starts the
// first iteration immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// RunIteration runs all controllers once. It's exported for driving the
// loop manually, e.g. from tests.
func (l *Loop) RunIteration(ctx context.Context) {
	iter := &loopIteration{Loop: l, ctx: ctx}
	if l.Clock != nil {
		iter.ticks = l.Clock.Ticks()
	}
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		runControllers(iter, l.controllers[i])
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Ticks() uint32 {
	return t.ticks
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
