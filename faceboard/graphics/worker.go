// Package graphics renders the face on the unit's LCD.
//
// All drawing happens on one goroutine, the Worker, which owns the panel, the
// framebuffer and the renderer state. The main loop hands it LCD commands
// through a small buffered channel and never waits for it:
//
//	w := graphics.NewWorker(graphics.NewMouth(logger), fb, timer.Clock{}, faults, logger, 32)
//	w.Start(ctx)
//
//	// from the main loop
//	if err := w.Submit(cmd); err != nil {
//	    // queue full - the frame is dropped
//	}
package graphics

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/harveysanders/picoface/faceboard/command"
	"github.com/harveysanders/picoface/faceboard/fault"
	"github.com/harveysanders/picoface/faceboard/timer"
)

// Renderer is the variant specific half of the LCD subsystem.
type Renderer interface {
	Name() string
	// Render applies a draw command and flushes the frame. A non-zero period
	// starts an animation: Tick is then called every period until the next
	// command arrives.
	Render(fb *Framebuffer, cmd command.Command) (period time.Duration, err error)
	// Tick advances the running animation.
	Tick(fb *Framebuffer) error
	// Reset forgets what was drawn. It is called when the panel is cleared
	// or shows the test pattern.
	Reset()
}

// State is what the panel is doing.
type State uint8

const (
	Off State = iota
	Idle
	Animating
)

func (s State) String() string {
	switch s {
	case Off:
		return "off"
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	}
	return "state?"
}

// Worker processes LCD commands on its own goroutine.
type Worker struct {
	r      Renderer
	fb     *Framebuffer
	sched  timer.Scheduler
	faults fault.Reporter
	log    *slog.Logger

	cmds  chan command.Command
	ticks chan struct{}
	once  sync.Once

	// Owned by the Run goroutine.
	state State
	anim  timer.Timer
}

// NewWorker returns a Worker whose command queue holds size commands.
func NewWorker(r Renderer, fb *Framebuffer, sched timer.Scheduler, faults fault.Reporter, logger *slog.Logger, size int) *Worker {
	return &Worker{
		r:      r,
		fb:     fb,
		sched:  sched,
		faults: faults,
		log:    orDiscard(logger),
		cmds:   make(chan command.Command, size),
		ticks:  make(chan struct{}, 1),
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return logger
}

// Start launches Run. Calls after the first do nothing.
func (w *Worker) Start(ctx context.Context) {
	w.once.Do(func() {
		go w.Run(ctx)
	})
}

// Submit queues cmd without blocking. When the queue is full the command is
// dropped and a QueueFull fault returned.
func (w *Worker) Submit(cmd command.Command) error {
	select {
	case w.cmds <- cmd:
		return nil
	default:
		w.log.Error("lcd:queue-full", slog.String("cmd", cmd.String()))
		return fault.ForCommand(fault.ModuleGraphics, fault.QueueFull, cmd)
	}
}

// Handle lets the Worker serve as the dispatcher's LCD handler.
func (w *Worker) Handle(cmd command.Command) error {
	return w.Submit(cmd)
}

// Run initializes the panel and processes commands until ctx is done. On the
// device ctx is never cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.init()
	for {
		select {
		case <-ctx.Done():
			w.stopAnimation()
			return
		case cmd := <-w.cmds:
			w.handle(cmd)
		case <-w.ticks:
			w.tick()
		}
	}
}

func (w *Worker) init() {
	w.log.Info("lcd:init", slog.String("renderer", w.r.Name()))
	if err := w.fb.panel.Configure(); err != nil {
		w.log.Error("lcd:configure", slog.Any("reason", err))
		w.faults.Report(fault.New(fault.ModuleGraphics, fault.InitFault))
		return
	}
	if err := reset(w.fb); err != nil {
		w.log.Error("lcd:clear", slog.Any("reason", err))
		w.faults.Report(fault.New(fault.ModuleGraphics, fault.InitFault))
	}
}

func (w *Worker) handle(cmd command.Command) {
	w.stopAnimation()

	var err error
	switch cmd {
	case command.LCDTest:
		w.log.Debug("lcd:test")
		w.r.Reset()
		err = drawTest(w.fb)
		w.state = Idle
	case command.LCDOff:
		w.log.Debug("lcd:off")
		w.r.Reset()
		err = reset(w.fb)
		w.state = Off
	default:
		var period time.Duration
		period, err = w.r.Render(w.fb, cmd)
		if err != nil {
			break
		}
		w.state = Idle
		if period > 0 {
			w.anim = w.sched.Every(period, w.postTick)
			w.state = Animating
		}
	}
	if err != nil {
		w.report(cmd, err)
	}
}

// postTick runs in timer context. A tick already pending is enough.
func (w *Worker) postTick() {
	select {
	case w.ticks <- struct{}{}:
	default:
	}
}

func (w *Worker) tick() {
	// A tick queued just before the animation was cancelled.
	if w.state != Animating {
		return
	}
	if err := w.r.Tick(w.fb); err != nil {
		w.report(0, err)
	}
}

func (w *Worker) stopAnimation() {
	if w.anim == nil {
		return
	}
	w.anim.Stop()
	w.anim = nil
	// The timer may have fired after the last tick was taken.
	select {
	case <-w.ticks:
	default:
	}
	if w.state == Animating {
		w.state = Idle
	}
}

func (w *Worker) report(cmd command.Command, err error) {
	f := fault.As(err, fault.ModuleGraphics, fault.IOFault)
	if f.Kind == fault.IOFault {
		w.log.Error("lcd:flush", slog.String("cmd", cmd.String()), slog.Any("reason", err))
	}
	w.faults.Report(f)
}
