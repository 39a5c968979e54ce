package tasks

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/DCC-EX/EX-Installer-sub000/internal/logging"
)

// Status classifies an envelope on a runner's channel.
type Status int

const (
	// StatusInfo is a non-terminal progress note
	StatusInfo Status = iota
	// StatusOutput is a non-terminal line streamed from a long-lived
	// process, such as the serial monitor
	StatusOutput
	// StatusSuccess is the terminal envelope of a completed operation
	StatusSuccess
	// StatusError is the terminal envelope of a failed operation
	StatusError
)

// String returns a human-readable name for the status
func (s Status) String() string {
	switch s {
	case StatusInfo:
		return "info"
	case StatusOutput:
		return "output"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", s)
	}
}

// Terminal reports whether the status ends an operation
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Envelope is the message a worker delivers to the UI. Data holds the
// operation's result on success, diagnostic text on error, and free-form
// progress data otherwise.
type Envelope struct {
	Status Status
	Topic  string
	Data   any
}

// Text returns Data rendered as a string, for display paths that only
// deal in text.
func (e Envelope) Text() string {
	switch d := e.Data.(type) {
	case string:
		return d
	case error:
		return d.Error()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Class identifies a family of blocking operations. All operations of
// one class serialize against each other; distinct classes may run
// concurrently.
type Class int

const (
	// ClassTool serializes Arduino CLI invocations
	ClassTool Class = iota
	// ClassDownload serializes archive downloads
	ClassDownload
	// ClassExtract serializes archive extraction
	ClassExtract
	// ClassRepo serializes git repository operations
	ClassRepo
	// ClassSerial serializes serial port sessions
	ClassSerial

	classCount
)

// String returns a human-readable name for the class
func (c Class) String() string {
	switch c {
	case ClassTool:
		return "tool"
	case ClassDownload:
		return "download"
	case ClassExtract:
		return "extract"
	case ClassRepo:
		return "repo"
	case ClassSerial:
		return "serial"
	default:
		return fmt.Sprintf("Class(%d)", c)
	}
}

var classLocks [classCount]sync.Mutex

// Emit publishes a non-terminal envelope from inside a streaming
// operation.
type Emit func(status Status, data any)

// Runner owns one in-flight operation and the channel its envelopes
// arrive on.
type Runner struct {
	class Class
	topic string
	ch    chan Envelope
}

// The buffer absorbs the info preamble plus bursts of streamed output;
// a producer outrunning its consumer blocks rather than dropping.
const runnerBuffer = 64

// Run starts fn on its own goroutine under the class mutex and returns
// immediately. Exactly one terminal envelope follows on Messages():
// success carrying fn's return value, or error carrying diagnostic text.
func Run(class Class, topic string, fn func() (any, error)) *Runner {
	return Stream(class, topic, func(Emit) (any, error) { return fn() })
}

// Stream is Run for operations that report progress: fn receives an Emit
// used for non-terminal envelopes. The terminal envelope is still posted
// exactly once, by Stream itself, after fn returns.
func Stream(class Class, topic string, fn func(emit Emit) (any, error)) *Runner {
	r := &Runner{
		class: class,
		topic: topic,
		ch:    make(chan Envelope, runnerBuffer),
	}

	go func() {
		defer close(r.ch)

		r.ch <- Envelope{Status: StatusInfo, Topic: topic, Data: "starting " + topic}
		logging.Debug("worker starting",
			zap.String("class", class.String()),
			zap.String("topic", topic),
		)

		classLocks[class].Lock()
		defer classLocks[class].Unlock()

		r.ch <- r.execute(fn)
	}()

	return r
}

// execute runs fn, converting errors and panics into the terminal
// envelope so the worker boundary never leaks an exception.
func (r *Runner) execute(fn func(emit Emit) (any, error)) (terminal Envelope) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("worker panicked",
				zap.String("topic", r.topic),
				zap.Any("panic", p),
			)
			terminal = Envelope{
				Status: StatusError,
				Topic:  r.topic,
				Data:   fmt.Sprintf("internal error: %v", p),
			}
		}
	}()

	emit := func(status Status, data any) {
		if status.Terminal() {
			// Terminal envelopes are owned by the runner
			status = StatusInfo
		}
		r.ch <- Envelope{Status: status, Topic: r.topic, Data: data}
	}

	result, err := fn(emit)
	if err != nil {
		text := err.Error()
		if text == "" {
			text = "unknown error"
		}
		logging.Error("worker failed", zap.String("topic", r.topic), zap.Error(err))
		return Envelope{Status: StatusError, Topic: r.topic, Data: text}
	}

	logging.Debug("worker finished", zap.String("topic", r.topic))
	return Envelope{Status: StatusSuccess, Topic: r.topic, Data: result}
}

// Messages returns the runner's envelope channel. The channel is closed
// after the terminal envelope.
func (r *Runner) Messages() <-chan Envelope {
	return r.ch
}

// Topic returns the topic the runner was started with
func (r *Runner) Topic() string {
	return r.topic
}

// Wait blocks until the terminal envelope arrives and returns it,
// discarding non-terminal progress. Intended for scripted subcommands
// and tests; the wizard consumes Messages directly.
func (r *Runner) Wait() Envelope {
	return r.Drain(nil)
}

// Drain blocks like Wait but hands every non-terminal envelope to
// onProgress first (when non-nil).
func (r *Runner) Drain(onProgress func(Envelope)) Envelope {
	for env := range r.ch {
		if env.Status.Terminal() {
			return env
		}
		if onProgress != nil {
			onProgress(env)
		}
	}
	// Channel closed without a terminal envelope: cannot happen via
	// execute, but keep the contract explicit.
	return Envelope{Status: StatusError, Topic: r.topic, Data: "worker exited without a result"}
}
