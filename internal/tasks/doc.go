// Package tasks runs the installer's blocking operations off the UI
// loop and reports their outcomes as messages.
//
// Every long-running external operation (Arduino CLI invocation, archive
// download, archive extraction, git operation) is wrapped in a Runner: a
// goroutine that performs the blocking call under a per-operation-class
// mutex and delivers exactly one terminal envelope (success or error) on
// the runner's channel. Operations of the same class serialize against
// each other; different classes may overlap.
//
// Progress is observable but never blocking for the caller: informational
// and streamed-output envelopes precede the terminal one, and the channel
// is closed once the terminal envelope has been delivered. A worker that
// fails, or panics, always yields exactly one error envelope carrying
// diagnostic text; results are never silently dropped.
package tasks
