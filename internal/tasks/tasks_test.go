package tasks

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// TestRunSuccess verifies a successful worker posts exactly one terminal
// envelope carrying its return value.
func TestRunSuccess(t *testing.T) {
	r := Run(ClassTool, "version check", func() (any, error) {
		return "1.2.3", nil
	})

	var terminals []Envelope
	for env := range r.Messages() {
		if env.Status.Terminal() {
			terminals = append(terminals, env)
		}
	}

	if len(terminals) != 1 {
		t.Fatalf("Expected exactly 1 terminal envelope, got %d", len(terminals))
	}
	if terminals[0].Status != StatusSuccess {
		t.Errorf("Expected success, got %s", terminals[0].Status)
	}
	if terminals[0].Data != "1.2.3" {
		t.Errorf("Expected data '1.2.3', got %v", terminals[0].Data)
	}
	if terminals[0].Topic != "version check" {
		t.Errorf("Expected topic 'version check', got %q", terminals[0].Topic)
	}
}

// TestRunError verifies a failing worker yields exactly one error
// envelope with non-empty diagnostic text.
func TestRunError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		r := Run(ClassTool, "bad op", func() (any, error) {
			return nil, errors.New("subprocess exited with status 1")
		})
		env := r.Wait()
		if env.Status != StatusError {
			t.Fatalf("Expected error status, got %s", env.Status)
		}
		if env.Text() == "" {
			t.Error("Error envelope must carry non-empty diagnostic text")
		}
	})

	t.Run("empty error text", func(t *testing.T) {
		r := Run(ClassTool, "bad op", func() (any, error) {
			return nil, errors.New("")
		})
		env := r.Wait()
		if env.Status != StatusError {
			t.Fatalf("Expected error status, got %s", env.Status)
		}
		if env.Text() == "" {
			t.Error("Empty error must still produce diagnostic text")
		}
	})

	t.Run("panic", func(t *testing.T) {
		r := Run(ClassTool, "explosive", func() (any, error) {
			panic("boom")
		})
		env := r.Wait()
		if env.Status != StatusError {
			t.Fatalf("Expected error status after panic, got %s", env.Status)
		}
		if env.Text() == "" {
			t.Error("Panic must produce diagnostic text")
		}
	})
}

// TestClassSerialization verifies at most one worker of a class runs at
// a time, while different classes may overlap.
func TestClassSerialization(t *testing.T) {
	var mu sync.Mutex
	running := 0
	maxRunning := 0

	work := func() (any, error) {
		mu.Lock()
		running++
		if running > maxRunning {
			maxRunning = running
		}
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		running--
		mu.Unlock()
		return nil, nil
	}

	var runners []*Runner
	for i := 0; i < 4; i++ {
		runners = append(runners, Run(ClassDownload, "serial work", work))
	}
	for _, r := range runners {
		if env := r.Wait(); env.Status != StatusSuccess {
			t.Fatalf("Worker failed: %v", env.Data)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if maxRunning != 1 {
		t.Errorf("Expected at most 1 concurrent worker per class, observed %d", maxRunning)
	}
}

// TestStream verifies streamed output envelopes precede the terminal one
// and that an emitted terminal status is demoted rather than duplicating
// the runner's own terminal envelope.
func TestStream(t *testing.T) {
	r := Stream(ClassTool, "monitor", func(emit Emit) (any, error) {
		emit(StatusOutput, "line one")
		emit(StatusOutput, "line two")
		emit(StatusSuccess, "sneaky terminal")
		return "done", nil
	})

	var outputs []string
	terminals := 0
	var last Envelope
	for env := range r.Messages() {
		if env.Status == StatusOutput {
			outputs = append(outputs, env.Text())
		}
		if env.Status.Terminal() {
			terminals++
			last = env
		}
	}

	if len(outputs) != 2 {
		t.Errorf("Expected 2 output envelopes, got %d: %v", len(outputs), outputs)
	}
	if terminals != 1 {
		t.Fatalf("Expected exactly 1 terminal envelope, got %d", terminals)
	}
	if last.Status != StatusSuccess || last.Data != "done" {
		t.Errorf("Unexpected terminal envelope: %+v", last)
	}
}

// TestDrainProgress verifies Drain hands non-terminal envelopes to the
// callback in order.
func TestDrainProgress(t *testing.T) {
	r := Stream(ClassExtract, "extract", func(emit Emit) (any, error) {
		emit(StatusInfo, "reading archive")
		emit(StatusInfo, "writing files")
		return "/tmp/out", nil
	})

	var seen []string
	env := r.Drain(func(e Envelope) { seen = append(seen, e.Text()) })

	if env.Status != StatusSuccess {
		t.Fatalf("Expected success, got %s", env.Status)
	}
	// First envelope is the runner's own start note
	if len(seen) != 3 {
		t.Fatalf("Expected 3 progress envelopes, got %d: %v", len(seen), seen)
	}
	if seen[1] != "reading archive" || seen[2] != "writing files" {
		t.Errorf("Progress out of order: %v", seen)
	}
}
