// Package audio wraps the system ffmpeg binary to concatenate cached TTS
// chunks with silence filler, apply the fixed-order filter chain, and
// encode the result to Opus (spec §4.4).
package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
)

// State is the encoder's process-wide resource state (spec §5):
// uninitialised -> loaded -> in-use -> terminated; after terminate the
// next call must load again.
type State int

const (
	StateUninitialised State = iota
	StateLoaded
	StateInUse
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialised:
		return "uninitialised"
	case StateLoaded:
		return "loaded"
	case StateInUse:
		return "in-use"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MaxOperationsBeforeRefresh bounds memory growth by forcing a fresh
// encoder instance after N successful ffmpeg invocations (spec §4.4). The
// count is per invocation, not per merge: each segment merge makes two (the
// silence clip and the encode), so the refresh comes every N/2 merges.
const MaxOperationsBeforeRefresh = 50

// ErrEncoderFatal is wrapped into the error returned whenever an ffmpeg
// invocation fails; the encoder is left terminated and the next merge
// reloads it.
var ErrEncoderFatal = errors.New("audio: encoder fatal")

// Encoder is a process-wide resource wrapping the system ffmpeg binary.
// It is safe for concurrent use; callers serialize merges through it one
// at a time per spec §5 ("Merge is single-threaded per segment; segments
// run sequentially").
type Encoder struct {
	mu         sync.Mutex
	state      State
	binaryPath string
	operations int
}

// NewEncoder returns an Encoder in the uninitialised state. binaryPath may
// be empty to resolve "ffmpeg" from PATH.
func NewEncoder(binaryPath string) *Encoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Encoder{binaryPath: binaryPath, state: StateUninitialised}
}

// Load transitions uninitialised -> loaded, verifying the binary resolves.
func (e *Encoder) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateUninitialised && e.state != StateTerminated {
		return nil
	}
	path, err := exec.LookPath(e.binaryPath)
	if err != nil {
		return fmt.Errorf("audio: ffmpeg not found: %w", err)
	}
	e.binaryPath = path
	e.state = StateLoaded
	e.operations = 0
	return nil
}

// Terminate transitions to terminated; the next Load call reinitialises.
func (e *Encoder) Terminate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateTerminated
}

// run invokes ffmpeg with args, transitioning loaded -> in-use -> loaded
// (or terminated on failure requiring a refresh).
func (e *Encoder) run(ctx context.Context, args []string) error {
	e.mu.Lock()
	if e.state != StateLoaded {
		e.mu.Unlock()
		return fmt.Errorf("audio: encoder not loaded (state=%s)", e.state)
	}
	e.state = StateInUse
	e.mu.Unlock()

	cmd := exec.CommandContext(ctx, e.binaryPath, args...)
	cmd.Stdout = nil
	var stderr stderrBuffer
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	e.mu.Lock()
	defer e.mu.Unlock()
	if runErr != nil {
		e.state = StateTerminated
		return fmt.Errorf("%w: %v: %s", ErrEncoderFatal, runErr, stderr.String())
	}

	e.operations++
	if e.operations >= MaxOperationsBeforeRefresh {
		e.state = StateTerminated
		return nil
	}
	e.state = StateLoaded
	return nil
}

// refreshIfNeeded proactively reloads the encoder if the last run
// terminated it (either from a fatal error or the operation-count bound).
func (e *Encoder) refreshIfNeeded(ctx context.Context) error {
	e.mu.Lock()
	needsLoad := e.state != StateLoaded
	e.mu.Unlock()
	if needsLoad {
		return e.Load(ctx)
	}
	return nil
}

type stderrBuffer struct {
	data []byte
}

func (b *stderrBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *stderrBuffer) String() string { return string(b.data) }
