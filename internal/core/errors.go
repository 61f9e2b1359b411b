// Package core holds error kinds and other cross-cutting types shared by
// every pipeline component, so stages can switch on error kind rather than
// string-matching wrapped messages.
package core

import "fmt"

// NoContent is returned when the input text is empty.
type NoContent struct{}

func (NoContent) Error() string { return "no content: input text is empty" }

// LLMNotConfigured is returned when required LLM credentials are absent.
type LLMNotConfigured struct {
	Stage string
}

func (e LLMNotConfigured) Error() string {
	return fmt.Sprintf("llm not configured for stage %q", e.Stage)
}

// NoDirectory is returned when no writable output directory was selected.
type NoDirectory struct {
	Path string
	Err  error
}

func (e NoDirectory) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("output directory %q not writable: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("no output directory selected (got %q)", e.Path)
}

func (e NoDirectory) Unwrap() error { return e.Err }

// InsufficientVoices is returned when the enabled-voice set fails the
// VoicePool minima (§3: |male|+|female| >= 5, |male| >= 2, |female| >= 2).
type InsufficientVoices struct {
	MaleCount   int
	FemaleCount int
}

func (e InsufficientVoices) Error() string {
	return fmt.Sprintf("insufficient voices: %d male, %d female", e.MaleCount, e.FemaleCount)
}

// Cancelled indicates a user- or system-initiated cancellation. Silent and
// resumable: callers should not surface it as a failure.
type Cancelled struct{}

func (Cancelled) Error() string { return "cancelled" }

// ValidationFailed indicates an LLM response failed schema validation.
// Feeds the retry ladder; never surfaced if a later attempt succeeds.
type ValidationFailed struct {
	Stage   string
	Details string
}

func (e ValidationFailed) Error() string {
	return fmt.Sprintf("validation failed in stage %q: %s", e.Stage, e.Details)
}

// Refused indicates the LLM refused the request on content-policy grounds.
// Non-retriable; always surfaced.
type Refused struct {
	Stage   string
	Message string
}

func (e Refused) Error() string {
	return fmt.Sprintf("refused in stage %q: %s", e.Stage, e.Message)
}

// Retriable wraps a transient cause (network, 5xx, timeout) handled by a
// stage's retry ladder. Surfaced only if cancellation intersects the retry
// loop before it succeeds.
type Retriable struct {
	Cause error
}

func (e Retriable) Error() string { return fmt.Sprintf("retriable: %v", e.Cause) }
func (e Retriable) Unwrap() error { return e.Cause }

// EncoderFatal indicates the FFmpeg-backed encoder crashed even after
// cleanup. A single retry with a fresh encoder instance is attempted
// upstream; on second failure this is surfaced.
type EncoderFatal struct {
	Cause error
}

func (e EncoderFatal) Error() string { return fmt.Sprintf("encoder fatal: %v", e.Cause) }
func (e EncoderFatal) Unwrap() error { return e.Cause }

// FileSystemPermission is surfaced after the bounded permission-retry
// wrapper around a disk write exhausts its attempts.
type FileSystemPermission struct {
	Path string
	Err  error
}

func (e FileSystemPermission) Error() string {
	return fmt.Sprintf("filesystem permission denied for %q: %v", e.Path, e.Err)
}

func (e FileSystemPermission) Unwrap() error { return e.Err }

// NoPronounceableContent indicates the final assignments yielded zero
// renderable chunks (no chunk contained a letter or digit).
type NoPronounceableContent struct{}

func (NoPronounceableContent) Error() string {
	return "no pronounceable content: assignments yielded zero renderable chunks"
}
