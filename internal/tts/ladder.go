package tts

import (
	"math"
	"sync"

	"github.com/audiobound/audiobound/pkg/types"
)

// TaskResult is one ring-buffer entry the ladder uses to decide scaling.
type TaskResult struct {
	Success         bool
	HitRetryCeiling bool
}

// Ladder is the adaptive controller that sizes the TTS worker pool based
// on recent task outcomes (spec §4.3).
type Ladder struct {
	mu               sync.Mutex
	settings         types.LadderSettings
	current          int
	ring             []TaskResult
	ringNext         int
	ringFilled       int
	sinceLastScaleUp int
}

// NewLadder returns a Ladder starting at settings.MinWorkers.
func NewLadder(settings types.LadderSettings) *Ladder {
	if settings.SampleSize <= 0 {
		settings.SampleSize = types.DefaultLadderSettings().SampleSize
	}
	return &Ladder{
		settings: settings,
		current:  settings.MinWorkers,
		ring:     make([]TaskResult, settings.SampleSize),
	}
}

// Current returns the worker count currently in effect.
func (l *Ladder) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Record feeds one task outcome into the ladder and returns the worker
// count to apply afterward and whether it changed from before.
func (l *Ladder) Record(result TaskResult) (workers int, changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.ringNext] = result
	l.ringNext = (l.ringNext + 1) % len(l.ring)
	if l.ringFilled < len(l.ring) {
		l.ringFilled++
	}
	l.sinceLastScaleUp++

	before := l.current
	switch {
	case result.HitRetryCeiling:
		l.scaleDown()
	case l.ringFilled == len(l.ring) && l.successRate() < l.settings.SuccessThreshold:
		l.scaleDown()
	case l.ringFilled == len(l.ring) && l.successRate() >= l.settings.SuccessThreshold &&
		l.sinceLastScaleUp >= l.settings.SampleSize:
		l.scaleUp()
	}
	return l.current, l.current != before
}

func (l *Ladder) successRate() float64 {
	if l.ringFilled == 0 {
		return 1
	}
	successes := 0
	for i := 0; i < l.ringFilled; i++ {
		if l.ring[i].Success {
			successes++
		}
	}
	return float64(successes) / float64(l.ringFilled)
}

func (l *Ladder) scaleDown() {
	next := int(math.Floor(float64(l.current) * l.settings.ScaleDownFactor))
	if next < l.settings.MinWorkers {
		next = l.settings.MinWorkers
	}
	l.current = next
}

func (l *Ladder) scaleUp() {
	next := l.current + l.settings.ScaleUpIncrement
	if next > l.settings.MaxWorkers {
		next = l.settings.MaxWorkers
	}
	l.current = next
	l.sinceLastScaleUp = 0
}
