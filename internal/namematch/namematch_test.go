package namematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchFindsClosestAboveThreshold(t *testing.T) {
	m := New()
	best, score, ok := m.Match("Jon", []string{"Sarah", "John", "Mary"})
	assert.True(t, ok)
	assert.Equal(t, "John", best)
	assert.Greater(t, score, DefaultThreshold)
}

func TestMatchRejectsBelowThreshold(t *testing.T) {
	m := New(WithThreshold(0.95))
	_, _, ok := m.Match("Jon", []string{"Sarah", "Mary"})
	assert.False(t, ok)
}
