package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockStopIsSynchronous(t *testing.T) {
	var n atomic.Int32
	tm := Clock{}.Every(time.Millisecond, func() { n.Add(1) })
	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	tm.Stop()
	after := n.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, after, n.Load())

	tm.Stop() // second stop is harmless
}

func TestManual(t *testing.T) {
	var m Manual
	var a, b int
	ta := m.Every(time.Second, func() { a++ })
	m.Every(time.Second, func() { b++ })

	m.Fire()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 2, m.Active())

	ta.Stop()
	m.Fire()
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, m.Active())
}
