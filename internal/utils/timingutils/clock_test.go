package timingutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAfterAdvances(t *testing.T) {
	start := time.Unix(1700000000, 0)
	clk := NewFakeClock(start)

	fired := <-clk.After(2 * time.Second)
	assert.Equal(t, start.Add(2*time.Second), fired)
	assert.Equal(t, start.Add(2*time.Second), clk.Now())

	clk.Advance(time.Minute)
	assert.Equal(t, start.Add(62*time.Second), clk.Now())

	<-clk.After(0)
	assert.Equal(t, []time.Duration{2 * time.Second, 0}, clk.Waits())
}

func TestDisabledTimingLoggerIsNoop(t *testing.T) {
	ShowTimingLogs = false
	done := GetDeferrableTimingLogger("noop")
	assert.NotPanics(t, done)
}
