package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiresAtDeadline(t *testing.T) {
	s := New()
	s.Schedule(10, TargetGPUHBlank, 0)

	var fired []Event
	s.Run(5, func(e Event) { fired = append(fired, e) })
	assert.Empty(t, fired)

	s.Run(5, func(e Event) { fired = append(fired, e) })
	assert.Len(t, fired, 1)
	assert.Equal(t, TargetGPUHBlank, fired[0].Target)
}

func TestInvalidatePayload(t *testing.T) {
	s := New()
	s.Schedule(10, TargetTimerTarget, 0)
	s.Schedule(10, TargetTimerTarget, 1)
	s.InvalidatePayload(TargetTimerTarget, 0)

	var fired []Event
	s.Run(100, func(e Event) { fired = append(fired, e) })
	assert.Len(t, fired, 1)
	assert.Equal(t, 1, fired[0].Payload)
}

func TestCycleConversions(t *testing.T) {
	assert.Equal(t, int64(5), SysCyclesToCpu(10))
	assert.Equal(t, int64(7), GpuCyclesToCpu(11))
	assert.Equal(t, int64(3413), HBlankCyclesToGpu(1))
}
