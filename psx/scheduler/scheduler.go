// Package scheduler implements the cooperative deadline queue that
// sequences GPU hblank, timer target/overflow, CD-ROM packet delivery
// and controller IRQs against the CPU's cycle count. Grounded on the
// original Rust source's scheduler.rs: a flat slice of pending events
// decremented every CPU step rather than a heap, since the event count
// is always small (a handful of timers/DMA/CD events at once).
package scheduler

// Target identifies which subsystem a scheduled event belongs to.
type Target int

const (
	TargetGPUHBlank Target = iota
	TargetTimerOverflow
	TargetTimerTarget
	TargetCDPacket
	TargetCDIRQ
	TargetControllerIRQ
)

// TimerIndex/PacketID are packed into Event.Payload to disambiguate
// events sharing the same Target (e.g. three timers each schedule
// TargetTimerTarget events).
type Event struct {
	CyclesRemaining int64
	Target          Target
	Payload         int
}

// Scheduler holds every outstanding deadline. Firing order among events
// with equal deadlines matches insertion order.
type Scheduler struct {
	pending []Event
}

func New() *Scheduler {
	return &Scheduler{}
}

// Schedule arms a new event, firing after the given number of CPU cycles.
func (s *Scheduler) Schedule(cycles int64, target Target, payload int) {
	s.pending = append(s.pending, Event{CyclesRemaining: cycles, Target: target, Payload: payload})
}

// InvalidateTarget removes every pending event for the given target,
// regardless of payload. Used when a timer's mode register is
// rewritten and its old deadlines must be discarded.
func (s *Scheduler) InvalidateTarget(target Target) {
	kept := s.pending[:0]
	for _, e := range s.pending {
		if e.Target != target {
			kept = append(kept, e)
		}
	}
	s.pending = kept
}

// InvalidatePayload removes pending events matching both target and payload.
func (s *Scheduler) InvalidatePayload(target Target, payload int) {
	kept := s.pending[:0]
	for _, e := range s.pending {
		if e.Target != target || e.Payload != payload {
			kept = append(kept, e)
		}
	}
	s.pending = kept
}

// Run decrements every pending event by the elapsed CPU cycle count and
// invokes fire for each event that has reached its deadline. Fired
// events are removed before fire is called for the next one, so a
// handler that reschedules the same target sees a clean queue.
func (s *Scheduler) Run(cpuCycles int64, fire func(Event)) {
	if cpuCycles <= 0 {
		return
	}

	var ready []Event
	remaining := s.pending[:0]
	for _, e := range s.pending {
		e.CyclesRemaining -= cpuCycles
		if e.CyclesRemaining <= 0 {
			ready = append(ready, e)
		} else {
			remaining = append(remaining, e)
		}
	}
	s.pending = remaining

	for _, e := range ready {
		fire(e)
	}
}

// Cycle-domain conversions, grounded on the original scheduler.rs.
// SysCycles and HBlankCycles are CPU-domain inputs expressed in a
// different clock; GpuCycles is the GPU dot clock.

// SysCyclesToCpu converts a count of "system" cycles, two per CPU cycle.
func SysCyclesToCpu(n int64) int64 { return n / 2 }

// GpuCyclesToCpu converts GPU dot-clock cycles to CPU cycles (7/11 ratio).
func GpuCyclesToCpu(n int64) int64 { return n * 7 / 11 }

// HBlankCyclesToGpu converts a count of scanlines to GPU dot-clock cycles.
func HBlankCyclesToGpu(n int64) int64 { return n * 3413 }

// HBlankCyclesToCpu composes the two conversions above.
func HBlankCyclesToCpu(n int64) int64 { return GpuCyclesToCpu(HBlankCyclesToGpu(n)) }
