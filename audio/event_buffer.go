package audio

import "sync/atomic"

// gateEvent changes the sequenced gate level at offset frames into the
// buffer being processed.
type gateEvent struct {
	offset int
	high   bool
}

// eventBuffer is a lock-free spsc queue of gate events.
type eventBuffer struct {
	events      []gateEvent
	read, write atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{events: make([]gateEvent, size)}
}

// tryPush queues ev unless the buffer is full. It never waits, so it is
// safe on the audio thread. It reports whether the event was queued.
func (b *eventBuffer) tryPush(ev gateEvent) bool {
	write := b.write.Load()
	if write-b.read.Load() == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	b.write.Store(write + 1)
	return true
}

// iter calls f for queued events with an offset before untilOffset, or for
// all queued events when untilOffset is -1.
func (b *eventBuffer) iter(untilOffset int, f func(gateEvent)) {
	read := b.read.Load()
	write := b.write.Load()
	if read == write {
		return
	}
	for read != write {
		ev := b.events[read%uint32(len(b.events))]
		if ev.offset >= untilOffset && untilOffset != -1 {
			break
		}
		f(ev)
		read++
	}
	b.read.Store(read)
}
