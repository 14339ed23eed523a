// Package ringbuffer implements a fixed-capacity, lock-free single-producer
// single-consumer queue of float32 audio samples.
//
// It is the same wait-free, allocation-free design as a byte-oriented SPSC
// ring buffer, generalized to carry float32 elements and split at
// construction into a writer half and a reader half so each side can be
// handed to its own thread without sharing a mutable receiver.
package ringbuffer

import "sync/atomic"

// ring holds the shared state between a Writer and a Reader. Every field is
// either immutable after New or an atomic counter, so no locking is needed
// to keep the two halves in sync.
type ring struct {
	buffer   []float32
	size     uint64 // power of 2
	mask     uint64 // size - 1
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// Writer is the producer-exclusive half of a ring buffer.
type Writer struct {
	r *ring
}

// Reader is the consumer-exclusive half of a ring buffer.
type Reader struct {
	r *ring
}

// New creates a ring buffer with the given capacity (rounded up to the next
// power of 2) and returns its writer and reader halves. The writer must only
// be used by the producer thread; the reader must only be used by the
// consumer thread.
func New(capacity uint64) (*Writer, *Reader) {
	capacity = nextPowerOf2(capacity)
	r := &ring{
		buffer: make([]float32, capacity),
		size:   capacity,
		mask:   capacity - 1,
	}
	return &Writer{r: r}, &Reader{r: r}
}

// Capacity returns the total number of float32 slots the buffer holds.
func (w *Writer) Capacity() uint64 { return w.r.size }

// Capacity returns the total number of float32 slots the buffer holds.
func (r *Reader) Capacity() uint64 { return r.r.size }

// OccupiedLen returns the number of samples currently available to read.
func (w *Writer) OccupiedLen() uint64 { return w.r.occupied() }

// OccupiedLen returns the number of samples currently available to read.
func (r *Reader) OccupiedLen() uint64 { return r.r.occupied() }

// FreeLen returns the number of samples that can be written without
// overwriting unread data.
func (w *Writer) FreeLen() uint64 { return w.r.size - w.r.occupied() }

// IsEmpty reports whether the buffer currently holds no samples.
func (r *Reader) IsEmpty() bool { return r.r.occupied() == 0 }

func (r *ring) occupied() uint64 {
	return r.writePos.Load() - r.readPos.Load()
}

// PushSlice writes as many samples from data as fit without exceeding
// capacity and returns the count actually written. It never blocks and
// never overwrites unread data; a partial write means the caller should
// retry the remainder later. This is the only hot-path write operation and
// performs no allocation.
func (w *Writer) PushSlice(data []float32) int {
	if len(data) == 0 {
		return 0
	}

	free := w.FreeLen()
	toWrite := uint64(len(data))
	if toWrite > free {
		toWrite = free
	}
	if toWrite == 0 {
		return 0
	}

	writePos := w.r.writePos.Load()
	start := writePos & w.r.mask
	end := (writePos + toWrite) & w.r.mask

	if end > start {
		copy(w.r.buffer[start:start+toWrite], data[:toWrite])
	} else {
		firstChunk := w.r.size - start
		copy(w.r.buffer[start:], data[:firstChunk])
		copy(w.r.buffer[:end], data[firstChunk:toWrite])
	}

	w.r.writePos.Store(writePos + toWrite)
	return int(toWrite)
}

// TryPop removes and returns the oldest sample. The second return value is
// false when the buffer is empty, in which case the first is the zero
// value.
func (r *Reader) TryPop() (float32, bool) {
	readPos := r.r.readPos.Load()
	if r.r.writePos.Load() == readPos {
		return 0, false
	}

	v := r.r.buffer[readPos&r.r.mask]
	r.r.readPos.Store(readPos + 1)
	return v, true
}

// nextPowerOf2 rounds n up to the next power of 2 (minimum 1).
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
