/*
NAME
  queue.go

DESCRIPTION
  queue.go provides CircularByteQueue, a fixed-capacity byte ring used by the
  Temporal Redundancy engine to hold delayed AAF payloads and their stats
  entries.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ring provides a fixed-capacity circular byte queue with push, pull
// and compare primitives. It is a bounded byte stream with known producer and
// consumer sizing, so no fill counter or locking is needed beyond the cursor
// wrap arithmetic.
package ring

// Queue is a fixed-capacity byte ring. Head is the write cursor, tail is the
// read cursor; both are offsets into buf, mod len(buf). Head == tail encodes
// an empty queue.
type Queue struct {
	buf  []byte
	head int
	tail int
}

// New allocates a Queue with the given capacity in bytes.
func New(size int) *Queue {
	if size <= 0 {
		return &Queue{}
	}
	return &Queue{buf: make([]byte, size)}
}

// Free releases the backing storage. Free is idempotent; calling it on an
// already-freed or zero-value Queue is safe.
func (q *Queue) Free() {
	q.buf = nil
	q.head = 0
	q.tail = 0
}

// IsValid reports whether the queue has non-nil backing storage of non-zero
// size.
func (q *Queue) IsValid() bool {
	return q.buf != nil && len(q.buf) > 0
}

// Cap returns the queue's total byte capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Queued returns the number of bytes currently queued.
func (q *Queue) Queued() int {
	if !q.IsValid() {
		return 0
	}
	d := q.head - q.tail
	if d < 0 {
		d += len(q.buf)
	}
	return d
}

// Free space remaining, i.e. bytes that can be pushed before the queue is
// considered full from the caller's point of view. The caller is responsible
// for not overflowing; Push performs no overflow check, matching the source
// behaviour (spec.md S4.1: "no overflow check - the caller guarantees n <=
// free space").
func (q *Queue) Available() int {
	if !q.IsValid() {
		return 0
	}
	return len(q.buf) - q.Queued()
}

// Push copies n bytes from src into the queue, advancing head by n. If src is
// nil, n zero bytes are written instead (a padding push). Push wraps across
// the end of the backing buffer in up to two phases.
func (q *Queue) Push(src []byte, n int) {
	if n == 0 || !q.IsValid() {
		return
	}
	size := len(q.buf)
	phase1 := n
	if q.head+phase1 > size {
		phase1 = size - q.head
	}
	if src == nil {
		zero(q.buf[q.head : q.head+phase1])
	} else {
		copy(q.buf[q.head:q.head+phase1], src[:phase1])
	}
	if phase1 < n {
		phase2 := n - phase1
		if src == nil {
			zero(q.buf[0:phase2])
		} else {
			copy(q.buf[0:phase2], src[phase1:phase1+phase2])
		}
	}
	q.head = (q.head + n) % size
}

// Pull copies n bytes from the tail of the queue into dst, advancing tail by
// n. If dst is nil, the bytes are discarded.
func (q *Queue) Pull(dst []byte, n int) {
	if n == 0 || !q.IsValid() {
		return
	}
	size := len(q.buf)
	phase1 := n
	if q.tail+phase1 > size {
		phase1 = size - q.tail
	}
	if dst != nil {
		copy(dst[:phase1], q.buf[q.tail:q.tail+phase1])
	}
	if phase1 < n {
		phase2 := n - phase1
		if dst != nil {
			copy(dst[phase1:phase1+phase2], q.buf[0:phase2])
		}
	}
	q.tail = (q.tail + n) % size
}

// Compare performs a non-destructive memcmp-style equality check of the next
// n queued bytes (starting at tail, not consumed) against src. It returns
// false if src is nil.
//
// The source implementation computes the second wraparound phase's source
// pointer as pData + bytesToComparePhase2 rather than pData + phase1, which
// spec.md flags as a likely bug (see DESIGN.md Open Question 2). This
// implementation uses the corrected offset (phase1) and is pinned by
// TestCompareWrapping.
func (q *Queue) Compare(src []byte, n int) bool {
	if src == nil || n == 0 || !q.IsValid() {
		return false
	}
	if n > len(src) {
		return false
	}
	size := len(q.buf)
	phase1 := n
	if q.tail+phase1 > size {
		phase1 = size - q.tail
	}
	for i := 0; i < phase1; i++ {
		if q.buf[q.tail+i] != src[i] {
			return false
		}
	}
	if phase1 < n {
		phase2 := n - phase1
		for i := 0; i < phase2; i++ {
			if q.buf[i] != src[phase1+i] {
				return false
			}
		}
	}
	return true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
