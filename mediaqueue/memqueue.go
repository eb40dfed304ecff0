/*
NAME
  memqueue.go

DESCRIPTION
  memqueue provides MemQueue, a minimal in-memory implementation of Queue
  used only by this module's own tests and by cmd/aafmapd's demonstration
  wiring. It is not part of the specified external contract; production
  callers supply their own media-queue implementation.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mediaqueue

import "sync"

// MemQueue is a simple slice-backed ring of fixed-size items implementing
// Queue, sufficient for single goroutine test use. It is not safe to share
// a locked item across goroutines without external synchronisation beyond
// what the mutex here provides around slot bookkeeping.
type MemQueue struct {
	mu    sync.Mutex
	items []*memItem
	head  int // Index of the next item to be filled.
	tail  int // Index of the next item to be read.
	count int // Number of items currently queued (tail..head).
}

// NewMemQueue returns a MemQueue with no items; call SetSize before use.
func NewMemQueue() *MemQueue { return &MemQueue{} }

func (q *MemQueue) SetSize(count, itemBytes int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]*memItem, count)
	for i := range q.items {
		q.items[i] = &memItem{buf: make([]byte, itemBytes), time: &memTime{}}
	}
	q.head, q.tail, q.count = 0, 0, 0
}

func (q *MemQueue) SetMaxLatency(usec int) {}

func (q *MemQueue) IsAvailableBytes(n int, wait bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return false
	}
	it := q.items[q.tail]
	return it.dataLen-it.readIdx >= n
}

func (q *MemQueue) HeadLock() Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || q.count == len(q.items) {
		return nil
	}
	return q.items[q.head]
}

func (q *MemQueue) HeadPush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return
	}
	q.head = (q.head + 1) % len(q.items)
	q.count++
}

func (q *MemQueue) HeadUnlock() {}

func (q *MemQueue) TailLock(wait bool) Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return nil
	}
	return q.items[q.tail]
}

func (q *MemQueue) TailPull() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return
	}
	it := q.items[q.tail]
	it.dataLen = 0
	it.readIdx = 0
	it.time.valid = false
	it.time.uncertain = false
	it.time.ts = 0
	q.tail = (q.tail + 1) % len(q.items)
	q.count--
}

func (q *MemQueue) TailUnlock() {}

type memItem struct {
	buf     []byte
	dataLen int
	readIdx int
	time    *memTime
}

func (it *memItem) Data() []byte    { return it.buf }
func (it *memItem) DataLen() int    { return it.dataLen }
func (it *memItem) SetDataLen(n int) { it.dataLen = n }
func (it *memItem) ReadIdx() int    { return it.readIdx }
func (it *memItem) SetReadIdx(n int) { it.readIdx = n }
func (it *memItem) ItemSize() int   { return len(it.buf) }
func (it *memItem) Time() AVTPTime  { return it.time }

type memTime struct {
	valid     bool
	uncertain bool
	ts        uint32
}

func (t *memTime) TimestampIsValid() bool          { return t.valid }
func (t *memTime) SetTimestampValid(v bool)        { t.valid = v }
func (t *memTime) TimestampIsUncertain() bool      { return t.uncertain }
func (t *memTime) SetTimestampUncertain(v bool)    { t.uncertain = v }
func (t *memTime) AddUSec(usec int64)              { t.ts += uint32(usec) }
func (t *memTime) SubUSec(usec int64)              { t.ts -= uint32(usec) }
func (t *memTime) GetAvtpTimestamp() uint32         { return t.ts }
func (t *memTime) SetToTimestamp(ts uint32)         { t.ts = ts }
