/*
NAME
  mediaqueue.go

DESCRIPTION
  mediaqueue declares the external media-queue and AVTP-time contracts that
  MapCore is built against (spec.md S1 "OUT OF SCOPE", S6 "Media queue
  contract" / "AVTP time contract"). The concrete queue implementation (a
  platform-neutral FIFO of fixed-size items with head/tail locking) and the
  concrete AVTP time representation live outside this module; MapCore only
  ever depends on these interfaces, the same way device.AVDevice in the
  teacher package specifies capture devices purely as an interface.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mediaqueue declares the contracts for the external media queue and
// AVTP time abstraction that the AAF mapping core is built against, plus a
// small in-memory reference implementation for tests.
package mediaqueue

// Queue is the contract for the external media-queue container: an SPSC FIFO
// of fixed-size items with separate head (writer) and tail (reader) locks
// (spec.md S6).
type Queue interface {
	// SetSize sizes the queue to count items of itemBytes bytes each.
	SetSize(count, itemBytes int)

	// SetMaxLatency configures the presentation latency budget in
	// microseconds.
	SetMaxLatency(usec int)

	// IsAvailableBytes reports whether at least n bytes are available to
	// read from the tail, optionally blocking (wait) until they are.
	IsAvailableBytes(n int, wait bool) bool

	// HeadLock locks and returns the head (write) item, or nil if none is
	// available.
	HeadLock() Item

	// HeadPush commits the locked head item, advancing the queue so a new
	// head item can be acquired.
	HeadPush()

	// HeadUnlock releases the head lock without committing the item.
	HeadUnlock()

	// TailLock locks and returns the tail (read) item, optionally blocking
	// (wait) until one is available; returns nil if none is available.
	TailLock(wait bool) Item

	// TailPull releases the locked tail item back to the pool for reuse.
	TailPull()

	// TailUnlock releases the tail lock without pulling the item.
	TailUnlock()
}

// Item is a single fixed-size media-queue slot (spec.md S6).
type Item interface {
	// Data returns the item's backing buffer, of length ItemSize.
	Data() []byte

	// DataLen returns the writer's cursor: the number of bytes written so
	// far.
	DataLen() int

	// SetDataLen sets the writer's cursor.
	SetDataLen(int)

	// ReadIdx returns the reader's cursor.
	ReadIdx() int

	// SetReadIdx sets the reader's cursor.
	SetReadIdx(int)

	// ItemSize returns the item's total capacity in bytes.
	ItemSize() int

	// Time returns the item's associated AVTP time.
	Time() AVTPTime
}

// AVTPTime is the contract for the external AVTP time abstraction (spec.md
// S6): get/set/add/subtract microseconds on a presentation timestamp.
type AVTPTime interface {
	TimestampIsValid() bool
	SetTimestampValid(bool)
	TimestampIsUncertain() bool
	SetTimestampUncertain(bool)
	AddUSec(usec int64)
	SubUSec(usec int64)
	GetAvtpTimestamp() uint32
	SetToTimestamp(uint32)
}
