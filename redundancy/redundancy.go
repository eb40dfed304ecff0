/*
NAME
  redundancy.go

DESCRIPTION
  redundancy implements the Temporal Redundancy engine (IEEE 1722-2016
  Clause 7.5, spec.md S4.4): on the talker side, duplicating each outgoing
  payload and delaying the duplicate by a configured number of packets
  (MADT, Max Allowed Dropout Time) inside the same enlarged AVTP frame; on
  the listener side, saving a delayed copy of each received redundant
  payload and synthesising substitute samples on loss.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package redundancy implements MADT-delayed Temporal Redundancy for AAF
// streams: send-side duplication and delay, and receive-side loss recovery.
package redundancy

import (
	"time"

	"github.com/ausocean/aafmap/aafpkt"
	"github.com/ausocean/aafmap/ring"
	"github.com/ausocean/aafmap/sampleconv"
)

// Engine wraps the raw-byte delay line (dataQueue) and, for listener use,
// the parallel entry-type queue (typeQueue) that records the AAF format of
// each saved redundant block, or aafpkt.FormatUnspec if the entry was
// itself synthesised because of a gap (spec.md S3 "Mutable state").
type Engine struct {
	payloadSize   int // Bytes of one packet's worth of audio.
	frameSize     int // Uniform queue stride; both constructors set it to payloadSize, so no padding is pushed.
	offsetPackets int // MADT expressed in packets.

	dataQueue *ring.Queue
	typeQueue *ring.Queue // Listener only; nil for a talker engine.

	Stats Stats

	reportInterval time.Duration
	nextReportAt   time.Time
}

// Stats holds the four MADT counters from spec.md S3/S4.4.
type Stats struct {
	TotalFrames       int
	LostFrames        int
	NeededAvailable   int
	NeededNotAvailable int
}

// NewTalker returns an Engine configured for the talker path, with its
// delay line prefilled with offsetPackets*frameSize zero bytes (spec.md S3
// invariant: "MADT queues are prefilled with offsetPackets x frameSize
// zero bytes at startup").
func NewTalker(payloadSize, offsetPackets int) *Engine {
	e := &Engine{
		payloadSize:   payloadSize,
		frameSize:     payloadSize,
		offsetPackets: offsetPackets,
		dataQueue:     ring.New((offsetPackets + 1) * payloadSize),
	}
	e.dataQueue.Push(nil, offsetPackets*payloadSize)
	return e
}

// NewListener returns an Engine configured for the listener path, with both
// queues prefilled: the data queue with offsetPackets*frameSize zero bytes,
// and the type queue with offsetPackets Unspec entries (spec.md S4.5
// "rx_init ... allocates listener-side MADT state (prefilled with Unspec
// entries)").
func NewListener(payloadSize, offsetPackets int, reportInterval time.Duration) *Engine {
	e := &Engine{
		payloadSize:    payloadSize,
		frameSize:      payloadSize,
		offsetPackets:  offsetPackets,
		dataQueue:      ring.New((offsetPackets + 1) * payloadSize),
		typeQueue:      ring.New(offsetPackets + 1),
		reportInterval: reportInterval,
	}
	e.dataQueue.Push(nil, offsetPackets*payloadSize)
	for i := 0; i < offsetPackets; i++ {
		e.typeQueue.Push([]byte{byte(aafpkt.FormatUnspec)}, 1)
	}
	return e
}

// Close releases both queues (spec.md S4.5 gen_end).
func (e *Engine) Close() {
	e.dataQueue.Free()
	if e.typeQueue != nil {
		e.typeQueue.Free()
	}
}

// TxEncode implements the talker path (spec.md S4.4): dst must be a
// 2*payloadSize buffer. The first half receives the delayed (primary)
// payload; the second half receives fresh, unmodified (the redundant
// payload transmitted immediately).
func (e *Engine) TxEncode(dst []byte, fresh []byte) {
	copy(dst[e.payloadSize:2*e.payloadSize], fresh)

	e.dataQueue.Push(fresh, e.payloadSize)
	if e.frameSize > e.payloadSize {
		e.dataQueue.Push(nil, e.frameSize-e.payloadSize)
	}
	e.dataQueue.Pull(dst[:e.payloadSize], e.payloadSize)
	if e.frameSize > e.payloadSize {
		e.dataQueue.Pull(nil, e.frameSize-e.payloadSize)
	}
}

// RxDecode implements the listener per-packet save path (spec.md S4.4):
// the redundant payload is saved into the delay line tagged with format,
// and the oldest saved entry is pulled out and discarded (the primary
// payload just received already covers it). The discarded entry's stored
// format and data are returned purely for diagnostics; callers are not
// required to use them.
func (e *Engine) RxDecode(redundant []byte, format aafpkt.Format) (discardedFormat aafpkt.Format, discardedData []byte) {
	e.typeQueue.Push([]byte{byte(format)}, 1)
	e.dataQueue.Push(redundant, e.payloadSize)
	if e.frameSize > e.payloadSize {
		e.dataQueue.Push(nil, e.frameSize-e.payloadSize)
	}

	typeBuf := make([]byte, 1)
	e.typeQueue.Pull(typeBuf, 1)
	dataBuf := make([]byte, e.frameSize)
	e.dataQueue.Pull(dataBuf, e.frameSize)

	e.Stats.TotalFrames++
	return aafpkt.Format(typeBuf[0]), dataBuf[:e.payloadSize]
}

// Recovered is one loss-recovered payload, ready to append to the media
// queue's head item.
type Recovered struct {
	Data          []byte
	ValidRedundant bool // false if synthesised (no redundant copy was available).
}

// RxLost implements the listener loss-recovery path (spec.md S4.4): for
// each of n lost packets, pulls one saved entry from the delay line. An
// Unspec entry (itself a gap) yields payloadSize zero bytes. Otherwise the
// stored block is used, converted via sampleconv if its format differs
// from configuredFormat (both must be integer formats); mismatched
// conversions that the configured format cannot express are returned
// unconverted, matching the source's behaviour of comparing only against
// the currently configured format and never against the arriving primary
// packet's own format (spec.md S9 Open Question: "preserve this behaviour
// as specified; do not guess intent").
//
// After each pull, a fresh Unspec entry with a zero-filled frame is pushed
// so the delay line keeps its configured depth.
func (e *Engine) RxLost(n int, configuredFormat aafpkt.Format, channels int) []Recovered {
	out := make([]Recovered, 0, n)
	for i := 0; i < n; i++ {
		typeBuf := make([]byte, 1)
		e.typeQueue.Pull(typeBuf, 1)
		dataBuf := make([]byte, e.frameSize)
		e.dataQueue.Pull(dataBuf, e.frameSize)
		storedFormat := aafpkt.Format(typeBuf[0])

		e.Stats.TotalFrames++
		e.Stats.LostFrames++

		var rec Recovered
		switch {
		case storedFormat == aafpkt.FormatUnspec:
			rec = Recovered{Data: make([]byte, e.payloadSize), ValidRedundant: false}
			e.Stats.NeededNotAvailable++
		case storedFormat == configuredFormat:
			rec = Recovered{Data: append([]byte(nil), dataBuf[:e.payloadSize]...), ValidRedundant: true}
			e.Stats.NeededAvailable++
		default:
			from, fOK := toConvFormat(storedFormat)
			to, tOK := toConvFormat(configuredFormat)
			if fOK && tOK {
				converted := make([]byte, sampleconv.OutLen(to, channels, e.payloadSize/(sampleconv.Width(from)*max(channels, 1))))
				n, err := sampleconv.Convert(converted, dataBuf[:e.payloadSize], from, to, channels)
				if err == nil {
					rec = Recovered{Data: converted[:n], ValidRedundant: true}
				} else {
					rec = Recovered{Data: append([]byte(nil), dataBuf[:e.payloadSize]...), ValidRedundant: true}
				}
			} else {
				rec = Recovered{Data: append([]byte(nil), dataBuf[:e.payloadSize]...), ValidRedundant: true}
			}
			e.Stats.NeededAvailable++
		}
		out = append(out, rec)

		e.typeQueue.Push([]byte{byte(aafpkt.FormatUnspec)}, 1)
		e.dataQueue.Push(nil, e.frameSize)
	}
	return out
}

// MaybeReport returns the current Stats and resets them if the configured
// report interval has elapsed. Deadline arithmetic re-bases on now when a
// deadline has been overshot, rather than firing repeatedly to "catch up"
// (spec.md S4.4 "Reporting").
func (e *Engine) MaybeReport(now time.Time) (Stats, bool) {
	if e.reportInterval <= 0 {
		return Stats{}, false
	}
	if e.nextReportAt.IsZero() {
		e.nextReportAt = now.Add(e.reportInterval)
		return Stats{}, false
	}
	if now.Before(e.nextReportAt) {
		return Stats{}, false
	}
	s := e.Stats
	e.Stats = Stats{}
	e.nextReportAt = now.Add(e.reportInterval)
	return s, true
}

func toConvFormat(f aafpkt.Format) (sampleconv.Format, bool) {
	switch f {
	case aafpkt.FormatInt16:
		return sampleconv.Int16, true
	case aafpkt.FormatInt24:
		return sampleconv.Int24, true
	case aafpkt.FormatInt32:
		return sampleconv.Int32, true
	default:
		return 0, false
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
