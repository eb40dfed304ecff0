/*
NAME
  aaf.go

DESCRIPTION
  aaf implements MapCore, the IEEE 1722-2016 Clause 7 AAF (AVTP Audio
  Format) mapping core (spec.md S4.5): the talker/listener lifecycle and
  per-packet callback set that a pipeline invokes (gen_init, tx_init, tx,
  rx_init, rx, rx_lost, end, gen_end). MapCore owns an aafconfig.Config, the
  derived sizes it computes, and (when Temporal Redundancy is enabled) a
  redundancy.Engine, and drives an external mediaqueue.Queue/AVTPTime pair
  through the contracts in the mediaqueue package.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aaf implements the IEEE 1722-2016 Clause 7 AAF mapping core:
// MapCore, the talker/listener lifecycle and callback set that a pipeline
// invokes to slice queued audio into AVTP packets (talker) or parse incoming
// AVTP packets into the media queue (listener).
package aaf

import (
	"errors"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/aafmap/aafconfig"
	"github.com/ausocean/aafmap/aafpkt"
	"github.com/ausocean/aafmap/mediaqueue"
	"github.com/ausocean/aafmap/redundancy"
)

// Sentinel errors. ErrNotReady is the transient, retry-on-next-interval
// result; the other two report lifecycle misuse.
var (
	// ErrNotReady is returned by Tx when there is not yet enough queued
	// audio, or by Rx/Tx when MapCore has not been initialised for the
	// calling direction; the caller retries on the next interval.
	ErrNotReady = errors.New("aaf: not ready")

	// errNotInitialized is returned by TxInit/RxInit when GenInit has not
	// been called, or has failed (Tx/Rx return ErrNotReady in that case).
	errNotInitialized = errors.New("aaf: GenInit not called or failed")

	// errDirectionConflict is returned when TxInit and RxInit are both
	// called on the same MapCore (spec.md S3: "isTalker ... mutually
	// exclusive after first-touch").
	errDirectionConflict = errors.New("aaf: talker/listener direction already set")
)

// dropLogInterval rate-limits "queue full" logging on the receive path
// (spec.md S7 "Queue full on receive": "drop the frame with rate-limited
// logging").
const dropLogInterval = time.Second

// MapCore is the per-stream AAF mapping state (spec.md S3 "Mutable state").
// A MapCore is used for exactly one direction (talker xor listener) for its
// whole lifetime; which direction is fixed by the first of TxInit/RxInit to
// be called.
type MapCore struct {
	logger logging.Logger

	mu          sync.Mutex
	initialized bool
	isTalker    bool
	haveDirection bool

	cfg     aafconfig.Config
	derived aafconfig.Derived

	queue mediaqueue.Queue

	// dataValid mirrors the listener's last-known validity of the incoming
	// stream.
	dataValid bool

	// mediaQItemSyncTS records whether the media queue is currently aligned
	// to timestamped packets (spec.md S3).
	mediaQItemSyncTS bool

	// intervalCounter is reserved for a future pacing hook; the source
	// declares and zeroes it but never increments it (spec.md S9 Open
	// Question 3), and this implementation preserves that behaviour exactly.
	intervalCounter int

	txSeq byte

	txEngine *redundancy.Engine
	rxEngine *redundancy.Engine

	lastDropLog time.Time
}

// New returns a MapCore that logs through l.
func New(l logging.Logger) *MapCore {
	return &MapCore{logger: l}
}

// Subtype returns the AVTP subtype this mapping implements (spec.md S4.5).
func (m *MapCore) Subtype() byte { return aafpkt.SubtypeAAF }

// AVTPVersion returns the AVTP version this mapping implements.
func (m *MapCore) AVTPVersion() byte { return aafpkt.AVTPVersion }

// TransmitInterval returns the configured talker packets/second.
func (m *MapCore) TransmitInterval() int { return m.cfg.TxInterval }

// MaxDataSize returns the largest frame this MapCore will produce or accept,
// including the 24-byte header (spec.md S4.5).
func (m *MapCore) MaxDataSize() int {
	if m.isTalker {
		return m.derived.PayloadSizeMaxTalker + aafpkt.HeaderSize
	}
	return m.derived.PayloadSizeMaxListener + aafpkt.HeaderSize
}

// GenInit computes derived sizes from cfg, sizes q to the derived item
// count/size, and sets dataValid (spec.md S4.5). It rejects configuration
// errors (bad rate/bit-depth, non-aligned MADT offset, bad packing factor)
// by returning aafconfig.Config.Validate's error without allocating
// anything (spec.md S7: mapping enters an inert state).
func (m *MapCore) GenInit(cfg aafconfig.Config, q mediaqueue.Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg.Logger = m.logger
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.cfg = cfg
	m.derived = cfg.Derived()
	m.queue = q
	q.SetSize(cfg.ItemCount, m.derived.ItemSize)
	q.SetMaxLatency(cfg.PresentationLatencyUSec)

	m.dataValid = true
	m.mediaQItemSyncTS = false
	m.initialized = true
	m.haveDirection = false
	m.txSeq = 0
	return nil
}

// TxInit fixes this MapCore's direction as talker and, if Temporal
// Redundancy is enabled, allocates the talker-side delay line prefilled
// with offsetPackets*payloadSize zero bytes (spec.md S4.5, S3 invariant).
//
// Allocation of the direction-specific Temporal Redundancy state happens
// here (and in RxInit) rather than in GenInit: spec.md S4.5 describes
// gen_init as allocating "the MADT queues" in the abstract, but the queues'
// shape differs by direction (the listener additionally needs the
// entry-type queue), and direction is unknown until the first of
// TxInit/RxInit runs. This is recorded as a deliberate reading in
// DESIGN.md.
func (m *MapCore) TxInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return errNotInitialized
	}
	if m.haveDirection && !m.isTalker {
		return errDirectionConflict
	}
	m.isTalker = true
	m.haveDirection = true
	if m.derived.MADTEnabled {
		m.txEngine = redundancy.NewTalker(m.derived.PayloadSize, m.derived.TemporalRedundantOffsetPackets)
	}
	return nil
}

// RxInit fixes this MapCore's direction as listener and allocates
// listener-side Temporal Redundancy state prefilled with Unspec entries.
// The packing-factor/sparse-mode constraint spec.md S4.5 lists as an
// rx_init responsibility was already enforced once by GenInit's call to
// Config.Validate; Config is immutable between GenInit and RxInit, so there
// is nothing left to recheck here.
func (m *MapCore) RxInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return errNotInitialized
	}
	if m.haveDirection && m.isTalker {
		return errDirectionConflict
	}
	m.isTalker = false
	m.haveDirection = true
	if m.derived.MADTEnabled {
		reportInterval := time.Duration(m.cfg.ReportSeconds) * time.Second
		m.rxEngine = redundancy.NewListener(m.derived.PayloadSize, m.derived.TemporalRedundantOffsetPackets, reportInterval)
	}
	return nil
}

// End closes the Media Clock Recovery HAL. The HAL is an out-of-scope
// collaborator referenced only by contract (spec.md S1); this MapCore holds
// no concrete handle to close, so End is a no-op placeholder for callers
// that wire a real HAL in front of it.
func (m *MapCore) End() error {
	return nil
}

// GenEnd frees both Temporal Redundancy queues (spec.md S4.5).
func (m *MapCore) GenEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txEngine != nil {
		m.txEngine.Close()
		m.txEngine = nil
	}
	if m.rxEngine != nil {
		m.rxEngine.Close()
		m.rxEngine = nil
	}
	m.initialized = false
	m.haveDirection = false
}

func (m *MapCore) madtEnabled() bool { return m.derived.MADTEnabled }

// muteOnce transitions dataValid to false, logging once on the transition
// (spec.md S7: "log once on the transition").
func (m *MapCore) muteOnce(err error) {
	if m.dataValid {
		m.logger.Warning("aaf: stream invalid, muting", "error", err)
	}
	m.dataValid = false
}

// setValid transitions dataValid to true, logging once on the transition
// (spec.md S7: "restore on the first subsequent valid frame").
func (m *MapCore) setValid() {
	if !m.dataValid {
		m.logger.Info("aaf: stream valid again")
	}
	m.dataValid = true
}

// rateLimitedLog logs msg at Warning level, but at most once per
// dropLogInterval (spec.md S7 "Queue full on receive").
func (m *MapCore) rateLimitedLog(msg string) {
	now := time.Now()
	if !m.lastDropLog.IsZero() && now.Sub(m.lastDropLog) < dropLogInterval {
		return
	}
	m.lastDropLog = now
	m.logger.Warning(msg)
}

func (m *MapCore) reportIfDue(e *redundancy.Engine) {
	s, ok := e.MaybeReport(time.Now())
	if !ok {
		return
	}
	m.logger.Info("aaf: temporal redundancy stats",
		"totalFrames", s.TotalFrames, "lostFrames", s.LostFrames,
		"neededAvailable", s.NeededAvailable, "neededNotAvailable", s.NeededNotAvailable)
}
