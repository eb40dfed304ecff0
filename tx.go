/*
NAME
  tx.go

DESCRIPTION
  tx.go implements MapCore.Tx, the talker per-packet callback (spec.md
  S4.5 "tx()"): draining queued audio into one AVTP+AAF frame, handling
  sparse-mode timestamp cadence, and (when enabled) invoking the Temporal
  Redundancy engine's talker path.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package aaf

import "github.com/ausocean/aafmap/aafpkt"

// Tx produces one outgoing AVTP+AAF frame into buf and returns its length.
// It returns ErrNotReady without mutating any state if there is not yet a
// full packet's worth of queued audio, or if buf is too small (spec.md S4.5
// "tx()", S7 "Transient send-side shortages").
func (m *MapCore) Tx(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized || !m.haveDirection || !m.isTalker {
		return 0, ErrNotReady
	}

	d := m.derived
	need := d.PayloadSize + aafpkt.HeaderSize
	if m.madtEnabled() {
		need = 2*d.PayloadSize + aafpkt.HeaderSize
	}
	if len(buf) < need {
		return 0, ErrNotReady
	}
	if !m.queue.IsAvailableBytes(d.PayloadSize, false) {
		return 0, ErrNotReady
	}

	item := m.queue.TailLock(false)
	if item == nil {
		return 0, ErrNotReady
	}
	readIdx := item.ReadIdx()
	if item.DataLen()-readIdx < d.PayloadSize {
		m.queue.TailUnlock()
		return 0, ErrNotReady
	}
	payload := item.Data()[readIdx : readIdx+d.PayloadSize]
	itemTime := item.Time()

	seq := m.txSeq
	m.txSeq++

	var h aafpkt.Header
	h.Sequence = seq
	h.Format = m.derived.AAFFormat
	h.Rate = m.derived.AAFRate
	h.Channels = uint8(m.cfg.AudioChannels)
	h.BitDepth = uint8(m.derived.BitDepth)
	h.PayloadLength = uint16(d.PayloadSize)
	h.EventField = m.cfg.EventField
	h.SP = m.cfg.SparseMode

	switch {
	case m.cfg.SparseMode && seq%8 != 0:
		// Sparse cadence: only every eighth packet carries a valid
		// timestamp (spec.md S3, S8 property 6).
		h.TV, h.TU, h.Timestamp = false, false, 0
	case itemTime.TimestampIsValid():
		itemTime.AddUSec(int64(m.cfg.MaxTransitUsec))
		if m.madtEnabled() {
			itemTime.AddUSec(int64(m.cfg.TemporalRedundantOffsetUsec))
		}
		h.TV = true
		h.TU = itemTime.TimestampIsUncertain()
		h.Timestamp = itemTime.GetAvtpTimestamp()
	default:
		h.TV, h.TU, h.Timestamp = false, false, 0
	}

	h.Encode(buf)

	total := d.PayloadSize + aafpkt.HeaderSize
	if m.madtEnabled() {
		fresh := make([]byte, d.PayloadSize)
		copy(fresh, payload)
		m.txEngine.TxEncode(buf[aafpkt.HeaderSize:aafpkt.HeaderSize+2*d.PayloadSize], fresh)
		total = 2*d.PayloadSize + aafpkt.HeaderSize
	} else {
		copy(buf[aafpkt.HeaderSize:aafpkt.HeaderSize+d.PayloadSize], payload)
	}

	readIdx += d.PayloadSize
	item.SetReadIdx(readIdx)
	if readIdx >= item.DataLen() {
		m.queue.TailPull()
	} else {
		m.queue.TailUnlock()
	}

	return total, nil
}
