/*
NAME
  rx.go

DESCRIPTION
  rx.go implements MapCore.Rx and MapCore.RxLost, the listener per-packet
  callbacks (spec.md S4.5 "rx()", "rx_lost(n)"): header validation against
  the configured stream, sample-width conversion when resolvable, delivery
  into the media queue with presentation-timestamp handling, and Temporal
  Redundancy save/loss-recovery.

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

import (
	"fmt"

	"github.com/ausocean/aafmap/aafpkt"
	"github.com/ausocean/aafmap/sampleconv"
)

// Rx parses one incoming AVTP+AAF frame in buf, validates it against the
// configured stream, delivers (possibly converted) samples into the media
// queue, and saves a Temporal Redundancy copy if enabled (spec.md S4.5).
func (m *MapCore) Rx(buf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized || !m.haveDirection || m.isTalker {
		return ErrNotReady
	}

	h, err := aafpkt.Decode(buf)
	if err != nil {
		m.muteOnce(err)
		return err
	}
	if int(h.PayloadLength) > len(buf)-aafpkt.HeaderSize {
		err := fmt.Errorf("aaf: advertised payload length %d exceeds frame (dataLen=%d)", h.PayloadLength, len(buf))
		m.muteOnce(err)
		return err
	}

	d := m.derived
	wantChannels := uint8(m.cfg.AudioChannels)

	needConversion := false
	var fromFmt, toFmt sampleconv.Format
	exactMatch := h.Format == d.AAFFormat && h.PayloadLength == uint16(d.PayloadSize) &&
		h.Rate == d.AAFRate && h.Channels == wantChannels &&
		h.BitDepth == uint8(d.BitDepth) && h.EventField == m.cfg.EventField

	if exactMatch {
		m.setValid()
	} else {
		fFrom, okFrom := toSampleconvFormat(h.Format)
		fTo, okTo := toSampleconvFormat(d.AAFFormat)
		resolvable := okFrom && okTo && h.Rate == d.AAFRate && h.Channels == wantChannels &&
			sampleconv.Width(fFrom) > 0 && int(wantChannels) > 0 &&
			int(h.PayloadLength)/(sampleconv.Width(fFrom)*int(wantChannels)) == d.FramesPerPacket
		if resolvable {
			needConversion = true
			fromFmt, toFmt = fFrom, fTo
			m.setValid()
		} else {
			err := fmt.Errorf("aaf: header mismatch (format=%v rate=%v channels=%d depth=%d payload=%d event=%d)",
				h.Format, h.Rate, h.Channels, h.BitDepth, h.PayloadLength, h.EventField)
			m.muteOnce(err)
			return err
		}
	}

	// Follow the remote's sparse-mode signalling on disagreement (spec.md
	// S4.5 "rx()").
	m.cfg.SparseMode = h.SP

	primary := buf[aafpkt.HeaderSize : aafpkt.HeaderSize+int(h.PayloadLength)]
	var redundant []byte
	madt := m.madtEnabled()
	if madt {
		need := 2 * int(h.PayloadLength)
		if len(buf)-aafpkt.HeaderSize < need {
			// MADT starvation: disable for the remainder of the stream; the
			// primary copy still flows (spec.md S7).
			m.derived.MADTEnabled = false
			madt = false
			m.logger.Warning("aaf: frame too small for MADT redundant copy, disabling temporal redundancy")
		} else {
			redundant = buf[aafpkt.HeaderSize+int(h.PayloadLength) : aafpkt.HeaderSize+2*int(h.PayloadLength)]
		}
	}

	deliver := primary
	if needConversion {
		out := make([]byte, sampleconv.OutLen(toFmt, int(wantChannels), d.FramesPerPacket))
		n, err := sampleconv.Convert(out, primary, fromFmt, toFmt, int(wantChannels))
		if err != nil {
			m.muteOnce(err)
			return err
		}
		deliver = out[:n]
	}
	if m.cfg.RxTranslateCB != nil {
		// spec.md S6: "an optional intf_rx_translate_cb applied to each
		// received payload before delivery".
		deliver = m.cfg.RxTranslateCB(deliver)
	}

	m.deliver(deliver, h)

	if madt && redundant != nil {
		m.rxEngine.RxDecode(redundant, h.Format)
		m.reportIfDue(m.rxEngine)
	}
	return nil
}

// deliver appends payload to the media queue's current head item, handling
// first-bytes timestamp sync and pushing the item once full (spec.md S4.5
// "Timestamp handling on receive").
func (m *MapCore) deliver(payload []byte, h aafpkt.Header) {
	item := m.queue.HeadLock()
	if item == nil {
		m.rateLimitedLog("aaf: media queue full, dropping frame")
		return
	}

	if item.DataLen() == 0 {
		t := item.Time()
		if h.TV {
			t.SetToTimestamp(h.Timestamp)
			t.SubUSec(int64(m.cfg.PresentationLatencyUSec))
			t.SetTimestampValid(true)
			t.SetTimestampUncertain(h.TU)
			m.mediaQItemSyncTS = true
		} else {
			t.SetTimestampValid(false)
			if !m.mediaQItemSyncTS {
				// Drop the item until the first valid timestamp is seen
				// (spec.md S4.5).
				m.queue.HeadUnlock()
				return
			}
		}
	}

	data := item.Data()
	dl := item.DataLen()
	n := copy(data[dl:], payload)
	item.SetDataLen(dl + n)
	if item.DataLen() >= item.ItemSize() {
		m.queue.HeadPush()
	} else {
		m.queue.HeadUnlock()
	}
}

// RxLost runs the Temporal Redundancy loss-recovery path for n consecutively
// lost packets, delivering recovered (or synthesised) payloads into the
// media queue with an invalid timestamp (spec.md S4.4 "Listener loss path").
// It is a no-op if Temporal Redundancy is not enabled.
func (m *MapCore) RxLost(n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.madtEnabled() || m.rxEngine == nil {
		return nil
	}

	recs := m.rxEngine.RxLost(n, m.derived.AAFFormat, int(m.cfg.AudioChannels))
	for _, r := range recs {
		item := m.queue.HeadLock()
		if item == nil {
			m.rateLimitedLog("aaf: media queue full, dropping recovered frame")
			continue
		}
		// The AVTP timestamp for a lost packet is unknown (spec.md S4.4).
		item.Time().SetTimestampValid(false)

		data := item.Data()
		dl := item.DataLen()
		nCopy := copy(data[dl:], r.Data)
		item.SetDataLen(dl + nCopy)
		if item.DataLen() >= item.ItemSize() {
			m.queue.HeadPush()
		} else {
			m.queue.HeadUnlock()
		}
	}
	m.reportIfDue(m.rxEngine)
	return nil
}

func toSampleconvFormat(f aafpkt.Format) (sampleconv.Format, bool) {
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
