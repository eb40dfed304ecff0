/*
NAME
  aafconfig.go

DESCRIPTION
  aafconfig holds the stream configuration for an AAF mapping (spec.md S3
  "Stream configuration") and derives the sizes MapCore needs from it
  (spec.md S3 "Derived sizes"). Config.Update applies INI-style key=value
  pairs (spec.md S6); Config.Validate computes and validates derived sizes,
  entering the inert state described in spec.md S7 on failure.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aafconfig provides the configuration and derived-size computation
// for an AAF mapping stream.
package aafconfig

import (
	"github.com/ausocean/utils/logging"
	pkgerrors "github.com/pkg/errors"

	"github.com/ausocean/aafmap/aafpkt"
)

// AudioType distinguishes integer from floating point source audio; only
// Int is supported end to end (spec.md S1 Non-goals excludes float-to-
// integer conversion on receive).
type AudioType int

const (
	AudioTypeInt AudioType = iota
	AudioTypeFloat
)

// MCRMode is the opaque Media Clock Recovery mode, forwarded to the HAL
// without interpretation (spec.md S3).
type MCRMode int

const (
	MCRDisabled MCRMode = iota
	MCREnabled
)

// Config holds the immutable-after-GenInit stream configuration (spec.md
// S3) plus the audio format parameters needed to derive sizes.
type Config struct {
	// Media queue sizing.
	ItemCount     int // Number of media-queue slots.
	PackingFactor int // Packets' worth of audio aggregated per queue item.

	// Talker pacing.
	TxInterval int // Talker packets/second.

	// Sparse timestamp signalling.
	SparseMode bool

	// Media Clock Recovery.
	AudioMCR             MCRMode
	MCRTimestampInterval int
	MCRRecoveryInterval  int

	// Temporal Redundancy (MADT). 0 disables.
	TemporalRedundantOffsetUsec int

	// Misc.
	ReportSeconds  int
	MaxTransitUsec int

	// Audio format.
	AudioRate     uint // Hz.
	AudioType     AudioType
	AudioBitDepth uint // 16, 24, or 32.
	AudioChannels uint

	// PresentationLatencyUSec is subtracted from a received header
	// timestamp to obtain the item's local AVTP time (spec.md S4.5).
	PresentationLatencyUSec int

	// EventField is the AAF event-field value MapCore writes on transmit and
	// compares against on receive. Defaults to AAFStaticChannelsLayout (0);
	// automotive layouts are passed through transparently (spec.md S4.5).
	EventField byte

	// RxTranslateCB, if non-nil, is applied to each received (and possibly
	// sample-converted) payload before it is appended to the media queue
	// (spec.md S6 "intf_rx_translate_cb").
	RxTranslateCB func([]byte) []byte

	Logger logging.Logger

	derived derived
}

// derived holds the sizes computed by Validate from the fields above
// (spec.md S3 "Derived sizes").
type derived struct {
	aafRate   aafpkt.Rate
	aafFormat aafpkt.Format
	bitDepth  int

	framesPerPacket       int
	framesPerItem         int
	itemSampleSizeBytes   int
	packetSampleSizeBytes int
	packetFrameSizeBytes  int
	itemFrameSizeBytes    int
	payloadSize           int
	payloadSizeMaxTalker  int
	payloadSizeMaxListener int
	itemSize              int

	temporalRedundantOffsetSamples int
	temporalRedundantOffsetPackets int
	madtEnabled                    bool
}

// Derived returns the most recently computed derived sizes. Call Validate
// first; the zero value is returned otherwise.
func (c *Config) Derived() Derived {
	return Derived{
		AAFRate:                        c.derived.aafRate,
		AAFFormat:                      c.derived.aafFormat,
		BitDepth:                       c.derived.bitDepth,
		FramesPerPacket:                c.derived.framesPerPacket,
		FramesPerItem:                  c.derived.framesPerItem,
		ItemSampleSizeBytes:            c.derived.itemSampleSizeBytes,
		PacketSampleSizeBytes:          c.derived.packetSampleSizeBytes,
		PacketFrameSizeBytes:           c.derived.packetFrameSizeBytes,
		ItemFrameSizeBytes:             c.derived.itemFrameSizeBytes,
		PayloadSize:                    c.derived.payloadSize,
		PayloadSizeMaxTalker:           c.derived.payloadSizeMaxTalker,
		PayloadSizeMaxListener:         c.derived.payloadSizeMaxListener,
		ItemSize:                       c.derived.itemSize,
		TemporalRedundantOffsetSamples: c.derived.temporalRedundantOffsetSamples,
		TemporalRedundantOffsetPackets: c.derived.temporalRedundantOffsetPackets,
		MADTEnabled:                    c.derived.madtEnabled,
	}
}

// PublicInfo returns the subset of Config/Derived exposed to external
// interfaces (spec.md S6 "Public info struct exposed to interfaces").
func (c *Config) PublicInfo() PublicInfo {
	return PublicInfo{
		AudioRate:               c.AudioRate,
		AudioType:               c.AudioType,
		AudioBitDepth:           c.AudioBitDepth,
		AudioChannels:           c.AudioChannels,
		ItemSampleSizeBytes:     c.derived.itemSampleSizeBytes,
		PacketSampleSizeBytes:   c.derived.packetSampleSizeBytes,
		PacketFrameSizeBytes:    c.derived.packetFrameSizeBytes,
		FramesPerPacket:         c.derived.framesPerPacket,
		FramesPerItem:           c.derived.framesPerItem,
		ItemFrameSizeBytes:      c.derived.itemFrameSizeBytes,
		ItemSize:                c.derived.itemSize,
		PackingFactor:           c.PackingFactor,
		PresentationLatencyUSec: c.PresentationLatencyUSec,
		RxTranslateCB:           c.RxTranslateCB,
	}
}

// PublicInfo mirrors spec.md S6's "Public info struct exposed to
// interfaces": the audio format parameters and derived sizes an external
// caller (e.g. a DLL registration shim) may want to read without depending
// on Config's unexported derived-size cache, plus the optional receive-side
// translate hook.
type PublicInfo struct {
	AudioRate     uint
	AudioType     AudioType
	AudioBitDepth uint
	AudioChannels uint

	ItemSampleSizeBytes   int
	PacketSampleSizeBytes int
	PacketFrameSizeBytes  int
	FramesPerPacket       int
	FramesPerItem         int
	ItemFrameSizeBytes    int
	ItemSize              int
	PackingFactor         int

	PresentationLatencyUSec int

	// RxTranslateCB, if non-nil, is applied to each received payload before
	// delivery into the media queue (spec.md S6: "an optional
	// intf_rx_translate_cb applied to each received payload before
	// delivery").
	RxTranslateCB func([]byte) []byte
}

// Derived is the exported, read-only view of the sizes computed by
// Validate.
type Derived struct {
	AAFRate   aafpkt.Rate
	AAFFormat aafpkt.Format
	BitDepth  int

	FramesPerPacket        int
	FramesPerItem          int
	ItemSampleSizeBytes    int
	PacketSampleSizeBytes  int
	PacketFrameSizeBytes   int
	ItemFrameSizeBytes     int
	PayloadSize            int
	PayloadSizeMaxTalker   int
	PayloadSizeMaxListener int
	ItemSize               int

	TemporalRedundantOffsetSamples int
	TemporalRedundantOffsetPackets int
	MADTEnabled                    bool
}

// rateFor maps an audio rate in Hz to the enumerated aafpkt.Rate, or
// aafpkt.RateUnspec if unsupported.
func rateFor(hz uint) aafpkt.Rate {
	switch hz {
	case 8000:
		return aafpkt.Rate8k
	case 16000:
		return aafpkt.Rate16k
	case 24000:
		return aafpkt.Rate24k
	case 32000:
		return aafpkt.Rate32k
	case 44100:
		return aafpkt.Rate44_1k
	case 48000:
		return aafpkt.Rate48k
	case 88200:
		return aafpkt.Rate88_2k
	case 96000:
		return aafpkt.Rate96k
	case 176400:
		return aafpkt.Rate176_4k
	case 192000:
		return aafpkt.Rate192k
	default:
		return aafpkt.RateUnspec
	}
}

// formatFor maps an AudioType and bit depth to the enumerated
// aafpkt.Format, or aafpkt.FormatUnspec if unsupported (spec.md S1
// Non-goals: no 20/8-bit depths, no AES3/AES67 32-bit format).
func formatFor(t AudioType, bitDepth uint) aafpkt.Format {
	if t == AudioTypeFloat {
		if bitDepth == 32 {
			return aafpkt.FormatFloat32
		}
		return aafpkt.FormatUnspec
	}
	switch bitDepth {
	case 16:
		return aafpkt.FormatInt16
	case 24:
		return aafpkt.FormatInt24
	case 32:
		return aafpkt.FormatInt32
	default:
		return aafpkt.FormatUnspec
	}
}

// Validate computes derived sizes from c's fields (spec.md S3) and validates
// packing-factor-under-sparse-mode (S7, S8 property 10) and MADT alignment
// (S3). On any error, c enters the inert state (aaf_format = Unspec) and the
// error is both logged (once) and returned; GenInit must not allocate MADT
// resources in that case.
func (c *Config) Validate() error {
	c.derived = derived{}

	fmtEnum := formatFor(c.AudioType, c.AudioBitDepth)
	if fmtEnum == aafpkt.FormatUnspec {
		err := pkgerrors.Errorf("aafconfig: unsupported audio type/bit depth combination (type=%v, depth=%d)", c.AudioType, c.AudioBitDepth)
		c.logOnce(err)
		return err
	}
	rateEnum := rateFor(c.AudioRate)
	// RateUnspec is still accepted on the wire (spec.md S3 lists it as a
	// valid enum member); we don't reject configuration purely for an
	// unrecognised rate, matching the source's permissive wire encoding.

	if c.TxInterval <= 0 {
		err := pkgerrors.New("aafconfig: txInterval must be positive")
		c.logOnce(err)
		return err
	}
	if err := validatePackingFactor(c.PackingFactor, c.SparseMode); err != nil {
		c.logOnce(err)
		return err
	}

	if int(c.AudioRate)%c.TxInterval != 0 && c.Logger != nil {
		c.Logger.Log(logging.Warning, "txInterval does not divide audio rate exactly; rounding frames per packet up", "rate", c.AudioRate, "txInterval", c.TxInterval)
	}
	framesPerPacket := ceilDiv(int(c.AudioRate), c.TxInterval)
	sampleSize := sampleSizeBytes(fmtEnum)
	packetFrameSize := sampleSize * int(c.AudioChannels)
	payloadSize := framesPerPacket * packetFrameSize
	itemFrameSize := packetFrameSize
	itemSize := framesPerPacket * c.PackingFactor * itemFrameSize

	d := derived{
		aafRate:                rateEnum,
		aafFormat:              fmtEnum,
		bitDepth:               int(c.AudioBitDepth),
		framesPerPacket:        framesPerPacket,
		framesPerItem:          framesPerPacket * c.PackingFactor,
		itemSampleSizeBytes:    sampleSize,
		packetSampleSizeBytes:  sampleSize,
		packetFrameSizeBytes:   packetFrameSize,
		itemFrameSizeBytes:     itemFrameSize,
		payloadSize:            payloadSize,
		payloadSizeMaxTalker:   payloadSize, // Doubled below if MADT enabled.
		payloadSizeMaxListener: payloadSize, // Widened below if conversion may widen samples.
		itemSize:               itemSize,
	}

	// A listener may need to hold up to a 32-bit-wide rendition of a
	// narrower configured format if the incoming stream is wider
	// (spec.md S3 "payloadSizeMaxListener").
	maxSampleSize := sampleSizeBytes(aafpkt.FormatInt32)
	if maxSampleSize > sampleSize {
		d.payloadSizeMaxListener = framesPerPacket * maxSampleSize * int(c.AudioChannels)
	}

	if c.TemporalRedundantOffsetUsec > 0 {
		offsetSamples := (c.TemporalRedundantOffsetUsec * int(c.AudioRate)) / 1000000
		if framesPerPacket == 0 || offsetSamples%framesPerPacket != 0 {
			err := pkgerrors.Errorf("aafconfig: MADT offset %d usec is not aligned to framesPerPacket=%d", c.TemporalRedundantOffsetUsec, framesPerPacket)
			c.logOnce(err)
			return err
		}
		d.temporalRedundantOffsetSamples = offsetSamples
		d.temporalRedundantOffsetPackets = offsetSamples / framesPerPacket
		d.madtEnabled = true
		d.payloadSizeMaxTalker = 2 * payloadSize
		d.payloadSizeMaxListener = 2 * d.payloadSizeMaxListener
	}

	c.derived = d
	return nil
}

func (c *Config) logOnce(err error) {
	if c.Logger != nil {
		c.Logger.Log(logging.Warning, "invalid AAF config", "error", err)
	}
}

// validatePackingFactor implements spec.md S7's packing-factor validity
// rule and S8 property 10: under sparse mode {1, 2, 4} or any positive
// multiple of 8 are valid; 0 is always invalid; under non-sparse mode any
// positive value is accepted.
func validatePackingFactor(pf int, sparse bool) error {
	if pf <= 0 {
		return pkgerrors.Errorf("aafconfig: packing factor %d must be positive", pf)
	}
	if !sparse {
		return nil
	}
	switch pf {
	case 1, 2, 4:
		return nil
	}
	if pf%8 == 0 {
		return nil
	}
	return pkgerrors.Errorf("aafconfig: packing factor %d invalid under sparse mode", pf)
}

// sampleSizeBytes returns the per-sample byte width for an aafpkt.Format,
// using the 6-minus-enum identity for the integer formats (spec.md S4.3)
// and a direct mapping for Float32.
func sampleSizeBytes(f aafpkt.Format) int {
	switch f {
	case aafpkt.FormatInt32, aafpkt.FormatFloat32:
		return 4
	case aafpkt.FormatInt24:
		return 3
	case aafpkt.FormatInt16:
		return 2
	default:
		return 0
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
