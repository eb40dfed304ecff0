/*
NAME
  aafpkt.go

DESCRIPTION
  aafpkt provides the combined 24-byte AVTP v0 common header and AAF-specific
  header used by IEEE 1722-2016 Clause 7 AAF streams: encoding into a frame
  buffer on transmit and parsing out of a received frame.

  Header layout (all multi-byte fields network byte order):

    octet  width  field
    0      1      Subtype (= SubtypeAAF)
    1      1      Flags: bit 0 = TV (timestamp valid)
    2      1      Sequence number
    3      1      Flags: bit 0 = TU (timestamp uncertain)
    4-11   8       Stream ID / reserved (written by the lower layer)
    12-15  4       AVTP presentation timestamp, zero when TV=0
    16-19  4       Format word: format<<24 | rate<<20 | channels<<8 | bitDepth
    20-23  4       Packet info: payloadLength<<16 | eventField<<8 | SP@bit4

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aafpkt provides encoding and decoding of the 24-byte AVTP+AAF
// header used by IEEE 1722-2016 Clause 7 AAF streams.
package aafpkt

import (
	"encoding/binary"
	"errors"
)

// Fixed header geometry.
const (
	HeaderSize = 24 // Total AVTP common + AAF header size in bytes.

	idxSubtype   = 0
	idxFlags1    = 1 // TV bit 0.
	idxSequence  = 2
	idxFlags2    = 3 // TU bit 0.
	idxStreamID  = 4 // 8 bytes, opaque to this package.
	idxTimestamp = 12
	idxFormat    = 16
	idxPktInfo   = 20

	spByteOffset = 22 // Within the 4-byte packet-info word, third byte.
	spBitMask    = 0x10
)

// SubtypeAAF is the AVTP subtype value identifying an AAF stream.
const SubtypeAAF = 2

// AVTPVersion is the AVTP version this package implements.
const AVTPVersion = 0

// Rate is the enumerated AAF nominal sample rate field.
type Rate uint8

// Enumerated AAF nominal sample rates (spec.md S3). Values are pinned to
// spec.md's worked example (S1: rate=48k packs to nibble 0x3), which does not
// follow the prose list's left-to-right ordering, rather than to a guessed
// reading of that list.
const (
	RateUnspec Rate = 0
	Rate8k     Rate = 1
	Rate16k    Rate = 2
	Rate48k    Rate = 3
	Rate24k    Rate = 4
	Rate32k    Rate = 5
	Rate44_1k  Rate = 6
	Rate88_2k  Rate = 7
	Rate96k    Rate = 8
	Rate176_4k Rate = 9
	Rate192k   Rate = 10
)

// Format is the enumerated AAF sample format field.
type Format uint8

// Enumerated AAF sample formats (spec.md S3).
const (
	FormatUnspec Format = iota
	FormatFloat32
	FormatInt32
	FormatInt24
	FormatInt16
)

// Automotive channel layout event-field values (spec.md S4.5); the default
// is AAFStaticChannelsLayout (0) and is passed through transparently.
const (
	AAFStaticChannelsLayout = 0
	AAFMono                 = 1
	AAFStereo               = 2
	AAF5Dot1                = 3
	AAF7Dot1                = 4
)

// Header holds every field of the combined AVTP+AAF header that this package
// writes or parses. StreamID/reserved bytes (octets 4-11) are owned by the
// lower layer and are not represented here.
type Header struct {
	Sequence      byte
	TV            bool // Timestamp valid.
	TU            bool // Timestamp uncertain.
	SP            bool // Sparse-mode indicator.
	Timestamp     uint32
	Format        Format
	Rate          Rate
	Channels      uint8
	BitDepth      uint8
	PayloadLength uint16
	EventField    byte
}

// Encode writes h into the first HeaderSize bytes of buf, which must have
// length >= HeaderSize, and returns buf. Octets 4-11 (stream ID / reserved)
// are left untouched for the lower layer to fill.
func (h *Header) Encode(buf []byte) []byte {
	buf[idxSubtype] = SubtypeAAF

	buf[idxFlags1] = 0
	if h.TV {
		buf[idxFlags1] |= 0x01
	}
	buf[idxSequence] = h.Sequence
	buf[idxFlags2] = 0
	if h.TU {
		buf[idxFlags2] |= 0x01
	}

	if h.TV {
		binary.BigEndian.PutUint32(buf[idxTimestamp:], h.Timestamp)
	} else {
		binary.BigEndian.PutUint32(buf[idxTimestamp:], 0)
	}

	formatWord := uint32(h.Format)<<24 | uint32(h.Rate)<<20 | uint32(h.Channels)<<8 | uint32(h.BitDepth)
	binary.BigEndian.PutUint32(buf[idxFormat:], formatWord)

	pktInfo := uint32(h.PayloadLength)<<16 | uint32(h.EventField)<<8
	binary.BigEndian.PutUint32(buf[idxPktInfo:], pktInfo)
	if h.SP {
		buf[spByteOffset] |= spBitMask
	}

	return buf
}

// ErrShortBuffer is returned by Decode when buf is smaller than HeaderSize.
var ErrShortBuffer = errors.New("aafpkt: buffer shorter than header size")

// ErrBadSubtype is returned by Decode when the subtype octet is not
// SubtypeAAF.
var ErrBadSubtype = errors.New("aafpkt: unexpected AVTP subtype")

// Decode parses the first HeaderSize bytes of buf into a Header.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortBuffer
	}
	if buf[idxSubtype] != SubtypeAAF {
		return Header{}, ErrBadSubtype
	}

	var h Header
	h.TV = buf[idxFlags1]&0x01 != 0
	h.TU = buf[idxFlags2]&0x01 != 0
	h.Sequence = buf[idxSequence]
	h.Timestamp = binary.BigEndian.Uint32(buf[idxTimestamp:])

	formatWord := binary.BigEndian.Uint32(buf[idxFormat:])
	h.Format = Format(formatWord >> 24)
	h.Rate = Rate(formatWord >> 20 & 0xf)
	h.Channels = uint8(formatWord >> 8)
	h.BitDepth = uint8(formatWord)

	pktInfo := binary.BigEndian.Uint32(buf[idxPktInfo:])
	h.PayloadLength = uint16(pktInfo >> 16)
	// The SP bit shares octet 22 with the event field; mask it out.
	h.EventField = byte(pktInfo>>8) &^ spBitMask
	h.SP = buf[spByteOffset]&spBitMask != 0

	return h, nil
}

// BitDepthFor returns the bit depth (16/24/32) associated with an AAF
// sample format, or 0 for formats with no fixed integer width.
func BitDepthFor(f Format) int {
	switch f {
	case FormatInt16:
		return 16
	case FormatInt24:
		return 24
	case FormatInt32, FormatFloat32:
		return 32
	default:
		return 0
	}
}
