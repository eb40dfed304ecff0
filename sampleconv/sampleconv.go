/*
NAME
  sampleconv.go

DESCRIPTION
  sampleconv provides conversion between integer PCM sample widths (16/24/
  32-bit) as used when a listener's configured bit depth differs from an
  incoming AAF stream's bit depth (IEEE 1722-2016 Clause 7.3.4). Conversion
  is channel- and endianness-agnostic: it operates on raw sample-sized slabs
  in the order they appear on the wire.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sampleconv converts PCM sample data between integer sample widths
// without changing endianness, channel layout, or sample count.
package sampleconv

import "github.com/pkg/errors"

// Format mirrors the subset of aafpkt.Format this package can convert
// between: the three integer widths. It is a distinct type so that this
// package has no dependency on aafpkt; callers convert between the two with
// a small switch.
type Format int

// Supported integer sample formats.
const (
	Int32 Format = iota
	Int24
	Int16
)

// Width returns the sample byte width for f, matching the IEEE 1722-2016
// identity byte-width = 6 - format-enum for {Int32=2, Int24=3, Int16=4} as
// those enums are encoded on the wire (see aafpkt.Format).
func Width(f Format) int {
	switch f {
	case Int32:
		return 4
	case Int24:
		return 3
	case Int16:
		return 2
	default:
		return 0
	}
}

// ErrUnsupportedFormat is returned by Convert when either format is not one
// of Int16/Int24/Int32 (e.g. Float32 or Unspec): spec.md S4.3 excludes these,
// marking the frame invalid instead.
var ErrUnsupportedFormat = errors.New("sampleconv: unsupported sample format")

// OutLen returns the number of bytes Convert will write for 'frames' frames
// of 'channels' samples each when converting to format 'to'.
func OutLen(to Format, channels, frames int) int {
	return Width(to) * channels * frames
}

// Convert converts src, laid out as frames of 'channels' samples of width
// Width(from), into dst as frames of 'channels' samples of width Width(to).
// The number of frames converted is len(src) / (Width(from)*channels); dst
// must have capacity for that many frames at Width(to)*channels each.
// Convert returns the number of bytes written to dst.
//
// Widening copies the input sample bytes then appends (to-from) zero bytes
// per sample (spec.md S4.3, "per Clause 7.3.4"). Narrowing copies the first
// Width(to) bytes of each sample and discards the rest.
func Convert(dst, src []byte, from, to Format, channels int) (int, error) {
	fw, tw := Width(from), Width(to)
	if fw == 0 || tw == 0 {
		return 0, ErrUnsupportedFormat
	}
	if channels <= 0 {
		return 0, nil
	}
	inFrame := fw * channels
	// A partial trailing frame (len(src) not a multiple of inFrame) is
	// dropped rather than converted; there is no defined behaviour for it.
	frames := len(src) / inFrame
	outFrame := tw * channels
	need := frames * outFrame
	if len(dst) < need {
		return 0, errors.New("sampleconv: dst too small")
	}

	si, di := 0, 0
	for f := 0; f < frames; f++ {
		for c := 0; c < channels; c++ {
			if fw < tw {
				copy(dst[di:di+fw], src[si:si+fw])
				for i := fw; i < tw; i++ {
					dst[di+i] = 0
				}
			} else {
				copy(dst[di:di+tw], src[si:si+tw])
			}
			si += fw
			di += tw
		}
	}
	return need, nil
}
